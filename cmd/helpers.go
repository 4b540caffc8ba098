package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/edakit/internal/datasets"
	"github.com/KaramelBytes/edakit/internal/ingest"
	"github.com/KaramelBytes/edakit/internal/model"
	"github.com/KaramelBytes/edakit/internal/run"
)

// inputFlags are the reader options shared by every command that loads a
// dataset.
type inputFlags struct {
	delimiter string
	decimal   string
	thousands string
	sheet     string
	maxRows   int
	missing   []string
}

func (f *inputFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default by dataset or extension)")
	fs.StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	fs.StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	fs.StringVar(&f.sheet, "sheet-name", "", "XLSX: sheet name to read (default first sheet)")
	fs.IntVar(&f.maxRows, "max-rows", 0, "maximum rows to read (0 = unlimited)")
	fs.StringSliceVar(&f.missing, "missing", nil, "extra cell values read as missing (repeatable)")
}

func (f *inputFlags) reset() { *f = inputFlags{} }

// options overlays the flags that were set on base.
func (f *inputFlags) options(base ingest.Options) (ingest.Options, error) {
	opt := base
	var err error
	if f.delimiter != "" {
		if opt.Delimiter, err = ingest.ParseDelimiter(f.delimiter); err != nil {
			return opt, err
		}
	}
	if f.decimal != "" {
		if opt.DecimalSeparator, err = ingest.ParseDecimal(f.decimal); err != nil {
			return opt, err
		}
	}
	if f.thousands != "" {
		if opt.ThousandsSeparator, err = ingest.ParseThousands(f.thousands); err != nil {
			return opt, err
		}
	}
	if f.sheet != "" {
		opt.Sheet = f.sheet
	}
	if f.maxRows > 0 {
		opt.MaxRows = f.maxRows
	}
	if len(f.missing) > 0 {
		opt.MissingMarkers = append(append([]string(nil), opt.MissingMarkers...), f.missing...)
	}
	return opt, nil
}

// newRun creates and saves a run under the configured runs directory.
func newRun(dataset, command string, params map[string]string) (*run.Run, error) {
	c, err := currentConfig()
	if err != nil {
		return nil, err
	}
	r := run.New(c.RunsDir, dataset, command)
	for k, v := range params {
		r.Params[k] = v
	}
	if err := r.Save(); err != nil {
		return nil, err
	}
	return r, nil
}

// finish closes the run with err and reports a failure to save without
// hiding err.
func finish(w io.Writer, r *run.Run, err error) error {
	if ferr := r.Finish(err); ferr != nil {
		if err != nil {
			return fmt.Errorf("%w (and saving run failed: %v)", err, ferr)
		}
		return ferr
	}
	if err == nil {
		fmt.Fprintf(w, "✓ Run saved to %s\n", r.Dir())
	}
	return err
}

// saveReport writes every section as CSV plus report.md into the run and
// records the steps and model score.
func saveReport(r *run.Run, rep *datasets.Report) error {
	for _, s := range rep.Sections {
		if _, err := r.WriteTable(s.Name+".csv", s.Title, s.Table); err != nil {
			return fmt.Errorf("save %s: %w", s.Name, err)
		}
	}
	if _, err := r.WriteText("report.md", run.KindReport, rep.Dataset+" report", rep.Markdown()); err != nil {
		return err
	}
	r.RecordSteps(rep.Steps)
	if rep.Model != nil {
		r.SetMetric(string(rep.Model.Metric), rep.Model.Score)
		r.Params["model"] = string(rep.Model.Kind)
	}
	return r.Save()
}

// modelFlags select the estimator for dataset commands.
type modelFlags struct {
	kind      string
	trees     int
	maxDepth  int
	seed      int64
	testFrac  float64
	skipModel bool
}

func (f *modelFlags) register(fs *pflag.FlagSet, defaultKind model.Kind) {
	fs.StringVar(&f.kind, "model", string(defaultKind), "estimator: random_forest_classifier|random_forest_regressor|logistic_regression|linear_regression")
	fs.IntVar(&f.trees, "n-estimators", 0, "number of trees (default from config)")
	fs.IntVar(&f.maxDepth, "max-depth", 0, "maximum tree depth (0 = unlimited)")
	fs.Int64Var(&f.seed, "seed", 0, "random seed for splits, forests and synthetic data (default from config)")
	fs.Float64Var(&f.testFrac, "test-fraction", 0, "held-out fraction (default from config)")
	fs.BoolVar(&f.skipModel, "no-model", false, "skip model fitting")
}

func (f *modelFlags) reset(defaultKind model.Kind) {
	*f = modelFlags{kind: string(defaultKind)}
}

// options merges the flags with configured defaults.
func (f *modelFlags) options(cmd *cobra.Command) (datasets.ModelOptions, int64, error) {
	c, err := currentConfig()
	if err != nil {
		return datasets.ModelOptions{}, 0, err
	}
	seed := c.Seed
	if cmd.Flags().Changed("seed") {
		seed = f.seed
	}
	o := datasets.ModelOptions{
		Spec: model.Spec{
			Kind:        model.Kind(f.kind),
			NEstimators: c.NEstimators,
			MaxDepth:    f.maxDepth,
			Seed:        seed,
			Workers:     c.Workers,
		},
		TestFraction: c.TestFraction,
		Skip:         f.skipModel,
	}
	if f.trees > 0 {
		o.Spec.NEstimators = f.trees
	}
	if f.testFrac > 0 {
		o.TestFraction = f.testFrac
	}
	if err := o.Spec.Validate(); err != nil {
		return o, 0, err
	}
	return o, seed, nil
}

// chartName swaps the extension of a plan file for the configured format.
func chartName(file string) string {
	c, err := currentConfig()
	if err != nil || c.ChartFormat == "" || c.ChartFormat == "png" {
		return file
	}
	return strings.TrimSuffix(file, filepath.Ext(file)) + "." + c.ChartFormat
}

// dataPath resolves a relative dataset path against data_dir when it does
// not exist as given.
func dataPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	c, err := currentConfig()
	if err != nil || c.DataDir == "" || c.DataDir == "." {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

func datasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
