package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/edakit/internal/analysis"
	"github.com/KaramelBytes/edakit/internal/ingest"
	"github.com/KaramelBytes/edakit/internal/run"
)

var (
	anaOutputPath string
	anaSaveRun    bool
	anaSampleRows int
	anaGroupBy    []string
	anaCorr       bool
	anaCorrGroups bool
	anaOutliers   bool
	anaOutlierThr float64
	anaInput      inputFlags
)

// profileOptions builds analysis options from the shared analyze flags.
func profileOptions(cmd *cobra.Command, sampleRows, maxRows int, groupBy []string, corr, corrGroups, outliers bool, thr float64) analysis.Options {
	opt := analysis.DefaultOptions()
	if sampleRows >= 0 {
		opt.SampleRows = sampleRows
	}
	if maxRows > 0 {
		opt.MaxRows = maxRows
	}
	opt.GroupBy = groupBy
	opt.Correlations = corr
	opt.CorrPerGroup = corrGroups
	if cmd.Flags().Changed("outliers") {
		opt.Outliers = outliers
	} else {
		opt.Outliers = true
	}
	if thr > 0 {
		opt.OutlierThreshold = thr
	}
	return opt
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile a CSV/TSV/XLSX file and print a Markdown summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := dataPath(args[0])
		in, err := anaInput.options(ingest.Options{})
		if err != nil {
			return err
		}
		opt := profileOptions(cmd, anaSampleRows, anaInput.maxRows, anaGroupBy, anaCorr, anaCorrGroups, anaOutliers, anaOutlierThr)
		rep, err := analysis.AnalyzeFile(path, in, opt)
		if err != nil {
			return err
		}
		md := rep.Markdown()

		// Decide where to write: --output path, a run directory, or stdout
		written := false
		if anaOutputPath != "" {
			if err := os.WriteFile(anaOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			written = true
		}
		if anaSaveRun {
			r, err := newRun(datasetName(path), "analyze", map[string]string{"input": path})
			if err != nil {
				return err
			}
			_, werr := r.WriteText(datasetName(path)+".summary.md", run.KindReport, "dataset profile", md)
			if err := finish(cmd.OutOrStdout(), r, werr); err != nil {
				return err
			}
			written = true
		}
		if !written {
			fmt.Fprintln(cmd.OutOrStdout(), md)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis (Markdown)")
	analyzeCmd.Flags().BoolVar(&anaSaveRun, "save", false, "store the summary in a new run directory")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include (0 disables samples)")
	analyzeCmd.Flags().StringSliceVar(&anaGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	analyzeCmd.Flags().BoolVar(&anaCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	analyzeCmd.Flags().BoolVar(&anaCorrGroups, "corr-per-group", false, "compute correlation pairs within each group (may be slower)")
	analyzeCmd.Flags().BoolVar(&anaOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	analyzeCmd.Flags().Float64Var(&anaOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	anaInput.register(analyzeCmd.Flags())
}
