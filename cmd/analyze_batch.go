package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/edakit/internal/analysis"
	"github.com/KaramelBytes/edakit/internal/ingest"
	"github.com/KaramelBytes/edakit/internal/run"
)

var (
	abSampleRows int
	abGroupBy    []string
	abCorr       bool
	abCorrGroups bool
	abOutliers   bool
	abOutlierThr float64
	abSaveRun    bool
	abWorkers    int
	abQuiet      bool
	abInput      inputFlags
)

// expandInputs resolves globs and literal paths, deduplicated and sorted.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 && !filepath.IsAbs(arg) {
			if c, err := currentConfig(); err == nil && c.DataDir != "" && c.DataDir != "." {
				matches, _ = filepath.Glob(filepath.Join(c.DataDir, arg))
			}
		}
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// summaryName picks a file name inside the run that does not collide with
// one already used, e.g. metrics.summary.md then metrics__2.summary.md.
func summaryName(path string, used map[string]bool) string {
	base := datasetName(path)
	name := base + ".summary.md"
	for idx := 2; used[name]; idx++ {
		name = fmt.Sprintf("%s__%d.summary.md", base, idx)
	}
	used[name] = true
	return name
}

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Profile multiple CSV/TSV/XLSX files, optionally into one run",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		in, err := abInput.options(ingest.Options{})
		if err != nil {
			return err
		}
		opt := profileOptions(cmd, abSampleRows, abInput.maxRows, abGroupBy, abCorr, abCorrGroups, abOutliers, abOutlierThr)

		// Profile concurrently, report in input order.
		reports := make([]string, len(files))
		var mu sync.Mutex
		done := 0
		g, ctx := errgroup.WithContext(cmd.Context())
		if abWorkers > 0 {
			g.SetLimit(abWorkers)
		}
		for i, path := range files {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				rep, err := analysis.AnalyzeFile(path, in, opt)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				reports[i] = rep.Markdown()
				mu.Lock()
				done++
				if !abQuiet {
					fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] Processed %s\n", done, len(files), filepath.Base(path))
				}
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if !abSaveRun {
			if !abQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(reports, "\n"))
			}
			return nil
		}
		r, err := newRun("batch", "analyze-batch", map[string]string{"inputs": strings.Join(files, ",")})
		if err != nil {
			return err
		}
		used := map[string]bool{}
		var werr error
		for i, path := range files {
			name := summaryName(path, used)
			if name != datasetName(path)+".summary.md" && !abQuiet {
				fmt.Fprintf(cmd.OutOrStdout(), "⚠ Detected existing summary, writing to %s to avoid overwrite.\n", name)
			}
			if _, werr = r.WriteText(name, run.KindReport, "dataset profile of "+path, reports[i]); werr != nil {
				break
			}
		}
		return finish(cmd.OutOrStdout(), r, werr)
	},
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().IntVar(&abSampleRows, "sample-rows", 5, "number of sample rows to include (0 disables samples)")
	analyzeBatchCmd.Flags().StringSliceVar(&abGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	analyzeBatchCmd.Flags().BoolVar(&abCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	analyzeBatchCmd.Flags().BoolVar(&abCorrGroups, "corr-per-group", false, "compute correlation pairs within each group (may be slower)")
	analyzeBatchCmd.Flags().BoolVar(&abOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	analyzeBatchCmd.Flags().Float64Var(&abOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	analyzeBatchCmd.Flags().BoolVar(&abSaveRun, "save", false, "store all summaries in one new run directory")
	analyzeBatchCmd.Flags().IntVar(&abWorkers, "workers", 4, "files profiled concurrently (0 = unlimited)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
	abInput.register(analyzeBatchCmd.Flags())
}
