package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/edakit/internal/run"
	"github.com/KaramelBytes/edakit/internal/utils"
)

var runsDataset string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List or inspect stored runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		runs, err := run.List(c.RunsDir)
		if err != nil {
			return err
		}
		found := false
		for _, r := range runs {
			if runsDataset != "" && r.Dataset != runsDataset {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "- %s  %-9s  %s  %s (%d artifacts)\n",
				filepath.Base(r.Dir()), r.Status, r.StartedAt.Format("2006-01-02 15:04:05"), r.Command, len(r.Artifacts))
			found = true
		}
		if !found {
			fmt.Fprintln(cmd.OutOrStdout(), "(no runs)")
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run>",
	Short: "Show a run's parameters, steps, metrics and artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		// Accept a run id under runs_dir or any path inside a run.
		dir := filepath.Join(c.RunsDir, args[0])
		if _, serr := os.Stat(dir); serr != nil || filepath.IsAbs(args[0]) {
			if dir, err = utils.FindUp(args[0], "run.json"); err != nil {
				return fmt.Errorf("resolve run %s: %w", args[0], err)
			}
		}
		r, err := run.Load(dir)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "id: %s\ndataset: %s\ncommand: %s\nstatus: %s\n", r.ID, r.Dataset, r.Command, r.Status)
		if r.Error != "" {
			fmt.Fprintf(w, "error: %s\n", r.Error)
		}
		keys := make([]string, 0, len(r.Params))
		for k := range r.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "param %s: %s\n", k, r.Params[k])
		}
		for _, s := range r.Steps {
			fmt.Fprintf(w, "step %s: %d rows × %d cols (%.2f ms)\n", s.Name, s.Rows, s.Cols, s.DurationMS)
		}
		keys = keys[:0]
		for k := range r.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "metric %s: %.6g\n", k, r.Metrics[k])
		}
		for _, kind := range []run.Kind{run.KindTable, run.KindChart, run.KindReport, run.KindScript, run.KindQuery} {
			for _, a := range r.ArtifactsOf(kind) {
				fmt.Fprintf(w, "- [%s] %s: %s\n", a.Kind, a.Path, a.Description)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd, runsShowCmd)
	runsListCmd.Flags().StringVarP(&runsDataset, "dataset", "d", "", "only list runs of this dataset")
}
