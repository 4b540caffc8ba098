package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/edakit/internal/datasets"
	"github.com/KaramelBytes/edakit/internal/recipe"
	"github.com/KaramelBytes/edakit/internal/run"
)

var recipeValidateOnly bool

var recipeCmd = &cobra.Command{
	Use:   "run <recipe.yaml>",
	Short: "Execute a declarative YAML pipeline",
	Long: `Reads a recipe: an input file with reader options, optional named inputs
for joins, an ordered list of steps, and optional charts and model sections.
The final table, every chart and the model score are stored in a new run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := recipe.Load(args[0])
		if err != nil {
			return err
		}
		if recipeValidateOnly {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Recipe %q is valid (%d steps)\n", rec.Name, len(rec.Steps))
			return nil
		}
		r, err := newRun(rec.Name, "run", map[string]string{"recipe": args[0]})
		if err != nil {
			return err
		}
		return finish(cmd.OutOrStdout(), r, func() error {
			out, err := rec.Execute(cmd.Context(), r.Dir())
			if err != nil {
				return err
			}
			output := firstNonEmpty(rec.Output, "output.csv")
			rep := &datasets.Report{Dataset: rec.Name, Steps: out.Steps, Model: out.Model}
			rep.Sections = append(rep.Sections, datasets.Section{Name: datasetName(output), Title: "Output", Table: out.Table})
			for _, path := range out.Charts {
				if _, err := r.AddArtifact(run.KindChart, path, "recipe chart"); err != nil {
					return err
				}
			}
			if err := saveReport(r, rep); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %d steps, %d rows × %d columns\n", len(out.Steps), out.Table.NumRows(), out.Table.NumCols())
			if out.Model != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", out.Model)
			}
			return nil
		}())
	},
}

func init() {
	rootCmd.AddCommand(recipeCmd)
	recipeCmd.Flags().BoolVar(&recipeValidateOnly, "validate", false, "only parse and validate the recipe")
}
