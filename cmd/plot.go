package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/edakit/internal/chart"
	"github.com/KaramelBytes/edakit/internal/datasets"
	"github.com/KaramelBytes/edakit/internal/ingest"
	"github.com/KaramelBytes/edakit/internal/run"
	"github.com/KaramelBytes/edakit/internal/table"
)

var plotInput inputFlags

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render a dataset's charts into a run directory",
}

// renderPlots draws the plans into a new run and registers each chart.
func renderPlots(cmd *cobra.Command, dataset, path string, base ingest.Options, prepare func(*table.Table) (*table.Table, error), plans []chart.Plan) error {
	opt, err := plotInput.options(base)
	if err != nil {
		return err
	}
	df, err := ingest.ReadFile(dataPath(path), opt)
	if err != nil {
		return err
	}
	if prepare != nil {
		if df, err = prepare(df); err != nil {
			return err
		}
	}
	r, err := newRun(dataset, cmd.CommandPath(), map[string]string{"input": path})
	if err != nil {
		return err
	}
	var rerr error
	for _, p := range plans {
		p.File = chartName(p.File)
		out, err := chart.Render(df, p, r.Dir())
		if err != nil {
			rerr = err
			break
		}
		if _, err := r.AddArtifact(run.KindChart, out, p.Title); err != nil {
			rerr = err
			break
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", p.File)
	}
	return finish(cmd.OutOrStdout(), r, rerr)
}

var plotAirQualityCmd = &cobra.Command{
	Use:   "airquality <AirQualityUCI.csv>",
	Short: "CO over time, by month and hour, vs NO2, and the correlation heatmap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderPlots(cmd, "airquality", args[0], datasets.AirQualityInput(), datasets.PrepareAirQualityPlots, datasets.AirQualityPlots())
	},
}

var plotHeartCmd = &cobra.Command{
	Use:   "heart <processed.cleveland.data>",
	Short: "Age histogram, cholesterol by status, age vs cholesterol, heatmap and chest pain counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderPlots(cmd, "heart", args[0], datasets.HeartInput(), datasets.PrepareHeartPlots, datasets.HeartPlots())
	},
}

var plotFiresCmd = &cobra.Command{
	Use:   "fires <forestfires.csv>",
	Short: "Burned area by month and day, and temperature vs area",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderPlots(cmd, "fires", args[0], ingest.DefaultOptions(), nil, datasets.FiresPlots())
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.AddCommand(plotAirQualityCmd, plotHeartCmd, plotFiresCmd)
	plotInput.register(plotCmd.PersistentFlags())
}
