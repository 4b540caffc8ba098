package cmd

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/edakit/internal/datasets"
	"github.com/KaramelBytes/edakit/internal/ingest"
	"github.com/KaramelBytes/edakit/internal/model"
	"github.com/KaramelBytes/edakit/internal/table"
)

var (
	wrInput   inputFlags
	wrAQModel modelFlags
	wrHModel  modelFlags
	wrPrint   bool
)

var wrangleCmd = &cobra.Command{
	Use:   "wrangle",
	Short: "Run a dataset's cleaning, integration, transformation and modeling pipeline",
}

// loadDataset reads path with the dataset's reader defaults overlaid by the
// input flags.
func loadDataset(path string, base ingest.Options) (*table.Table, error) {
	opt, err := wrInput.options(base)
	if err != nil {
		return nil, err
	}
	t, err := ingest.ReadFile(dataPath(path), opt)
	if err != nil {
		return nil, err
	}
	slog.Info("dataset loaded", slog.String("path", path), slog.Int("rows", t.NumRows()), slog.Int("cols", t.NumCols()))
	return t, nil
}

// persist stores a dataset report in a new run and prints it.
func persist(cmd *cobra.Command, dataset, path string, params map[string]string, rep *datasets.Report) error {
	if params == nil {
		params = map[string]string{}
	}
	params["input"] = path
	r, err := newRun(dataset, cmd.CommandPath(), params)
	if err != nil {
		return err
	}
	serr := saveReport(r, rep)
	if serr == nil && wrPrint {
		fmt.Fprintln(cmd.OutOrStdout(), rep.Markdown())
	}
	if serr == nil && rep.Model != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", rep.Model)
	}
	return finish(cmd.OutOrStdout(), r, serr)
}

var wrangleFacebookCmd = &cobra.Command{
	Use:   "facebook <dataset_Facebook.csv>",
	Short: "Subset, merge, sort, transpose and pivot the Facebook metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		df, err := loadDataset(args[0], datasets.FacebookInput())
		if err != nil {
			return err
		}
		rep, err := datasets.Facebook(df)
		if err != nil {
			return err
		}
		return persist(cmd, "facebook", args[0], nil, rep)
	},
}

var wrangleAirQualityCmd = &cobra.Command{
	Use:   "airquality <AirQualityUCI.csv>",
	Short: "Clean, integrate, scale and cap the UCI air quality data, then regress CO(GT)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mo, seed, err := wrAQModel.options(cmd)
		if err != nil {
			return err
		}
		df, err := loadDataset(args[0], datasets.AirQualityInput())
		if err != nil {
			return err
		}
		rep, err := datasets.AirQuality(cmd.Context(), df, datasets.AirQualityOptions{Seed: seed, Model: mo})
		if err != nil {
			return err
		}
		return persist(cmd, "airquality", args[0], map[string]string{"seed": strconv.FormatInt(seed, 10)}, rep)
	},
}

var wrangleHeartCmd = &cobra.Command{
	Use:   "heart <processed.cleveland.data>",
	Short: "Clean, integrate, encode and correct the UCI heart disease data, then classify",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mo, seed, err := wrHModel.options(cmd)
		if err != nil {
			return err
		}
		df, err := loadDataset(args[0], datasets.HeartInput())
		if err != nil {
			return err
		}
		rep, err := datasets.Heart(cmd.Context(), df, datasets.HeartOptions{Seed: seed, Model: mo})
		if err != nil {
			return err
		}
		return persist(cmd, "heart", args[0], map[string]string{"seed": strconv.FormatInt(seed, 10)}, rep)
	},
}

func init() {
	rootCmd.AddCommand(wrangleCmd)
	wrangleCmd.AddCommand(wrangleFacebookCmd, wrangleAirQualityCmd, wrangleHeartCmd)
	wrangleCmd.PersistentFlags().BoolVar(&wrPrint, "print", false, "print the report Markdown to stdout")
	wrInput.register(wrangleCmd.PersistentFlags())
	wrAQModel.register(wrangleAirQualityCmd.Flags(), model.RandomForestRegressor)
	wrHModel.register(wrangleHeartCmd.Flags(), model.RandomForestClassifier)
}
