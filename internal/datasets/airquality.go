package datasets

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/KaramelBytes/edakit/internal/chart"
	"github.com/KaramelBytes/edakit/internal/ingest"
	"github.com/KaramelBytes/edakit/internal/model"
	"github.com/KaramelBytes/edakit/internal/table"
)

const (
	aqDateLayout = "02/01/2006"
	aqTimeLayout = "15.04.05"
	aqCO         = "CO(GT)"
)

var aqScaled = []string{"CO(GT)", "NO2(GT)", "NOx(GT)"}

// AirQualityInput reads AirQualityUCI.csv: ';' fields, ',' decimals.
func AirQualityInput() ingest.Options {
	return ingest.Options{Delimiter: ';', DecimalSeparator: ','}
}

// AirQualityFeatures are the regressors for CO(GT).
var AirQualityFeatures = []string{"NO2(GT)_scaled", "NOx(GT)_scaled", "Month"}

// AirQualityOptions parameterizes AirQuality.
type AirQualityOptions struct {
	// Seed drives the synthetic weather table.
	Seed  int64
	Model ModelOptions
}

// AirQuality cleans the sensor table, joins synthetic weather on Date,
// standardizes the pollutants, derives Year and Month, caps CO(GT) and
// fits a regressor for it.
func AirQuality(ctx context.Context, df *table.Table, opt AirQualityOptions) (*Report, error) {
	r := &Report{Dataset: "airquality"}
	r.add("original", "Original Dataset Preview", df)

	cleaned, err := table.Clean(df, table.CleanRules{
		DropEmptyColumns: true,
		DropAnyMissing:   true,
		Sentinels:        []table.Sentinel{{Column: aqCO, Value: table.Int(-200)}},
	})
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	r.add("cleaned", "Cleaned Data Preview", cleaned)

	weather, err := Weather(cleaned, 50, opt.Seed)
	if err != nil {
		return nil, err
	}
	integrated, err := table.InnerJoin(cleaned.Head(50), weather, "Date")
	if err != nil {
		return nil, err
	}
	r.add("integrated", "Integrated Data Preview", integrated, "Date", aqCO, "Temperature", "Humidity")

	p := &table.Pipeline{}
	p.Then("scale", func(t *table.Table) (*table.Table, error) {
		return table.Scale(t, aqScaled, table.ScaleOptions{Suffix: "_scaled"})
	}).Then("date parts", func(t *table.Table) (*table.Table, error) {
		return table.DateParts(t, "Date", aqDateLayout, table.Year, table.Month)
	}).Then("cap co", func(t *table.Table) (*table.Table, error) {
		return table.Clip(t, aqCO, table.Unbounded(), table.AtQuantile(0.99))
	}).Then("non-negative co", func(t *table.Table) (*table.Table, error) {
		return table.Clip(t, aqCO, table.Fixed(0), table.Unbounded())
	})
	var transformed *table.Table
	p.OnStep = func(s table.StepResult, t *table.Table) {
		if s.Name == "date parts" {
			transformed = t
		}
	}
	corrected, steps, err := p.Run(cleaned)
	if err != nil {
		return nil, err
	}
	r.Steps = steps
	r.add("transformed", "Transformed Data Preview", transformed, "Date", aqCO, "CO(GT)_scaled", "Year", "Month")
	r.add("corrected", "Error-Corrected Data Preview", corrected, aqCO, "NO2(GT)")

	if opt.Model.Skip {
		return r, nil
	}
	mo := opt.Model.withDefaults(model.RandomForestRegressor)
	if r.Model, err = fitModel(ctx, corrected, AirQualityFeatures, aqCO, mo); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return r, nil
}

// Weather builds a synthetic table keyed by the first n distinct dates of
// t with uniform Temperature in [10,30) and Humidity in [30,80).
func Weather(t *table.Table, n int, seed int64) (*table.Table, error) {
	dates, err := distinct(t, "Date", n)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	temp := uniform(rng, len(dates), 10, 30)
	hum := uniform(rng, len(dates), 30, 80)
	return table.New([]string{"Date", "Temperature", "Humidity"}, [][]table.Value{dates, temp, hum})
}

// PrepareAirQualityPlots drops the -200 rows and derives Month and Hour for
// the chart plans.
func PrepareAirQualityPlots(df *table.Table) (*table.Table, error) {
	p := &table.Pipeline{}
	p.Then("drop sentinel", func(t *table.Table) (*table.Table, error) {
		return table.Filter(t, table.Ne(aqCO, table.Int(-200)))
	}).Then("drop missing", func(t *table.Table) (*table.Table, error) {
		return table.DropMissing(t, "Date", "Time", aqCO)
	}).Then("month", func(t *table.Table) (*table.Table, error) {
		return table.DateParts(t, "Date", aqDateLayout, table.Month)
	}).Then("hour", func(t *table.Table) (*table.Table, error) {
		return table.DateParts(t, "Time", aqTimeLayout, table.Hour)
	})
	out, _, err := p.Run(df)
	return out, err
}

// AirQualityPlots are the charts drawn for the air quality data.
func AirQualityPlots() []chart.Plan {
	return []chart.Plan{
		{Type: chart.TypeLine, File: "co_over_time.png", Title: "CO Concentration Over Time", X: "Date", Layout: aqDateLayout, Y: []string{aqCO}},
		{Type: chart.TypeBox, File: "co_by_month.png", Title: "CO Concentration Distribution by Month", X: "Month", Y: []string{aqCO}},
		{Type: chart.TypeScatter, File: "co_vs_no2.png", Title: "CO vs NO2 Concentration (Colored by Temperature)", X: "NO2(GT)", Y: []string{aqCO}, Hue: "T"},
		{Type: chart.TypeHeatmap, File: "correlation.png", Title: "Correlation Matrix of Air Quality Features", Y: []string{"CO(GT)", "NO2(GT)", "NOx(GT)", "T", "RH", "AH"}},
		{Type: chart.TypeBar, File: "co_by_hour.png", Title: "Average CO Concentration by Hour", X: "Hour", Y: []string{aqCO}},
	}
}
