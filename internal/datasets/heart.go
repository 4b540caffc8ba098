package datasets

import (
	"context"
	"fmt"
	"math/rand"
	"slices"

	"github.com/KaramelBytes/edakit/internal/chart"
	"github.com/KaramelBytes/edakit/internal/ingest"
	"github.com/KaramelBytes/edakit/internal/model"
	"github.com/KaramelBytes/edakit/internal/table"
)

// HeartColumns names the headerless processed.cleveland.data columns.
var HeartColumns = []string{
	"age", "sex", "cp", "trestbps", "chol", "fbs", "restecg",
	"thalach", "exang", "oldpeak", "slope", "ca", "thal", "target",
}

var (
	heartScaled  = []string{"age", "chol", "trestbps", "thalach"}
	heartOneHot  = []string{"cp", "restecg", "slope", "thal"}
	heartExclude = []string{"patient_id", "target", "age", "chol", "trestbps", "thalach"}
)

// HeartInput reads the headerless CSV with "?" for unknown values.
func HeartInput() ingest.Options {
	return ingest.Options{Delimiter: ',', DecimalSeparator: '.', Names: HeartColumns, MissingMarkers: []string{"?"}}
}

// HeartOptions parameterizes Heart.
type HeartOptions struct {
	// Seed drives the synthetic demographics table.
	Seed  int64
	Model ModelOptions
}

// Heart cleans the Cleveland table, joins synthetic demographics on
// patient_id, standardizes and one-hot encodes, corrects cholesterol and
// age ranges, binarizes the target and fits a classifier.
func Heart(ctx context.Context, df *table.Table, opt HeartOptions) (*Report, error) {
	r := &Report{Dataset: "heart"}
	r.add("original", "Original Dataset Preview", df)

	cleaned, err := table.Clean(df, table.CleanRules{
		MissingMarkers: []string{"?"},
		DropAnyMissing: true,
		Coerce:         []string{"ca", "thal"},
		Strict:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	r.add("cleaned", "Cleaned Data Preview", cleaned)

	if cleaned, err = table.WithRowNumber(cleaned, "patient_id", 1); err != nil {
		return nil, err
	}
	demo, err := Demographics(cleaned, 50, opt.Seed)
	if err != nil {
		return nil, err
	}
	integrated, err := table.InnerJoin(cleaned.Head(50), demo, "patient_id")
	if err != nil {
		return nil, err
	}
	r.add("integrated", "Integrated Data Preview", integrated, "patient_id", "age", "weight", "height")

	p := &table.Pipeline{}
	p.Then("scale", func(t *table.Table) (*table.Table, error) {
		return table.Scale(t, heartScaled, table.ScaleOptions{Suffix: "_scaled"})
	}).Then("one-hot", func(t *table.Table) (*table.Table, error) {
		return table.OneHotEncode(t, heartOneHot, table.OneHotOptions{DropFirst: true})
	}).Then("cap chol", func(t *table.Table) (*table.Table, error) {
		return table.Clip(t, "chol", table.Unbounded(), table.AtQuantile(0.99))
	}).Then("adults", func(t *table.Table) (*table.Table, error) {
		return table.Filter(t, table.Ge("age", table.Int(18)))
	}).Then("non-negative chol", func(t *table.Table) (*table.Table, error) {
		return table.Clip(t, "chol", table.Fixed(0), table.Unbounded())
	}).Then("binary target", func(t *table.Table) (*table.Table, error) {
		return table.Map(t, "target", "target", table.Binarize(0))
	})
	var transformed *table.Table
	p.OnStep = func(s table.StepResult, t *table.Table) {
		if s.Name == "one-hot" {
			transformed = t
		}
	}
	corrected, steps, err := p.Run(cleaned)
	if err != nil {
		return nil, err
	}
	r.Steps = steps
	r.add("transformed", "Transformed Data Preview", transformed, "age", "age_scaled", "chol", "chol_scaled")
	r.add("corrected", "Error-Corrected Data Preview", corrected, "age", "chol")

	if opt.Model.Skip {
		return r, nil
	}
	mo := opt.Model.withDefaults(model.RandomForestClassifier)
	if r.Model, err = fitModel(ctx, corrected, HeartFeatures(corrected), "target", mo); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return r, nil
}

// HeartFeatures is every column except the identifier, the target and the
// unscaled originals of the standardized columns.
func HeartFeatures(t *table.Table) []string {
	var out []string
	for _, c := range t.Columns() {
		if !slices.Contains(heartExclude, c) {
			out = append(out, c)
		}
	}
	return out
}

// Demographics builds a synthetic table for the first n patient ids with
// uniform weight in [50,100) and height in [150,190).
func Demographics(t *table.Table, n int, seed int64) (*table.Table, error) {
	ids, err := t.Column("patient_id")
	if err != nil {
		return nil, err
	}
	ids = ids[:min(n, len(ids))]
	rng := rand.New(rand.NewSource(seed))
	weight := uniform(rng, len(ids), 50, 100)
	height := uniform(rng, len(ids), 150, 190)
	return table.New([]string{"patient_id", "weight", "height"}, [][]table.Value{ids, weight, height})
}

// PrepareHeartPlots drops incomplete rows and binarizes the target.
func PrepareHeartPlots(df *table.Table) (*table.Table, error) {
	p := &table.Pipeline{}
	p.Then("clean", func(t *table.Table) (*table.Table, error) {
		return table.Clean(t, table.CleanRules{
			MissingMarkers: []string{"?"},
			DropAnyMissing: true,
			Coerce:         []string{"age", "chol", "trestbps", "thalach", "ca", "thal"},
			Strict:         true,
		})
	}).Then("binary target", func(t *table.Table) (*table.Table, error) {
		return table.Map(t, "target", "target", table.Binarize(0))
	})
	out, _, err := p.Run(df)
	return out, err
}

// HeartPlots are the charts drawn for the heart disease data.
func HeartPlots() []chart.Plan {
	return []chart.Plan{
		{Type: chart.TypeHistogram, File: "age_distribution.png", Title: "Age Distribution of Patients", X: "age", Bins: 20},
		{Type: chart.TypeBox, File: "chol_by_target.png", Title: "Cholesterol Levels by Heart Disease Status", X: "target", Y: []string{"chol"}},
		{Type: chart.TypeScatter, File: "age_vs_chol.png", Title: "Age vs Cholesterol by Heart Disease Status", X: "age", Y: []string{"chol"}, Hue: "target"},
		{Type: chart.TypeHeatmap, File: "correlation.png", Title: "Correlation Matrix of Numerical Features", Y: []string{"age", "trestbps", "chol", "thalach", "oldpeak", "ca"}},
		{Type: chart.TypeCount, File: "disease_by_cp.png", Title: "Heart Disease by Chest Pain Type", X: "cp", Hue: "target"},
	}
}
