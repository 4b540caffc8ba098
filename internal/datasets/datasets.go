// Package datasets holds the pipelines for the bundled example datasets:
// Facebook metrics, UCI air quality, UCI heart disease and the Montesinho
// forest fires. Each pipeline is a thin parameterization of the table
// operations; callers load the input, run the pipeline and persist the
// sections of the returned Report.
package datasets

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/KaramelBytes/edakit/internal/model"
	"github.com/KaramelBytes/edakit/internal/table"
)

// PreviewRows is the number of rows shown per section.
const PreviewRows = 5

// Section is one intermediate or final table worth showing and saving.
type Section struct {
	Name    string
	Title   string
	Table   *table.Table
	Preview []string // columns shown in the preview; empty means all
}

// Report collects the output of a dataset pipeline.
type Report struct {
	Dataset  string
	Sections []Section
	Notes    []string
	Steps    []table.StepResult
	Model    *model.Result
}

func (r *Report) add(name, title string, t *table.Table, preview ...string) {
	r.Sections = append(r.Sections, Section{Name: name, Title: title, Table: t, Preview: preview})
}

func (r *Report) note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// Section returns the named section, or nil.
func (r *Report) Section(name string) *Section {
	for i := range r.Sections {
		if r.Sections[i].Name == name {
			return &r.Sections[i]
		}
	}
	return nil
}

// Markdown renders every section preview, the notes and the model score.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Dataset)
	for _, s := range r.Sections {
		fmt.Fprintf(&b, "## %s\n\n", s.Title)
		t := s.Table
		if len(s.Preview) > 0 {
			if sub, err := table.Subset(t, s.Preview); err == nil {
				t = sub
			}
		}
		b.WriteString(t.Markdown(PreviewRows))
		b.WriteString("\n")
	}
	for _, n := range r.Notes {
		b.WriteString(n)
		b.WriteString("\n\n")
	}
	if r.Model != nil {
		fmt.Fprintf(&b, "## Model\n\n%s\n", r.Model)
		if n := len(r.Model.Predictions); n > 0 {
			fmt.Fprintf(&b, "\nSample predictions: %v\n", r.Model.Predictions[:min(n, PreviewRows)])
		}
	}
	return b.String()
}

// ModelOptions controls the train/test split and the estimator.
type ModelOptions struct {
	Spec         model.Spec
	TestFraction float64
	// Skip disables model fitting.
	Skip bool
}

func (o ModelOptions) withDefaults(kind model.Kind) ModelOptions {
	if o.Spec.Kind == "" {
		o.Spec.Kind = kind
	}
	if o.Spec.NEstimators == 0 {
		o.Spec.NEstimators = 100
	}
	if o.TestFraction == 0 {
		o.TestFraction = 0.2
	}
	return o
}

func fitModel(ctx context.Context, t *table.Table, features []string, target string, o ModelOptions) (*model.Result, error) {
	train, test, err := table.TrainTestSplit(t, target, o.TestFraction, o.Spec.Seed)
	if err != nil {
		return nil, err
	}
	trainX, trainY, err := model.Design(train, features, target)
	if err != nil {
		return nil, fmt.Errorf("training features: %w", err)
	}
	testX, testY, err := model.Design(test, features, target)
	if err != nil {
		return nil, fmt.Errorf("test features: %w", err)
	}
	return model.FitAndEvaluate(ctx, o.Spec, trainX, trainY, testX, testY)
}

// distinct returns the first n distinct values of col in row order.
func distinct(t *table.Table, col string, n int) ([]table.Value, error) {
	vals, err := t.Column(col)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []table.Value
	for _, v := range vals {
		if v.IsMissing() || seen[v.String()] {
			continue
		}
		seen[v.String()] = true
		out = append(out, v)
		if len(out) == n {
			break
		}
	}
	return out, nil
}

func uniform(rng *rand.Rand, n int, lo, hi float64) []table.Value {
	out := make([]table.Value, n)
	for i := range out {
		out[i] = table.Float(lo + (hi-lo)*rng.Float64())
	}
	return out
}
