package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KaramelBytes/edakit/internal/chart"
	"github.com/KaramelBytes/edakit/internal/model"
	"github.com/KaramelBytes/edakit/internal/table"
)

// Value converts a decoded YAML scalar into a cell value.
func Value(v any) (table.Value, error) {
	switch x := v.(type) {
	case nil:
		return table.Missing(), nil
	case int:
		return table.Int(int64(x)), nil
	case int64:
		return table.Int(x), nil
	case uint64:
		return table.Int(int64(x)), nil
	case float64:
		return table.Float(x), nil
	case string:
		return table.Text(x), nil
	case bool:
		return table.Bool(x), nil
	}
	return table.Missing(), fmt.Errorf("unsupported literal %v (%T)", v, v)
}

func (c Condition) predicate() (table.Predicate, error) {
	v, err := Value(c.Value)
	if err != nil {
		return nil, fmt.Errorf("where %s: %w", c.Column, err)
	}
	switch c.Op {
	case "==":
		return table.Eq(c.Column, v), nil
	case "!=":
		return table.Ne(c.Column, v), nil
	case ">":
		return table.Gt(c.Column, v), nil
	case ">=":
		return table.Ge(c.Column, v), nil
	case "<":
		return table.Lt(c.Column, v), nil
	case "<=":
		return table.Le(c.Column, v), nil
	}
	return nil, fmt.Errorf("unsupported operator %q", c.Op)
}

func (b *Bound) bound() table.Bound {
	switch {
	case b == nil:
		return table.Unbounded()
	case b.Quantile != nil:
		return table.AtQuantile(*b.Quantile)
	case b.Value != nil:
		return table.Fixed(*b.Value)
	}
	return table.Unbounded()
}

func (s Step) cleanRules() (table.CleanRules, error) {
	rules := table.CleanRules{
		MissingMarkers:   s.MissingMarkers,
		DropEmptyColumns: s.DropEmptyColumns,
		DropMissing:      s.DropMissing,
		DropAnyMissing:   s.DropAnyMissing,
		Coerce:           s.Coerce,
		Strict:           s.Strict,
	}
	for _, m := range s.Sentinels {
		col, _ := m["column"].(string)
		if col == "" {
			return rules, fmt.Errorf("sentinel without column")
		}
		v, err := Value(m["value"])
		if err != nil {
			return rules, fmt.Errorf("sentinel %s: %w", col, err)
		}
		rules.Sentinels = append(rules.Sentinels, table.Sentinel{Column: col, Value: v})
	}
	return rules, nil
}

// apply builds the transformation for one step. others holds the named
// secondary inputs used by join.
func (s Step) apply(others map[string]*table.Table) (func(*table.Table) (*table.Table, error), error) {
	switch s.Op {
	case "subset":
		return func(t *table.Table) (*table.Table, error) { return table.Subset(t, s.Columns) }, nil
	case "filter":
		preds := make([]table.Predicate, 0, len(s.Where))
		for _, c := range s.Where {
			p, err := c.predicate()
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		}
		pred := table.And(preds...)
		return func(t *table.Table) (*table.Table, error) { return table.Filter(t, pred) }, nil
	case "clean":
		rules, err := s.cleanRules()
		if err != nil {
			return nil, err
		}
		return func(t *table.Table) (*table.Table, error) { return table.Clean(t, rules) }, nil
	case "sort":
		opt := table.SortOptions{Descending: s.Descending}
		switch s.Missing {
		case "first":
			opt.Missing = table.MissingFirst
		case "last":
			opt.Missing = table.MissingLast
		}
		return func(t *table.Table) (*table.Table, error) { return table.Sort(t, s.Column, opt) }, nil
	case "scale":
		opt := table.ScaleOptions{Suffix: s.Suffix}
		return func(t *table.Table) (*table.Table, error) {
			params, err := table.ScaleStats(t, s.Columns)
			if err != nil {
				return nil, err
			}
			for _, p := range params {
				slog.Debug("scale", slog.String("column", p.Column), slog.Float64("mean", p.Mean), slog.Float64("std", p.Std))
			}
			return table.ScaleWith(t, params, opt)
		}, nil
	case "clip":
		lo, hi := s.Lower.bound(), s.Upper.bound()
		return func(t *table.Table) (*table.Table, error) { return table.Clip(t, s.Column, lo, hi) }, nil
	case "onehot":
		opt := table.OneHotOptions{DropFirst: s.DropFirst, Prefix: s.Prefix, Separator: s.Separator}
		return func(t *table.Table) (*table.Table, error) { return table.OneHotEncode(t, s.Columns, opt) }, nil
	case "head":
		n := s.N
		if n == 0 {
			n = 5
		}
		return func(t *table.Table) (*table.Table, error) { return t.Head(n), nil }, nil
	case "slice":
		return func(t *table.Table) (*table.Table, error) { return t.Slice(s.Start, s.End), nil }, nil
	case "transpose":
		return table.Transpose, nil
	case "pivot":
		agg, err := table.ParseAggregator(s.Agg)
		if err != nil {
			return nil, err
		}
		spec := table.PivotSpec{RowKey: s.Index, ColKey: s.Pivot, Value: s.Values, Agg: agg}
		return func(t *table.Table) (*table.Table, error) { return table.Pivot(t, spec) }, nil
	case "group":
		agg, err := table.ParseAggregator(s.Agg)
		if err != nil {
			return nil, err
		}
		spec := table.GroupSpec{Keys: s.Keys, Value: s.Values, Agg: agg, As: s.As}
		return func(t *table.Table) (*table.Table, error) { return table.GroupBy(t, spec) }, nil
	case "join":
		right, ok := others[s.With]
		if !ok {
			return nil, fmt.Errorf("unknown input %q", s.With)
		}
		return func(t *table.Table) (*table.Table, error) { return table.InnerJoin(t, right, s.On) }, nil
	case "drop":
		return func(t *table.Table) (*table.Table, error) { return t.Drop(s.Columns...) }, nil
	case "rename":
		return func(t *table.Table) (*table.Table, error) { return t.Rename(s.Column, s.As) }, nil
	case "binarize":
		as := s.As
		if as == "" {
			as = s.Column
		}
		fn := table.Binarize(s.Threshold)
		return func(t *table.Table) (*table.Table, error) { return table.Map(t, s.Column, as, fn) }, nil
	case "rownumber":
		start := int64(s.Start)
		return func(t *table.Table) (*table.Table, error) { return table.WithRowNumber(t, s.As, start) }, nil
	case "dateparts":
		parts := make([]table.DatePart, 0, len(s.Parts))
		for _, p := range s.Parts {
			parts = append(parts, table.DatePart(p))
		}
		if len(parts) == 0 {
			parts = []table.DatePart{table.Year, table.Month, table.Day}
		}
		layout := s.Layout
		if layout == "" {
			layout = time.DateOnly
		}
		return func(t *table.Table) (*table.Table, error) { return table.DateParts(t, s.Column, layout, parts...) }, nil
	}
	return nil, fmt.Errorf("unknown op %q", s.Op)
}

// Compile turns the steps into a pipeline.
func (r *Recipe) Compile(others map[string]*table.Table) (*table.Pipeline, error) {
	p := &table.Pipeline{}
	for i, s := range r.Steps {
		fn, err := s.apply(others)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, s.Op, err)
		}
		p.Then(s.label(i), fn)
	}
	return p, nil
}

// Outcome is everything a recipe execution produced.
type Outcome struct {
	Table  *table.Table
	Steps  []table.StepResult
	Charts []string
	Model  *model.Result
}

// Execute reads the inputs, runs the pipeline, then renders charts into
// chartDir and fits the model when those sections are present.
func (r *Recipe) Execute(ctx context.Context, chartDir string) (*Outcome, error) {
	in, others, err := r.Read()
	if err != nil {
		return nil, err
	}
	p, err := r.Compile(others)
	if err != nil {
		return nil, err
	}
	p.OnStep = func(s table.StepResult, _ *table.Table) {
		slog.Debug("recipe step", "recipe", r.Name, "step", s.Name, "rows", s.Rows, "cols", s.Cols, "took", s.Duration)
	}
	out, steps, err := p.Run(in)
	if err != nil {
		return nil, err
	}
	res := &Outcome{Table: out, Steps: steps}

	if len(r.Charts) > 0 {
		if res.Charts, err = chart.RenderAll(out, r.Charts, chartDir); err != nil {
			return res, err
		}
	}
	if r.Model != nil {
		if res.Model, err = r.Model.fit(ctx, out); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (m *ModelStep) fit(ctx context.Context, t *table.Table) (*model.Result, error) {
	frac := m.TestFraction
	if frac == 0 {
		frac = 0.2
	}
	train, test, err := table.TrainTestSplit(t, m.Target, frac, m.Spec.Seed)
	if err != nil {
		return nil, err
	}
	trainX, trainY, err := model.Design(train, m.Features, m.Target)
	if err != nil {
		return nil, fmt.Errorf("train design: %w", err)
	}
	testX, testY, err := model.Design(test, m.Features, m.Target)
	if err != nil {
		return nil, fmt.Errorf("test design: %w", err)
	}
	return model.FitAndEvaluate(ctx, m.Spec, trainX, trainY, testX, testY)
}
