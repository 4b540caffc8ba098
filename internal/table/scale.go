package table

import (
	"gonum.org/v1/gonum/stat"
)

// ScaleOptions configures Scale.
type ScaleOptions struct {
	// Suffix, when set, writes each scaled column as a new column named
	// column+Suffix and keeps the original.
	Suffix string
}

// Scale standardizes each column to zero mean and unit variance using the
// population standard deviation over the column's non-missing values. A
// column with zero deviation scales to 0 everywhere it has a value.
func Scale(t *Table, cols []string, opt ScaleOptions) (*Table, error) {
	params, err := ScaleStats(t, cols)
	if err != nil {
		return nil, err
	}
	return ScaleWith(t, params, opt)
}

// ScaleWith standardizes columns with precomputed statistics, e.g. those of
// a training split applied to its test split.
func ScaleWith(t *Table, params []ScaleParams, opt ScaleOptions) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	out := t
	for _, p := range params {
		src, err := t.Column(p.Column)
		if err != nil {
			return nil, err
		}
		scaled := make([]Value, len(src))
		for r, v := range src {
			if v.IsMissing() {
				continue
			}
			f, ok := v.Float()
			if !ok {
				return nil, &TypeMismatchError{Column: p.Column, Row: r, Value: v, Want: "numeric"}
			}
			if p.Std == 0 {
				scaled[r] = Float(0)
				continue
			}
			scaled[r] = Float((f - p.Mean) / p.Std)
		}
		if out, err = out.WithColumn(p.Column+opt.Suffix, scaled); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ScaleParams are the statistics Scale used for one column.
type ScaleParams struct {
	Column string
	Mean   float64
	Std    float64
}

// ScaleStats returns the population mean and standard deviation Scale would
// apply to each column.
func ScaleStats(t *Table, cols []string) ([]ScaleParams, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	out := make([]ScaleParams, 0, len(cols))
	for _, name := range cols {
		vals, err := numericValues(t, name)
		if err != nil {
			return nil, err
		}
		p := ScaleParams{Column: name}
		if len(vals) > 0 {
			p.Mean, p.Std = stat.PopMeanStdDev(vals, nil)
		}
		out = append(out, p)
	}
	return out, nil
}
