package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/edakit/internal/table"
)

// ErrNoRows is returned when a design matrix would have no rows.
var ErrNoRows = errors.New("no rows to model")

// Design assembles the feature matrix and target vector from t. Every
// feature and the target must be numeric and non-missing.
func Design(t *table.Table, features []string, target string) (*mat.Dense, []float64, error) {
	if t == nil {
		return nil, nil, table.ErrNilTable
	}
	if len(features) == 0 {
		return nil, nil, errors.New("no feature columns")
	}
	if t.NumRows() == 0 {
		return nil, nil, ErrNoRows
	}
	n, p := t.NumRows(), len(features)
	data := make([]float64, n*p)
	for j, name := range features {
		if name == target {
			return nil, nil, fmt.Errorf("target %q listed as a feature", target)
		}
		col, err := numericColumn(t, name)
		if err != nil {
			return nil, nil, err
		}
		for i, v := range col {
			data[i*p+j] = v
		}
	}
	y, err := numericColumn(t, target)
	if err != nil {
		return nil, nil, err
	}
	return mat.NewDense(n, p, data), y, nil
}

func numericColumn(t *table.Table, name string) ([]float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(col))
	for i, v := range col {
		f, ok := v.Float()
		if v.IsMissing() || !ok {
			return nil, &table.TypeMismatchError{Column: name, Row: i, Value: v, Want: "non-missing numeric"}
		}
		out[i] = f
	}
	return out, nil
}
