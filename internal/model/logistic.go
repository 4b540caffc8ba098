package model

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Logistic is binary logistic regression trained by full-batch gradient
// descent. Features are standardized internally with the training mean and
// standard deviation; labels must be 0 or 1.
type Logistic struct {
	LearningRate float64
	Epochs       int

	W    []float64
	B    float64
	mean []float64
	std  []float64
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

// Fit learns the weights.
func (m *Logistic) Fit(ctx context.Context, X mat.Matrix, y []float64) error {
	rows := denseRows(X)
	n := len(rows)
	if n == 0 {
		return ErrNoRows
	}
	if n != len(y) {
		return fmt.Errorf("logistic: %d rows but %d targets", n, len(y))
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("logistic: label %v at row %d is not 0 or 1", v, i)
		}
	}
	if m.LearningRate <= 0 || m.Epochs <= 0 {
		return errors.New("logistic: learning rate and epochs must be positive")
	}
	p := len(rows[0])
	m.mean, m.std = make([]float64, p), make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range rows {
			col[i] = rows[i][j]
		}
		mu, sd := stat.MeanStdDev(col, nil)
		if sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		m.mean[j], m.std[j] = mu, sd
	}
	z := make([][]float64, n)
	for i, r := range rows {
		z[i] = m.standardize(r)
	}

	m.W = make([]float64, p)
	m.B = 0
	grad := make([]float64, p)
	for epoch := 0; epoch < m.Epochs; epoch++ {
		if epoch%100 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for j := range grad {
			grad[j] = 0
		}
		var gb float64
		for i, r := range z {
			e := m.linear(r) - y[i]
			for j, v := range r {
				grad[j] += e * v
			}
			gb += e
		}
		scale := m.LearningRate / float64(n)
		for j := range m.W {
			m.W[j] -= scale * grad[j]
		}
		m.B -= scale * gb
	}
	return nil
}

func (m *Logistic) standardize(r []float64) []float64 {
	out := make([]float64, len(r))
	for j, v := range r {
		out[j] = (v - m.mean[j]) / m.std[j]
	}
	return out
}

func (m *Logistic) linear(z []float64) float64 {
	s := m.B
	for j, v := range z {
		s += m.W[j] * v
	}
	return sigmoid(s)
}

// PredictProba returns P(y=1) for each row.
func (m *Logistic) PredictProba(X mat.Matrix) ([]float64, error) {
	if m.W == nil {
		return nil, errors.New("logistic: not fitted")
	}
	rows := denseRows(X)
	out := make([]float64, len(rows))
	for i, r := range rows {
		if len(r) != len(m.W) {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(r), len(m.W))
		}
		out[i] = m.linear(m.standardize(r))
	}
	return out, nil
}

// Predict thresholds the probabilities at 0.5.
func (m *Logistic) Predict(X mat.Matrix) ([]float64, error) {
	probs, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	for i, p := range probs {
		if p >= 0.5 {
			probs[i] = 1
		} else {
			probs[i] = 0
		}
	}
	return probs, nil
}
