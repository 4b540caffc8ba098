package model

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// OLS is ordinary least squares with an intercept, solved by QR
// factorization.
type OLS struct {
	Coef      []float64
	Intercept float64
}

// Fit solves min ||[1 X]b - y||.
func (m *OLS) Fit(ctx context.Context, X mat.Matrix, y []float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if X == nil {
		return ErrNoRows
	}
	n, p := X.Dims()
	if n == 0 {
		return ErrNoRows
	}
	if n != len(y) {
		return fmt.Errorf("ols: %d rows but %d targets", n, len(y))
	}
	if n < p+1 {
		return fmt.Errorf("ols: %d rows cannot determine %d coefficients", n, p+1)
	}
	a := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		a.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			a.Set(i, j+1, X.At(i, j))
		}
	}
	var beta mat.VecDense
	if err := beta.SolveVec(a, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		return fmt.Errorf("ols: %w", err)
	}
	m.Intercept = beta.AtVec(0)
	m.Coef = make([]float64, p)
	for j := range m.Coef {
		m.Coef[j] = beta.AtVec(j + 1)
	}
	return nil
}

// Predict evaluates the fitted hyperplane.
func (m *OLS) Predict(X mat.Matrix) ([]float64, error) {
	if m.Coef == nil {
		return nil, errors.New("ols: not fitted")
	}
	n, p := X.Dims()
	if p != len(m.Coef) {
		return nil, fmt.Errorf("ols: %d features, want %d", p, len(m.Coef))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		s := m.Intercept
		for j, c := range m.Coef {
			s += c * X.At(i, j)
		}
		out[i] = s
	}
	return out, nil
}
