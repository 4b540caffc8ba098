package table

import (
	"fmt"
	"math"
	"sort"
)

var nan = math.NaN()

// Bound is one side of a clip range: none, a fixed value, or a quantile of
// the column's own distribution.
type Bound struct {
	set      bool
	value    float64
	quantile float64
	isQ      bool
}

func Unbounded() Bound           { return Bound{} }
func Fixed(v float64) Bound      { return Bound{set: true, value: v} }
func AtQuantile(q float64) Bound { return Bound{set: true, quantile: q, isQ: true} }

func (b Bound) IsSet() bool      { return b.set }
func (b Bound) IsQuantile() bool { return b.isQ }

func (b Bound) String() string {
	switch {
	case !b.set:
		return "none"
	case b.isQ:
		return fmt.Sprintf("q%g", b.quantile)
	default:
		return fmt.Sprintf("%g", b.value)
	}
}

// resolve turns a quantile bound into a value using sorted column data.
func (b Bound) resolve(sorted []float64) float64 {
	if b.isQ {
		return QuantileSorted(sorted, b.quantile)
	}
	return b.value
}

// Quantile returns the q-quantile of the non-missing values of column using
// linear interpolation between closest ranks.
func Quantile(t *Table, column string, q float64) (float64, error) {
	if t == nil {
		return 0, ErrNilTable
	}
	if q < 0 || q > 1 {
		return 0, fmt.Errorf("quantile %v not in [0,1]", q)
	}
	vals, err := numericValues(t, column)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("quantile of %q: %w", column, ErrEmptyGroup)
	}
	sort.Float64s(vals)
	return QuantileSorted(vals, q), nil
}

// Clip limits column to [lower, upper]. Quantile bounds are computed from the
// column before any value is replaced. The column becomes float; missing
// values stay missing.
func Clip(t *Table, column string, lower, upper Bound) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	vals, err := numericValues(t, column)
	if err != nil {
		return nil, err
	}
	sort.Float64s(vals)
	if (lower.isQ || upper.isQ) && len(vals) == 0 {
		return nil, fmt.Errorf("clip %q: %w", column, ErrEmptyGroup)
	}
	lo, hi := math.Inf(-1), math.Inf(1)
	if lower.set {
		lo = lower.resolve(vals)
	}
	if upper.set {
		hi = upper.resolve(vals)
	}
	if lo > hi {
		return nil, fmt.Errorf("clip %q: lower bound %g above upper bound %g", column, lo, hi)
	}

	col, _ := t.Column(column)
	out := make([]Value, len(col))
	for r, v := range col {
		if v.IsMissing() {
			continue
		}
		f, _ := v.Float()
		out[r] = Float(math.Min(math.Max(f, lo), hi))
	}
	return t.WithColumn(column, out)
}

// numericValues returns the non-missing values of column as float64.
func numericValues(t *Table, column string) ([]float64, error) {
	c, err := t.colIndex(column)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, 0, t.rows)
	for r, v := range t.cols[c] {
		if v.IsMissing() {
			continue
		}
		f, ok := v.Float()
		if !ok {
			return nil, &TypeMismatchError{Column: column, Row: r, Value: v, Want: "numeric"}
		}
		vals = append(vals, f)
	}
	return vals, nil
}

// QuantileSorted is the linear-interpolation quantile of already sorted
// values; q outside [0,1] is clamped and empty input yields 0.
func QuantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
