package table

import (
	"fmt"
	"strings"
	"time"
)

// Map replaces column with fn applied to every value, or writes the result
// to a new column when as names one. fn errors abort the whole operation.
func Map(t *Table, column, as string, fn func(Value) (Value, error)) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	src, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(src))
	for r, v := range src {
		if out[r], err = fn(v); err != nil {
			return nil, fmt.Errorf("map %q row %d: %w", column, r, err)
		}
	}
	if as == "" {
		as = column
	}
	return t.WithColumn(as, out)
}

// Binarize maps numeric values greater than threshold to 1 and the rest to
// 0; missing stays missing.
func Binarize(threshold float64) func(Value) (Value, error) {
	return func(v Value) (Value, error) {
		if v.IsMissing() {
			return v, nil
		}
		f, ok := v.Float()
		if !ok {
			return Value{}, fmt.Errorf("binarize %s value %q: %w", v.Kind(), v.String(), ErrTypeMismatch)
		}
		if f > threshold {
			return Int(1), nil
		}
		return Int(0), nil
	}
}

// WithRowNumber appends an Int column numbering rows from start.
func WithRowNumber(t *Table, name string, start int64) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	col := make([]Value, t.rows)
	for r := range col {
		col[r] = Int(start + int64(r))
	}
	return t.WithColumn(name, col)
}

// DatePart selects a calendar component extracted by DateParts.
type DatePart string

const (
	Year    DatePart = "year"
	Month   DatePart = "month"
	Day     DatePart = "day"
	Weekday DatePart = "weekday"
	Hour    DatePart = "hour"
)

// DateParts parses column with a Go time layout and appends one Int column
// per part, named after the title-cased part ("Year", "Month"). Values that
// do not parse are a type mismatch.
func DateParts(t *Table, column, layout string, parts ...DatePart) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	src, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	cols := make([][]Value, len(parts))
	for i := range cols {
		cols[i] = make([]Value, len(src))
	}
	for r, v := range src {
		if v.IsMissing() {
			continue
		}
		ts, err := time.Parse(layout, strings.TrimSpace(v.String()))
		if err != nil {
			return nil, &TypeMismatchError{Column: column, Row: r, Value: v, Want: "date " + layout}
		}
		for i, p := range parts {
			n, err := datePart(ts, p)
			if err != nil {
				return nil, err
			}
			cols[i][r] = Int(n)
		}
	}
	out := t
	for i, p := range parts {
		name := strings.ToUpper(string(p[:1])) + string(p[1:])
		if out, err = out.WithColumn(name, cols[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func datePart(ts time.Time, p DatePart) (int64, error) {
	switch p {
	case Year:
		return int64(ts.Year()), nil
	case Month:
		return int64(ts.Month()), nil
	case Day:
		return int64(ts.Day()), nil
	case Weekday:
		return int64(ts.Weekday()), nil
	case Hour:
		return int64(ts.Hour()), nil
	}
	return 0, fmt.Errorf("unknown date part %q", string(p))
}
