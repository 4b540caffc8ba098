package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Sentinel is an in-band "not recorded" value that disqualifies a row, such
// as CO(GT) == -200 in the UCI air quality data.
type Sentinel struct {
	Column string
	Value  Value
}

// CleanRules lists the cleaning actions applied by Clean, in field order.
type CleanRules struct {
	// MissingMarkers are text cells treated as Missing (e.g. "?").
	MissingMarkers []string
	// DropEmptyColumns removes columns without a single non-missing value.
	DropEmptyColumns bool
	// DropMissing removes rows with a missing value in any of these columns.
	DropMissing []string
	// DropAnyMissing removes rows with a missing value in any column.
	DropAnyMissing bool
	// Sentinels removes rows where a column equals a sentinel value.
	Sentinels []Sentinel
	// Coerce converts text cells of these columns to numbers.
	Coerce []string
	// Strict makes a non-numeric cell during coercion fail the whole
	// operation; otherwise the row is dropped.
	Strict bool
}

// Clean applies rules to t. Coercion runs first so sentinel and missing
// checks see the numeric values.
func Clean(t *Table, rules CleanRules) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	out := t
	var err error
	if len(rules.MissingMarkers) > 0 {
		out = replaceMarkers(out, rules.MissingMarkers)
	}
	if len(rules.Coerce) > 0 {
		if out, err = coerce(out, rules.Coerce, rules.Strict); err != nil {
			return nil, err
		}
	}
	if rules.DropEmptyColumns {
		out = dropEmptyColumns(out)
	}
	if rules.DropAnyMissing {
		if out, err = DropMissing(out, out.Columns()...); err != nil {
			return nil, err
		}
	} else if len(rules.DropMissing) > 0 {
		if out, err = DropMissing(out, rules.DropMissing...); err != nil {
			return nil, err
		}
	}
	for _, s := range rules.Sentinels {
		if out, err = Filter(out, Ne(s.Column, s.Value)); err != nil {
			return nil, fmt.Errorf("drop sentinel %s == %s: %w", s.Column, s.Value, err)
		}
	}
	return out, nil
}

// DropMissing removes every row with a missing value in one of cols.
func DropMissing(t *Table, cols ...string) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	idx := make([]int, len(cols))
	for i, name := range cols {
		c, err := t.colIndex(name)
		if err != nil {
			return nil, err
		}
		idx[i] = c
	}
	keep := make([]int, 0, t.rows)
rows:
	for r := 0; r < t.rows; r++ {
		for _, c := range idx {
			if t.cols[c][r].IsMissing() {
				continue rows
			}
		}
		keep = append(keep, r)
	}
	return t.take(keep), nil
}

func replaceMarkers(t *Table, markers []string) *Table {
	set := make(map[string]bool, len(markers))
	for _, m := range markers {
		set[m] = true
	}
	cols := make([][]Value, len(t.cols))
	for c, col := range t.cols {
		var changed []Value
		for r, v := range col {
			s, ok := v.Str()
			if !ok || !set[strings.TrimSpace(s)] {
				continue
			}
			if changed == nil {
				changed = append([]Value(nil), col...)
			}
			changed[r] = Missing()
		}
		if changed == nil {
			cols[c] = col
		} else {
			cols[c] = changed
		}
	}
	out, _ := newOwned(t.Columns(), cols, t.index)
	out.rows = t.rows
	return out
}

func dropEmptyColumns(t *Table) *Table {
	var keep []string
	for c, f := range t.schema {
		for _, v := range t.cols[c] {
			if !v.IsMissing() {
				keep = append(keep, f.Name)
				break
			}
		}
	}
	out, _ := Subset(t, keep)
	return out
}

// coerce parses text cells of cols as numbers. In strict mode the first
// failure is returned; otherwise failing rows are dropped.
func coerce(t *Table, cols []string, strict bool) (*Table, error) {
	bad := map[int]bool{}
	out := t
	for _, name := range cols {
		c, err := out.colIndex(name)
		if err != nil {
			return nil, err
		}
		col := make([]Value, out.rows)
		for r, v := range out.cols[c] {
			s, isText := v.Str()
			if !isText {
				col[r] = v
				continue
			}
			n, ok := ParseNumber(s)
			if !ok {
				if strict {
					return nil, &TypeMismatchError{Column: name, Row: r, Value: v, Want: "numeric"}
				}
				bad[r] = true
				continue
			}
			col[r] = n
		}
		widenInts(col)
		if out, err = out.WithColumn(name, col); err != nil {
			return nil, err
		}
	}
	if len(bad) == 0 {
		return out, nil
	}
	keep := make([]int, 0, out.rows-len(bad))
	for r := 0; r < out.rows; r++ {
		if !bad[r] {
			keep = append(keep, r)
		}
	}
	return out.take(keep), nil
}

// widenInts turns every Int into a Float when the column also holds floats.
func widenInts(col []Value) {
	hasFloat := false
	for _, v := range col {
		if v.Kind() == KindFloat {
			hasFloat = true
			break
		}
	}
	if !hasFloat {
		return
	}
	for r, v := range col {
		if v.Kind() == KindInt {
			f, _ := v.Float()
			col[r] = Float(f)
		}
	}
}

// ParseNumber parses s as an Int when integral, otherwise a Float. Blank
// input is Missing.
func ParseNumber(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing(), true
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f), true
	}
	return Value{}, false
}
