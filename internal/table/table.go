// Package table holds the in-memory tabular model and the transformation
// steps applied to it. Tables are immutable: every operation returns a new
// Table and never aliases the column storage of its inputs in a way callers
// can observe.
package table

import (
	"fmt"
	"strconv"
)

// Field is one entry of a Schema.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the ordered list of (name, kind) pairs of a Table.
type Schema []Field

// Names returns the field names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Name
	}
	return out
}

// Table is an ordered sequence of equally long named columns.
type Table struct {
	schema Schema
	cols   [][]Value
	pos    map[string]int
	rows   int
	// index holds optional row labels; nil means positional.
	index []string
	// positionalHeader marks column names synthesized from row positions by
	// Transpose, so a second Transpose restores a positional index.
	positionalHeader bool
}

// New builds a table from column names and column data.
func New(names []string, cols [][]Value) (*Table, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("new table: %d names for %d columns", len(names), len(cols))
	}
	t := &Table{
		schema: make(Schema, len(names)),
		cols:   make([][]Value, len(cols)),
		pos:    make(map[string]int, len(names)),
	}
	for i, name := range names {
		if _, dup := t.pos[name]; dup {
			return nil, fmt.Errorf("new table: duplicate column %q", name)
		}
		if i > 0 && len(cols[i]) != len(cols[0]) {
			return nil, fmt.Errorf("new table: column %q has %d rows, want %d", name, len(cols[i]), len(cols[0]))
		}
		t.pos[name] = i
		t.cols[i] = append([]Value(nil), cols[i]...)
		t.schema[i] = Field{Name: name, Kind: inferKind(cols[i])}
	}
	if len(cols) > 0 {
		t.rows = len(cols[0])
	}
	return t, nil
}

// FromRows builds a table from row-major data.
func FromRows(names []string, rows [][]Value) (*Table, error) {
	cols := make([][]Value, len(names))
	for i := range cols {
		cols[i] = make([]Value, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("row %d has %d values, want %d", r, len(row), len(names))
		}
		for c, v := range row {
			cols[c][r] = v
		}
	}
	return New(names, cols)
}

// MustNew is New for literals in tests and fixtures.
func MustNew(names []string, cols [][]Value) *Table {
	t, err := New(names, cols)
	if err != nil {
		panic(err)
	}
	return t
}

// newOwned adopts cols without copying and keeps row labels; callers must
// not retain cols.
func newOwned(names []string, cols [][]Value, index []string) (*Table, error) {
	t := &Table{
		schema: make(Schema, len(names)),
		cols:   cols,
		pos:    make(map[string]int, len(names)),
		index:  index,
	}
	for i, name := range names {
		if _, dup := t.pos[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		t.pos[name] = i
		t.schema[i] = Field{Name: name, Kind: inferKind(cols[i])}
	}
	if len(cols) > 0 {
		t.rows = len(cols[0])
	} else if index != nil {
		t.rows = len(index)
	}
	return t, nil
}

func inferKind(col []Value) Kind {
	kind := KindMissing
	for _, v := range col {
		if v.IsMissing() {
			continue
		}
		switch {
		case kind == KindMissing:
			kind = v.Kind()
		case kind != v.Kind():
			return KindMixed
		}
	}
	return kind
}

func (t *Table) Schema() Schema { return append(Schema(nil), t.schema...) }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return t.schema.Names() }

func (t *Table) NumRows() int { return t.rows }
func (t *Table) NumCols() int { return len(t.schema) }

// Has reports whether the table has a column with this name.
func (t *Table) Has(name string) bool {
	_, ok := t.pos[name]
	return ok
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]Value, error) {
	i, ok := t.pos[name]
	if !ok {
		return nil, &ColumnNotFoundError{Name: name}
	}
	return append([]Value(nil), t.cols[i]...), nil
}

// Floats returns the named column as float64, missing values as NaN.
// Non-numeric values are a type mismatch.
func (t *Table) Floats(name string) ([]float64, error) {
	i, ok := t.pos[name]
	if !ok {
		return nil, &ColumnNotFoundError{Name: name}
	}
	out := make([]float64, t.rows)
	for r, v := range t.cols[i] {
		if v.IsMissing() {
			out[r] = nan
			continue
		}
		f, ok := v.Float()
		if !ok {
			return nil, &TypeMismatchError{Column: name, Row: r, Value: v, Want: "numeric"}
		}
		out[r] = f
	}
	return out, nil
}

// At returns the value at row r of the named column.
func (t *Table) At(r int, name string) (Value, error) {
	i, ok := t.pos[name]
	if !ok {
		return Value{}, &ColumnNotFoundError{Name: name}
	}
	if r < 0 || r >= t.rows {
		return Value{}, fmt.Errorf("row %d out of range [0,%d)", r, t.rows)
	}
	return t.cols[i][r], nil
}

// Row returns a copy of row r in column order.
func (t *Table) Row(r int) []Value {
	out := make([]Value, len(t.cols))
	for c := range t.cols {
		out[c] = t.cols[c][r]
	}
	return out
}

// Index returns the row labels, synthesizing positional labels when unset.
func (t *Table) Index() []string {
	if t.index != nil {
		return append([]string(nil), t.index...)
	}
	return positional(t.rows)
}

// WithIndex returns a copy of t labelled by the given row labels.
func (t *Table) WithIndex(labels []string) (*Table, error) {
	if labels != nil && len(labels) != t.rows {
		return nil, fmt.Errorf("index has %d labels for %d rows", len(labels), t.rows)
	}
	out := t.clone()
	out.index = append([]string(nil), labels...)
	if labels == nil {
		out.index = nil
	}
	return out, nil
}

// Equal reports whether two tables have the same names, labels and values.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.rows != o.rows || len(t.schema) != len(o.schema) || t.positionalHeader != o.positionalHeader {
		return false
	}
	if (t.index == nil) != (o.index == nil) {
		return false
	}
	for i := range t.index {
		if t.index[i] != o.index[i] {
			return false
		}
	}
	for c := range t.schema {
		if t.schema[c].Name != o.schema[c].Name {
			return false
		}
		for r := range t.cols[c] {
			if !t.cols[c][r].Equal(o.cols[c][r]) {
				return false
			}
		}
	}
	return true
}

// WithColumn returns a copy of t with the column added at the end, or
// replaced in place when the name already exists.
func (t *Table) WithColumn(name string, vals []Value) (*Table, error) {
	if len(t.schema) > 0 && len(vals) != t.rows {
		return nil, fmt.Errorf("column %q has %d rows, want %d", name, len(vals), t.rows)
	}
	names := t.Columns()
	cols := make([][]Value, len(t.cols), len(t.cols)+1)
	copy(cols, t.cols)
	if i, ok := t.pos[name]; ok {
		cols[i] = append([]Value(nil), vals...)
	} else {
		names = append(names, name)
		cols = append(cols, append([]Value(nil), vals...))
	}
	return newOwned(names, cols, t.index)
}

// Drop returns a copy of t without the named columns.
func (t *Table) Drop(names ...string) (*Table, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		if !t.Has(n) {
			return nil, &ColumnNotFoundError{Name: n}
		}
		drop[n] = true
	}
	var keep []string
	for _, n := range t.Columns() {
		if !drop[n] {
			keep = append(keep, n)
		}
	}
	return Subset(t, keep)
}

// Rename returns a copy of t with column old renamed to name.
func (t *Table) Rename(old, name string) (*Table, error) {
	i, ok := t.pos[old]
	if !ok {
		return nil, &ColumnNotFoundError{Name: old}
	}
	names := t.Columns()
	names[i] = name
	return newOwned(names, append([][]Value(nil), t.cols...), t.index)
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n > t.rows {
		n = t.rows
	}
	if n < 0 {
		n = 0
	}
	return t.Slice(0, n)
}

// Slice returns rows [start, end) by position.
func (t *Table) Slice(start, end int) *Table {
	if start < 0 {
		start = 0
	}
	if end > t.rows {
		end = t.rows
	}
	if start > end {
		start = end
	}
	idx := make([]int, 0, end-start)
	for r := start; r < end; r++ {
		idx = append(idx, r)
	}
	return t.take(idx)
}

// take returns the rows at the given positions, in that order.
func (t *Table) take(rows []int) *Table {
	cols := make([][]Value, len(t.cols))
	for c := range t.cols {
		col := make([]Value, len(rows))
		for i, r := range rows {
			col[i] = t.cols[c][r]
		}
		cols[c] = col
	}
	var index []string
	if t.index != nil {
		index = make([]string, len(rows))
		for i, r := range rows {
			index[i] = t.index[r]
		}
	}
	out, _ := newOwned(t.Columns(), cols, index)
	out.rows = len(rows)
	out.positionalHeader = t.positionalHeader
	return out
}

func (t *Table) clone() *Table {
	out, _ := newOwned(t.Columns(), append([][]Value(nil), t.cols...), t.index)
	out.rows = t.rows
	out.positionalHeader = t.positionalHeader
	return out
}

func (t *Table) colIndex(name string) (int, error) {
	i, ok := t.pos[name]
	if !ok {
		return 0, &ColumnNotFoundError{Name: name}
	}
	return i, nil
}

func positional(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

// uniqueName returns name, or name_2, name_3, ... when taken reports the
// plain name as used.
func uniqueName(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		c := name + "_" + strconv.Itoa(i)
		if !taken(c) {
			return c
		}
	}
}
