package table

import "fmt"

// Transpose swaps rows and columns. Column names become row labels and row
// labels become column names; a table without row labels gets positional
// names "0".."n-1", and that fact is kept so Transpose(Transpose(t))
// equals t.
func Transpose(t *Table) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	names := t.Index()
	cols := make([][]Value, t.rows)
	for r := range cols {
		col := make([]Value, len(t.cols))
		for c := range t.cols {
			col[c] = t.cols[c][r]
		}
		cols[r] = col
	}
	var index []string
	if !t.positionalHeader {
		index = t.Columns()
	}
	out, err := newOwned(names, cols, index)
	if err != nil {
		return nil, fmt.Errorf("transpose: %w", err)
	}
	out.rows = len(t.cols)
	out.positionalHeader = t.index == nil
	return out, nil
}

// DescribeShape returns (rows, columns).
func DescribeShape(t *Table) (int, int, error) {
	if t == nil {
		return 0, 0, ErrNilTable
	}
	return t.rows, len(t.schema), nil
}
