package table

import "sort"

// MissingPlacement decides where missing values go in a sort.
type MissingPlacement int

const (
	// MissingDefault follows the reference behavior: last when ascending,
	// first when descending.
	MissingDefault MissingPlacement = iota
	MissingLast
	MissingFirst
)

// SortOptions configures Sort.
type SortOptions struct {
	Descending bool
	Missing    MissingPlacement
}

// SortAscending is a stable ascending sort by column; missing values last.
func SortAscending(t *Table, column string) (*Table, error) {
	return Sort(t, column, SortOptions{})
}

// SortDescending is a stable descending sort by column; missing values first.
func SortDescending(t *Table, column string) (*Table, error) {
	return Sort(t, column, SortOptions{Descending: true})
}

// Sort is a stable total-order sort by column. Ties keep their original
// relative order. Incomparable values (e.g. text among numbers) fail with a
// type mismatch.
func Sort(t *Table, column string, opt SortOptions) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	c, err := t.colIndex(column)
	if err != nil {
		return nil, err
	}
	col := t.cols[c]

	missingFirst := opt.Descending
	switch opt.Missing {
	case MissingLast:
		missingFirst = false
	case MissingFirst:
		missingFirst = true
	}

	// Validate comparability up front so the comparator never fails.
	var ref Value
	for r, v := range col {
		if v.IsMissing() {
			continue
		}
		if ref.IsMissing() {
			ref = v
			continue
		}
		if _, err := ref.Compare(v); err != nil {
			return nil, &TypeMismatchError{Column: column, Row: r, Value: v, Want: ref.Kind().String()}
		}
	}

	perm := make([]int, t.rows)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		a, b := col[perm[i]], col[perm[j]]
		switch {
		case a.IsMissing() && b.IsMissing():
			return false
		case a.IsMissing():
			return missingFirst
		case b.IsMissing():
			return !missingFirst
		}
		cmp, _ := a.Compare(b)
		if opt.Descending {
			return cmp > 0
		}
		return cmp < 0
	})
	return t.take(perm), nil
}
