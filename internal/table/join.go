package table

import (
	"fmt"
	"log/slog"
)

// RightSuffix is appended to right-hand non-key columns whose name already
// exists on the left side of a join.
const RightSuffix = "_right"

// InnerJoin is a hash equi-join on the column named on. Matching pairs are
// emitted in left row order, then right row order within a key group; rows
// with a missing key never match. Output columns are the left columns followed by the
// right non-key columns.
func InnerJoin(left, right *Table, on string) (*Table, error) {
	if left == nil || right == nil {
		return nil, ErrNilTable
	}
	lk, ok := left.pos[on]
	if !ok {
		return nil, &MissingKeyError{Key: on, Side: "left"}
	}
	rk, ok := right.pos[on]
	if !ok {
		return nil, &MissingKeyError{Key: on, Side: "right"}
	}

	// Build on the right side.
	index := make(map[key][]int, right.rows)
	for r, v := range right.cols[rk] {
		if v.IsMissing() {
			continue
		}
		k := v.key()
		index[k] = append(index[k], r)
	}

	var lrows, rrows []int
	for r, v := range left.cols[lk] {
		if v.IsMissing() {
			continue
		}
		for _, m := range index[v.key()] {
			lrows = append(lrows, r)
			rrows = append(rrows, m)
		}
	}

	names := left.Columns()
	cols := make([][]Value, 0, len(names)+len(right.cols)-1)
	for c := range left.cols {
		cols = append(cols, gather(left.cols[c], lrows))
	}
	for c, f := range right.schema {
		if c == rk {
			continue
		}
		name := f.Name
		if left.Has(name) {
			name += RightSuffix
		}
		names = append(names, name)
		cols = append(cols, gather(right.cols[c], rrows))
	}
	out, err := newOwned(names, cols, nil)
	if err != nil {
		return nil, fmt.Errorf("inner join on %q: %w", on, err)
	}
	out.rows = len(lrows)
	slog.Debug("inner join",
		slog.String("key", on),
		slog.Int("left_rows", left.rows),
		slog.Int("right_rows", right.rows),
		slog.Int("joined_rows", out.rows),
	)
	return out, nil
}

func gather(col []Value, rows []int) []Value {
	out := make([]Value, len(rows))
	for i, r := range rows {
		out[i] = col[r]
	}
	return out
}
