package table

import "fmt"

// Subset projects t onto cols, in the given order. Row order is unchanged.
func Subset(t *Table, cols []string) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	out := make([][]Value, len(cols))
	for i, name := range cols {
		c, err := t.colIndex(name)
		if err != nil {
			return nil, err
		}
		out[i] = t.cols[c]
	}
	res, err := newOwned(cols, out, t.index)
	if err != nil {
		return nil, fmt.Errorf("subset: %w", err)
	}
	res.rows = t.rows
	return res, nil
}

// Row is a read-only view of one row handed to predicates.
type Row struct {
	t *Table
	r int
}

// Position is the row's position in the table being filtered.
func (r Row) Position() int { return r.r }

// Get returns the value of the named column in this row.
func (r Row) Get(name string) (Value, error) {
	return r.t.At(r.r, name)
}

// Float returns the named value as float64; missing and non-numeric values
// are a type mismatch.
func (r Row) Float(name string) (float64, error) {
	v, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	f, ok := v.Float()
	if !ok {
		return 0, &TypeMismatchError{Column: name, Row: r.r, Value: v, Want: "numeric"}
	}
	return f, nil
}

// Predicate decides whether a row survives a Filter.
type Predicate func(Row) (bool, error)

// Filter keeps rows for which pred holds, preserving their order. The first
// predicate error aborts the whole operation.
func Filter(t *Table, pred Predicate) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	keep := make([]int, 0, t.rows)
	for r := 0; r < t.rows; r++ {
		ok, err := pred(Row{t: t, r: r})
		if err != nil {
			return nil, fmt.Errorf("filter row %d: %w", r, err)
		}
		if ok {
			keep = append(keep, r)
		}
	}
	return t.take(keep), nil
}

// Eq matches rows whose column equals v. Int and integral Float compare equal.
func Eq(col string, v Value) Predicate {
	return func(r Row) (bool, error) {
		got, err := r.Get(col)
		if err != nil {
			return false, err
		}
		return got.key() == v.key(), nil
	}
}

// Ne is the negation of Eq; missing values are kept.
func Ne(col string, v Value) Predicate {
	eq := Eq(col, v)
	return func(r Row) (bool, error) {
		ok, err := eq(r)
		return !ok, err
	}
}

func Gt(col string, v Value) Predicate { return cmpPred(col, v, func(c int) bool { return c > 0 }) }
func Ge(col string, v Value) Predicate { return cmpPred(col, v, func(c int) bool { return c >= 0 }) }
func Lt(col string, v Value) Predicate { return cmpPred(col, v, func(c int) bool { return c < 0 }) }
func Le(col string, v Value) Predicate { return cmpPred(col, v, func(c int) bool { return c <= 0 }) }

// cmpPred drops missing values, like a SQL comparison against NULL.
func cmpPred(col string, v Value, accept func(int) bool) Predicate {
	return func(r Row) (bool, error) {
		got, err := r.Get(col)
		if err != nil {
			return false, err
		}
		if got.IsMissing() {
			return false, nil
		}
		c, err := got.Compare(v)
		if err != nil {
			return false, &TypeMismatchError{Column: col, Row: r.r, Value: got, Want: v.Kind().String()}
		}
		return accept(c), nil
	}
}

// And holds when every predicate holds.
func And(preds ...Predicate) Predicate {
	return func(r Row) (bool, error) {
		for _, p := range preds {
			ok, err := p(r)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}
