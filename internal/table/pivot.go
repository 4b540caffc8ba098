package table

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Aggregator reduces the values of one group to a scalar.
type Aggregator string

const (
	AggMean   Aggregator = "mean"
	AggSum    Aggregator = "sum"
	AggCount  Aggregator = "count"
	AggMin    Aggregator = "min"
	AggMax    Aggregator = "max"
	AggMedian Aggregator = "median"
)

// ParseAggregator maps a name such as "mean" or "avg" to an Aggregator.
func ParseAggregator(name string) (Aggregator, error) {
	switch name {
	case "", "mean", "avg", "average":
		return AggMean, nil
	case "sum":
		return AggSum, nil
	case "count":
		return AggCount, nil
	case "min":
		return AggMin, nil
	case "max":
		return AggMax, nil
	case "median":
		return AggMedian, nil
	}
	return "", fmt.Errorf("unknown aggregator %q (use mean|sum|count|min|max|median)", name)
}

// Apply aggregates vals. Mean, min, max and median of zero values return
// ErrEmptyGroup; sum and count of zero values are 0.
func (a Aggregator) Apply(vals []float64) (float64, error) {
	switch a {
	case AggCount:
		return float64(len(vals)), nil
	case AggSum:
		return floats.Sum(vals), nil
	}
	if len(vals) == 0 {
		return 0, ErrEmptyGroup
	}
	switch a {
	case AggMean, "":
		return stat.Mean(vals, nil), nil
	case AggMin:
		return floats.Min(vals), nil
	case AggMax:
		return floats.Max(vals), nil
	case AggMedian:
		cp := append([]float64(nil), vals...)
		sort.Float64s(cp)
		return QuantileSorted(cp, 0.5), nil
	}
	return 0, fmt.Errorf("unknown aggregator %q", string(a))
}

// PivotSpec describes a pivot: one output row per distinct RowKey value, one
// output column per distinct ColKey value (or a single column named after
// Value when ColKey is empty).
type PivotSpec struct {
	RowKey string
	ColKey string
	Value  string
	Agg    Aggregator
}

// Pivot cross-tabulates t. Missing values in the value column are ignored,
// rows with a missing key are dropped, keys are emitted in natural order and
// combinations never observed (or with no values to average) hold Missing.
// A ColKey category whose name is already used gets a _2, _3, ... suffix.
func Pivot(t *Table, spec PivotSpec) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	keys := []string{spec.RowKey}
	if spec.ColKey != "" {
		keys = append(keys, spec.ColKey)
	}
	groups, err := groupRows(t, keys)
	if err != nil {
		return nil, err
	}
	valIdx, err := t.colIndex(spec.Value)
	if err != nil {
		return nil, err
	}

	rowKeys := distinctSorted(groups, 0)
	var colKeys []Value
	if spec.ColKey != "" {
		colKeys = distinctSorted(groups, 1)
	}

	rowPos := make(map[key]int, len(rowKeys))
	for i, v := range rowKeys {
		rowPos[v.key()] = i
	}
	colPos := make(map[key]int, len(colKeys))
	for i, v := range colKeys {
		colPos[v.key()] = i
	}

	width := 1
	if spec.ColKey != "" {
		width = len(colKeys)
	}
	cells := make([][]Value, width)
	for c := range cells {
		cells[c] = make([]Value, len(rowKeys))
	}
	for _, g := range groups {
		agg, err := aggregateRows(t, valIdx, g.rows, spec.Agg)
		if err != nil {
			return nil, fmt.Errorf("pivot %s by %v: %w", spec.Value, keys, err)
		}
		c := 0
		if spec.ColKey != "" {
			c = colPos[g.keys[1].key()]
		}
		cells[c][rowPos[g.keys[0].key()]] = agg
	}

	names := []string{spec.RowKey}
	cols := [][]Value{rowKeys}
	if spec.ColKey == "" {
		names = append(names, spec.Value)
	} else {
		used := map[string]bool{spec.RowKey: true}
		for _, v := range colKeys {
			name := uniqueName(v.String(), func(n string) bool { return used[n] })
			used[name] = true
			names = append(names, name)
		}
	}
	cols = append(cols, cells...)
	out, err := newOwned(names, cols, nil)
	if err != nil {
		return nil, fmt.Errorf("pivot: %w", err)
	}
	return out, nil
}

// GroupSpec describes a long-format aggregation: one output row per distinct
// combination of Keys, holding the aggregate of Value in a column named As
// (default "<agg>_<value>").
type GroupSpec struct {
	Keys  []string
	Value string
	Agg   Aggregator
	As    string
}

// GroupBy aggregates Value per observed key combination, in natural key order.
func GroupBy(t *Table, spec GroupSpec) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	groups, err := groupRows(t, spec.Keys)
	if err != nil {
		return nil, err
	}
	valIdx, err := t.colIndex(spec.Value)
	if err != nil {
		return nil, err
	}
	sortGroups(groups)
	as := spec.As
	if as == "" {
		agg := spec.Agg
		if agg == "" {
			agg = AggMean
		}
		as = string(agg) + "_" + spec.Value
	}
	cols := make([][]Value, len(spec.Keys)+1)
	for i := range cols {
		cols[i] = make([]Value, len(groups))
	}
	for gi, g := range groups {
		for k := range spec.Keys {
			cols[k][gi] = g.keys[k]
		}
		agg, err := aggregateRows(t, valIdx, g.rows, spec.Agg)
		if err != nil {
			return nil, fmt.Errorf("group %s by %v: %w", spec.Value, spec.Keys, err)
		}
		cols[len(spec.Keys)][gi] = agg
	}
	names := append(append([]string(nil), spec.Keys...), as)
	return newOwned(names, cols, nil)
}

type group struct {
	keys []Value
	rows []int
}

// groupRows buckets rows by the tuple of key values in first-seen order,
// skipping rows where any key is missing.
func groupRows(t *Table, keys []string) ([]*group, error) {
	idx := make([]int, len(keys))
	for i, k := range keys {
		c, err := t.colIndex(k)
		if err != nil {
			return nil, err
		}
		idx[i] = c
	}
	seen := map[string]*group{}
	var out []*group
	for r := 0; r < t.rows; r++ {
		vals := make([]Value, len(idx))
		id := ""
		skip := false
		for i, c := range idx {
			v := t.cols[c][r]
			if v.IsMissing() {
				skip = true
				break
			}
			vals[i] = v
			id += fmt.Sprintf("%v\x00", v.key())
		}
		if skip {
			continue
		}
		g, ok := seen[id]
		if !ok {
			g = &group{keys: vals}
			seen[id] = g
			out = append(out, g)
		}
		g.rows = append(g.rows, r)
	}
	return out, nil
}

func aggregateRows(t *Table, valIdx int, rows []int, agg Aggregator) (Value, error) {
	if agg == "" {
		agg = AggMean
	}
	name := t.schema[valIdx].Name
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		v := t.cols[valIdx][r]
		if v.IsMissing() {
			continue
		}
		if agg == AggCount {
			vals = append(vals, 0)
			continue
		}
		f, ok := v.Float()
		if !ok {
			return Value{}, &TypeMismatchError{Column: name, Row: r, Value: v, Want: "numeric"}
		}
		vals = append(vals, f)
	}
	res, err := agg.Apply(vals)
	if errors.Is(err, ErrEmptyGroup) {
		return Missing(), nil
	}
	if err != nil {
		return Value{}, err
	}
	if agg == AggCount {
		return Int(int64(res)), nil
	}
	return Float(res), nil
}

// distinctSorted returns the distinct values of key position k across groups
// in natural order.
func distinctSorted(groups []*group, k int) []Value {
	seen := map[key]bool{}
	var out []Value
	for _, g := range groups {
		v := g.keys[k]
		if seen[v.key()] {
			continue
		}
		seen[v.key()] = true
		out = append(out, v)
	}
	sortValues(out)
	return out
}

func sortGroups(groups []*group) {
	sort.SliceStable(groups, func(i, j int) bool {
		for k := range groups[i].keys {
			c := compareLoose(groups[i].keys[k], groups[j].keys[k])
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func sortValues(vals []Value) {
	sort.SliceStable(vals, func(i, j int) bool { return compareLoose(vals[i], vals[j]) < 0 })
}

// compareLoose orders any two values: comparable kinds by Compare, otherwise
// by kind so mixed columns still sort deterministically.
func compareLoose(a, b Value) int {
	if c, err := a.Compare(b); err == nil {
		return c
	}
	return cmpInt(int64(a.Kind()), int64(b.Kind()))
}
