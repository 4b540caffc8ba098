package warehouse

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/edakit/internal/table"
)

const allRowsKey = "__all__"

// Evaluate runs q over t in the order Hive applies the clauses: WHERE,
// GROUP BY with aggregates, ORDER BY, LIMIT, then the select list. Nulls
// sort first ascending and last descending, as in Hive.
func (q Query) Evaluate(t *table.Table) (*table.Table, error) {
	if t == nil {
		return nil, table.ErrNilTable
	}
	out := t
	if len(q.Where) > 0 {
		preds := make([]table.Predicate, len(q.Where))
		for i, c := range q.Where {
			p, err := c.predicate()
			if err != nil {
				return nil, err
			}
			preds[i] = p
		}
		var err error
		if out, err = table.Filter(out, table.And(preds...)); err != nil {
			return nil, fmt.Errorf("where: %w", err)
		}
	}

	cols := q.Select
	if len(q.Aggregates) > 0 || len(q.GroupBy) > 0 {
		var err error
		if out, err = q.aggregate(out); err != nil {
			return nil, err
		}
		if len(cols) > 0 {
			cols = append(append([]string(nil), cols...), aggNames(q.Aggregates)...)
		}
	}

	if q.OrderBy != "" {
		opt := table.SortOptions{Descending: q.Desc, Missing: table.MissingFirst}
		if q.Desc {
			opt.Missing = table.MissingLast
		}
		var err error
		if out, err = table.Sort(out, q.OrderBy, opt); err != nil {
			return nil, fmt.Errorf("order by: %w", err)
		}
	}
	if q.Limit > 0 {
		out = out.Head(q.Limit)
	}
	if len(cols) > 0 {
		return table.Subset(out, cols)
	}
	return out, nil
}

func aggNames(aggs []Aggregate) []string {
	out := make([]string, len(aggs))
	for i, a := range aggs {
		out[i] = a.name()
	}
	return out
}

func (q Query) aggregate(t *table.Table) (*table.Table, error) {
	for _, s := range q.Select {
		if !contains(q.GroupBy, s) {
			return nil, fmt.Errorf("select item %q is neither grouped nor aggregated", s)
		}
	}
	keys := q.GroupBy
	if len(keys) == 0 {
		all := make([]table.Value, t.NumRows())
		for i := range all {
			all[i] = table.Int(1)
		}
		var err error
		if t, err = t.WithColumn(allRowsKey, all); err != nil {
			return nil, err
		}
		keys = []string{allRowsKey}
	}
	if len(q.Aggregates) == 0 {
		return nil, errors.New("group by without aggregates")
	}

	var out *table.Table
	for _, a := range q.Aggregates {
		agg, err := a.aggregator()
		if err != nil {
			return nil, err
		}
		col := a.Column
		if col == "*" {
			if agg != table.AggCount {
				return nil, fmt.Errorf("%s(*) is not supported", a.Func)
			}
			col = keys[0]
		}
		g, err := table.GroupBy(t, table.GroupSpec{Keys: keys, Value: col, Agg: agg, As: a.name()})
		if err != nil {
			return nil, fmt.Errorf("%s(%s): %w", a.Func, a.Column, err)
		}
		if out == nil {
			out = g
			continue
		}
		vals, err := g.Column(a.name())
		if err != nil {
			return nil, err
		}
		if out, err = out.WithColumn(a.name(), vals); err != nil {
			return nil, err
		}
	}
	if len(q.GroupBy) == 0 {
		return out.Drop(allRowsKey)
	}
	return out, nil
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
