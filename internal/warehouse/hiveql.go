// Package warehouse builds HiveQL statements and runs them either against a
// HiveServer2 endpoint or locally over an in-memory table, so the same query
// definitions serve both modes.
package warehouse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/edakit/internal/table"
)

// Column is a Hive column definition.
type Column struct {
	Name string
	Type string
}

// CreateTable renders CREATE TABLE for a delimited text table.
type CreateTable struct {
	Name        string
	Columns     []Column
	Delimiter   string
	SkipHeader  bool
	IfNotExists bool
}

// HiveType maps a column kind to its Hive type.
func HiveType(k table.Kind) string {
	switch k {
	case table.KindInt:
		return "INT"
	case table.KindFloat:
		return "FLOAT"
	case table.KindBool:
		return "BOOLEAN"
	}
	return "STRING"
}

// FromSchema derives a CREATE TABLE from an ingested table's schema.
func FromSchema(name string, s table.Schema) CreateTable {
	cols := make([]Column, len(s))
	for i, f := range s {
		cols[i] = Column{Name: f.Name, Type: HiveType(f.Kind)}
	}
	return CreateTable{Name: name, Columns: cols, Delimiter: ",", SkipHeader: true, IfNotExists: true}
}

func (c CreateTable) SQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if c.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(c.Name + " (\n")
	for i, col := range c.Columns {
		fmt.Fprintf(&b, "    %s %s", col.Name, col.Type)
		if i < len(c.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")\n")
	delim := c.Delimiter
	if delim == "" {
		delim = ","
	}
	fmt.Fprintf(&b, "ROW FORMAT DELIMITED\nFIELDS TERMINATED BY '%s'\nLINES TERMINATED BY '\\n'\nSTORED AS TEXTFILE", escape(delim))
	if c.SkipHeader {
		b.WriteString("\nTBLPROPERTIES ('skip.header.line.count'='1')")
	}
	return b.String()
}

// LoadData renders LOAD DATA [LOCAL] INPATH.
type LoadData struct {
	Path      string
	Table     string
	Local     bool
	Overwrite bool
}

func (l LoadData) SQL() string {
	var b strings.Builder
	b.WriteString("LOAD DATA ")
	if l.Local {
		b.WriteString("LOCAL ")
	}
	fmt.Fprintf(&b, "INPATH '%s'", escape(l.Path))
	if l.Overwrite {
		b.WriteString(" OVERWRITE")
	}
	b.WriteString(" INTO TABLE " + l.Table)
	return b.String()
}

// Aggregate is one aggregate select item such as AVG(area) AS avg_area.
// Column "*" is only valid with COUNT.
type Aggregate struct {
	Func   string
	Column string
	As     string
}

func (a Aggregate) name() string {
	if a.As != "" {
		return a.As
	}
	col := a.Column
	if col == "*" {
		col = "all"
	}
	return strings.ToLower(a.Func) + "_" + col
}

func (a Aggregate) aggregator() (table.Aggregator, error) {
	switch strings.ToUpper(a.Func) {
	case "AVG":
		return table.AggMean, nil
	case "SUM":
		return table.AggSum, nil
	case "COUNT":
		return table.AggCount, nil
	case "MIN":
		return table.AggMin, nil
	case "MAX":
		return table.AggMax, nil
	}
	return "", fmt.Errorf("unsupported aggregate %q", a.Func)
}

// Condition is a comparison against a literal; conditions of a query are
// joined with AND.
type Condition struct {
	Column string
	Op     string
	Value  table.Value
}

func (c Condition) predicate() (table.Predicate, error) {
	switch c.Op {
	case "=", "==":
		return table.Eq(c.Column, c.Value), nil
	case "!=", "<>":
		return table.Ne(c.Column, c.Value), nil
	case ">":
		return table.Gt(c.Column, c.Value), nil
	case ">=":
		return table.Ge(c.Column, c.Value), nil
	case "<":
		return table.Lt(c.Column, c.Value), nil
	case "<=":
		return table.Le(c.Column, c.Value), nil
	}
	return nil, fmt.Errorf("unsupported operator %q", c.Op)
}

// Query is a single-table SELECT.
type Query struct {
	Select     []string
	Aggregates []Aggregate
	From       string
	Where      []Condition
	GroupBy    []string
	OrderBy    string
	Desc       bool
	Limit      int
}

func (q Query) SQL() string {
	items := append([]string(nil), q.Select...)
	for _, a := range q.Aggregates {
		item := fmt.Sprintf("%s(%s)", strings.ToUpper(a.Func), a.Column)
		if a.As != "" {
			item += " AS " + a.As
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		items = []string{"*"}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s\nFROM %s", strings.Join(items, ", "), q.From)
	if len(q.Where) > 0 {
		conds := make([]string, len(q.Where))
		for i, c := range q.Where {
			conds[i] = fmt.Sprintf("%s %s %s", c.Column, c.Op, literal(c.Value))
		}
		b.WriteString("\nWHERE " + strings.Join(conds, " AND "))
	}
	if len(q.GroupBy) > 0 {
		b.WriteString("\nGROUP BY " + strings.Join(q.GroupBy, ", "))
	}
	if q.OrderBy != "" {
		b.WriteString("\nORDER BY " + q.OrderBy)
		if q.Desc {
			b.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		b.WriteString("\nLIMIT " + strconv.Itoa(q.Limit))
	}
	return b.String()
}

func literal(v table.Value) string {
	switch v.Kind() {
	case table.KindMissing:
		return "NULL"
	case table.KindText:
		return "'" + escape(v.String()) + "'"
	case table.KindBool:
		return strings.ToUpper(v.String())
	}
	return v.String()
}

func escape(s string) string { return strings.ReplaceAll(s, "'", `\'`) }
