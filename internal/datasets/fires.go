package datasets

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/KaramelBytes/edakit/internal/chart"
	"github.com/KaramelBytes/edakit/internal/mapreduce"
	"github.com/KaramelBytes/edakit/internal/table"
	"github.com/KaramelBytes/edakit/internal/warehouse"
)

// FiresTable is the warehouse table holding forestfires.csv.
const FiresTable = "forest_fires"

// FiresHeaderPrefix starts the header line skipped by the mapper.
const FiresHeaderPrefix = "X,Y,month"

// FiresMonthField is the zero-based position of month in a CSV line.
const FiresMonthField = 2

// FiresMapper counts rows per month.
func FiresMapper() mapreduce.FieldCountMapper {
	return mapreduce.FieldCountMapper{Field: FiresMonthField, Delimiter: ",", HeaderPrefix: FiresHeaderPrefix}
}

// FiresSchema is the Hive table definition for forestfires.csv.
func FiresSchema() warehouse.CreateTable {
	cols := []warehouse.Column{
		{Name: "X", Type: "INT"}, {Name: "Y", Type: "INT"},
		{Name: "month", Type: "STRING"}, {Name: "day", Type: "STRING"},
	}
	for _, n := range []string{"FFMC", "DMC", "DC", "ISI", "temp", "RH", "wind", "rain", "area"} {
		cols = append(cols, warehouse.Column{Name: n, Type: "FLOAT"})
	}
	return warehouse.CreateTable{Name: FiresTable, Columns: cols, Delimiter: ",", SkipHeader: true, IfNotExists: true}
}

// AvgAreaByMonth is the average burned area per month.
func AvgAreaByMonth() warehouse.Query {
	return warehouse.Query{
		Select:     []string{"month"},
		Aggregates: []warehouse.Aggregate{{Func: "AVG", Column: "area", As: "avg_area_burned"}},
		From:       FiresTable,
		GroupBy:    []string{"month"},
	}
}

// TopBurnConditions are the weather conditions of the five largest fires.
func TopBurnConditions() warehouse.Query {
	return warehouse.Query{
		Select:  []string{"temp", "wind", "area"},
		From:    FiresTable,
		Where:   []warehouse.Condition{{Column: "area", Op: ">", Value: table.Int(0)}},
		OrderBy: "area",
		Desc:    true,
		Limit:   5,
	}
}

// CountByMonth runs the month-count MapReduce job in process over a CSV
// file and returns the counts as a month/count table.
func CountByMonth(ctx context.Context, path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fires data: %w", err)
	}
	defer f.Close()
	kvs, err := mapreduce.RunLocal(ctx, f, FiresMapper(), mapreduce.SumReducer{})
	if err != nil {
		return nil, err
	}
	return CountsTable(kvs)
}

// CountsTable converts reducer output into a month/count table.
func CountsTable(kvs []mapreduce.KV) (*table.Table, error) {
	rows := make([][]table.Value, 0, len(kvs))
	for _, kv := range kvs {
		n, ok := table.ParseNumber(kv.Value)
		if !ok {
			return nil, fmt.Errorf("count for %s: %q is not a number", kv.Key, kv.Value)
		}
		rows = append(rows, []table.Value{table.Text(kv.Key), n})
	}
	return table.FromRows([]string{"month", "count"}, rows)
}

// FiresOptions parameterizes Fires.
type FiresOptions struct {
	// DataPath is the CSV used by the local MapReduce count. When empty the
	// count is read from Counts.
	DataPath string
	// Counts supplies precomputed counts, e.g. from a Hadoop job.
	Counts []mapreduce.KV
	// LoadPath is the path handed to LOAD DATA. Local warehouses read it
	// from disk; Hive resolves it in HDFS, or on the server when LoadLocal.
	LoadPath  string
	LoadLocal bool
}

// Fires counts fires by month and runs the two warehouse queries.
func Fires(ctx context.Context, wh warehouse.Warehouse, opt FiresOptions) (*Report, error) {
	r := &Report{Dataset: "fires"}

	var counts *table.Table
	var err error
	switch {
	case opt.DataPath != "":
		counts, err = CountByMonth(ctx, opt.DataPath)
	case len(opt.Counts) > 0:
		counts, err = CountsTable(opt.Counts)
	}
	if err != nil {
		return nil, fmt.Errorf("count by month: %w", err)
	}
	if counts != nil {
		r.add("count_by_month", "MapReduce Results (Fires by Month)", counts)
	}

	if wh == nil {
		return r, nil
	}
	if err := wh.Create(ctx, FiresSchema()); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	if err := wh.Load(ctx, warehouse.LoadData{Path: opt.LoadPath, Table: FiresTable, Local: opt.LoadLocal, Overwrite: true}); err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	queries := []struct {
		name, title string
		q           warehouse.Query
	}{
		{"avg_area_by_month", "Hive Query 1: Average Area Burned by Month", AvgAreaByMonth()},
		{"top_conditions", "Hive Query 2: Top 5 Conditions with Highest Fire Area", TopBurnConditions()},
	}
	for _, q := range queries {
		slog.Debug("warehouse query", slog.String("name", q.name), slog.String("sql", q.q.SQL()))
		res, err := wh.Run(ctx, q.q)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", q.name, err)
		}
		r.add(q.name, q.title, res)
	}
	return r, nil
}

// FiresPlots are the charts drawn for the forest fire data.
func FiresPlots() []chart.Plan {
	return []chart.Plan{
		{Type: chart.TypeBox, File: "area_by_month.png", Title: "Burned Area by Month", X: "month", Y: []string{"area"}},
		{Type: chart.TypeScatter, File: "temp_vs_area.png", Title: "Temperature vs Burned Area", X: "temp", Y: []string{"area"}, Hue: "RH"},
		{Type: chart.TypeBar, File: "area_by_day.png", Title: "Average Burned Area by Day", X: "day", Y: []string{"area"}},
	}
}
