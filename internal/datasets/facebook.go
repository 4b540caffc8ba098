package datasets

import (
	"github.com/KaramelBytes/edakit/internal/ingest"
	"github.com/KaramelBytes/edakit/internal/table"
)

const (
	fbLikes = "Page total likes"
	fbType  = "Type"
	fbMonth = "Post Month"
	fbReach = "Lifetime Post Total Reach"
)

// FacebookInput reads dataset_Facebook.csv, which is semicolon separated.
func FacebookInput() ingest.Options {
	return ingest.Options{Delimiter: ';', DecimalSeparator: '.'}
}

// Facebook subsets, merges, sorts, transposes and pivots the Facebook
// metrics table.
func Facebook(df *table.Table) (*Report, error) {
	r := &Report{Dataset: "facebook"}
	r.add("original", "Original Dataset Preview", df)

	subset1, err := table.Subset(df, []string{fbLikes, fbType, fbMonth})
	if err != nil {
		return nil, err
	}
	r.add("subset_columns", "Subset 1 (Selected Columns)", subset1)

	photos, err := table.Filter(df, table.Eq(fbType, table.Text("Photo")))
	if err != nil {
		return nil, err
	}
	r.add("subset_photo", "Subset 2 (Photo Posts Only)", photos)

	december, err := table.Filter(df, table.Eq(fbMonth, table.Int(12)))
	if err != nil {
		return nil, err
	}
	r.add("subset_december", "Subset 3 (December Posts)", december)

	first := df.Head(50)
	left, err := table.Subset(first, []string{fbLikes, fbMonth})
	if err != nil {
		return nil, err
	}
	right, err := table.Subset(first, []string{fbMonth, fbReach})
	if err != nil {
		return nil, err
	}
	merged, err := table.InnerJoin(left, right, fbMonth)
	if err != nil {
		return nil, err
	}
	r.add("merged", "Merged Data (on Post Month)", merged)

	sorted, err := table.SortDescending(df, fbReach)
	if err != nil {
		return nil, err
	}
	r.add("sorted", "Sorted Data (by Lifetime Post Total Reach)", sorted, fbLikes, fbType, fbReach)

	transposed, err := table.Transpose(df)
	if err != nil {
		return nil, err
	}
	r.add("transposed", "Transposed Data", transposed)

	rows, cols, err := table.DescribeShape(df)
	if err != nil {
		return nil, err
	}
	r.note("Dataset Shape (Rows, Columns): (%d, %d)", rows, cols)

	pivot, err := table.Pivot(df, table.PivotSpec{RowKey: fbMonth, ColKey: fbType, Value: fbReach, Agg: table.AggMean})
	if err != nil {
		return nil, err
	}
	r.add("pivot", "Reshaped Data (Pivot Table - Avg Reach by Month and Type)", pivot)
	return r, nil
}
