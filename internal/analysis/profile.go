// Package analysis profiles a table: schema, per-column statistics, robust
// outliers, group summaries and correlations, rendered as Markdown.
package analysis

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/edakit/internal/ingest"
	"github.com/KaramelBytes/edakit/internal/table"
)

// Options controls profiling.
type Options struct {
	// MaxRows limits rows profiled; 0 means unlimited.
	MaxRows int
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// CorrPerGroup computes correlations per group key.
	CorrPerGroup bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		MaxRows:          100000,
		SampleRows:       5,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Report is a markdown-friendly analysis of a tabular dataset.
type Report struct {
	Name      string
	Rows      int
	Processed int
	Cols      []ColumnSummary
	Samples   [][]string
	Warnings  []string
	Groups    []GroupResult
	Corr      *CorrMatrix
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|boolean|datetime|categorical|text|empty
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key       string
	Size      int
	Metrics   map[string]NumSummary // by column name
	CorrPairs []PairCorr            // top correlation pairs (by |r|)
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// AnalyzeFile loads a CSV/TSV/XLSX file and profiles it.
func AnalyzeFile(path string, in ingest.Options, opt Options) (*Report, error) {
	in.MaxRows = 0
	t, err := ingest.ReadFile(path, in)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	if in.Sheet != "" {
		name = fmt.Sprintf("%s (sheet: %s)", name, in.Sheet)
	}
	return Profile(name, t, opt)
}

// Profile builds a Report for t.
func Profile(name string, t *table.Table, opt Options) (*Report, error) {
	if t == nil {
		return nil, table.ErrNilTable
	}
	rep := &Report{Name: name, Rows: t.NumRows()}
	if opt.MaxRows > 0 && t.NumRows() > opt.MaxRows {
		t = t.Head(opt.MaxRows)
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", opt.MaxRows, rep.Rows))
	}
	rep.Processed = t.NumRows()
	if t.NumCols() == 0 {
		return rep, nil
	}

	// Zero disables samples; only a negative count falls back to the default.
	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = DefaultOptions().SampleRows
	}
	for r := 0; r < t.NumRows() && r < sampleRows; r++ {
		row := t.Row(r)
		cells := make([]string, len(row))
		for i, v := range row {
			if !v.IsMissing() {
				cells[i] = v.String()
			}
		}
		rep.Samples = append(rep.Samples, cells)
	}

	var numCols []string
	for _, f := range t.Schema() {
		col, _ := t.Column(f.Name)
		s := summarize(f, col, opt)
		if s.Kind == "numeric" {
			numCols = append(numCols, f.Name)
		}
		rep.Cols = append(rep.Cols, s)
	}

	if len(opt.GroupBy) > 0 {
		groups, err := groupSummaries(t, opt, numCols)
		if err != nil {
			return nil, err
		}
		rep.Groups = groups
	}

	if opt.Correlations && len(numCols) >= 2 {
		cm, err := Correlations(t, numCols)
		if err != nil {
			return nil, err
		}
		rep.Corr = cm
	}
	return rep, nil
}

func summarize(f table.Field, col []table.Value, opt Options) ColumnSummary {
	s := ColumnSummary{Name: f.Name}
	var nums []float64
	cats := map[string]int{}
	dates, texts := 0, 0
	for _, v := range col {
		if v.IsMissing() {
			s.Missing++
			continue
		}
		s.NonNull++
		if x, ok := v.Float(); ok && v.Kind() != table.KindBool {
			nums = append(nums, x)
			continue
		}
		str := v.String()
		if _, ok := parseTimeMaybe(str); ok {
			dates++
		} else {
			texts++
		}
		if len(cats) <= 10000 && len(str) <= 64 {
			cats[str]++
		}
		if len(s.ExampleTexts) < 3 {
			s.ExampleTexts = append(s.ExampleTexts, str)
		}
	}

	switch {
	case s.NonNull == 0:
		s.Kind = "empty"
		s.ExampleTexts = nil
	case f.Kind == table.KindBool:
		s.Kind = "boolean"
		s.TopValues, s.Unique = topValues(cats)
		s.ExampleTexts = nil
	case len(nums) >= dates && len(nums) >= texts:
		s.Kind = "numeric"
		s.ExampleTexts = nil
		s.Min, s.Max = floats.Min(nums), floats.Max(nums)
		if len(nums) > 1 {
			s.Mean, s.Std = stat.MeanStdDev(nums, nil)
		} else {
			s.Mean = nums[0]
		}
		if opt.Outliers && len(nums) >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(nums, thr)
			s.OutlierThreshold = thr
		}
	case dates >= texts:
		s.Kind = "datetime"
	case len(cats) > 0 && len(cats) < s.NonNull:
		s.Kind = "categorical"
		s.TopValues, s.Unique = topValues(cats)
		s.ExampleTexts = nil
	default:
		s.Kind = "text"
	}
	return s
}

func topValues(cats map[string]int) ([]CategoryCount, int) {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > 8 {
		tops = tops[:8]
	}
	return tops, len(cats)
}

// robustOutliers counts values with |0.6745*(x-median)/MAD| above thr.
func robustOutliers(vals []float64, thr float64) (int, float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	var cnt int
	maxAbsZ := 0.0
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			cnt++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return cnt, maxAbsZ
}

type groupAcc struct {
	key  string
	size int
	rows []int
}

func groupSummaries(t *table.Table, opt Options, numCols []string) ([]GroupResult, error) {
	var keyCols []string
	for _, name := range opt.GroupBy {
		name = strings.TrimSpace(name)
		if t.Has(name) {
			keyCols = append(keyCols, name)
			continue
		}
		found := false
		for _, c := range t.Columns() {
			if strings.EqualFold(c, name) {
				keyCols = append(keyCols, c)
				found = true
				break
			}
		}
		if !found {
			return nil, &table.ColumnNotFoundError{Name: name}
		}
	}

	byKey := map[string]*groupAcc{}
	var order []*groupAcc
	for r := 0; r < t.NumRows(); r++ {
		parts := make([]string, 0, len(keyCols))
		for _, c := range keyCols {
			v, _ := t.At(r, c)
			parts = append(parts, fmt.Sprintf("%s=%s", c, safeVal(v.String())))
		}
		k := strings.Join(parts, " | ")
		g := byKey[k]
		if g == nil {
			g = &groupAcc{key: k}
			byKey[k] = g
			order = append(order, g)
		}
		g.size++
		g.rows = append(g.rows, r)
	}

	columns := map[string][]float64{}
	for _, c := range numCols {
		vals, err := t.Floats(c)
		if err != nil {
			return nil, err
		}
		columns[c] = vals
	}

	out := make([]GroupResult, 0, len(order))
	for _, g := range order {
		gr := GroupResult{Key: g.key, Size: g.size, Metrics: map[string]NumSummary{}}
		for _, c := range numCols {
			var vals []float64
			for _, r := range g.rows {
				if x := columns[c][r]; !math.IsNaN(x) {
					vals = append(vals, x)
				}
			}
			if len(vals) == 0 {
				continue
			}
			gr.Metrics[c] = NumSummary{Count: len(vals), Min: floats.Min(vals), Max: floats.Max(vals), Mean: stat.Mean(vals, nil)}
		}
		if opt.CorrPerGroup {
			gr.CorrPairs = topPairs(numCols, columns, g.rows, 10)
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out, nil
}

// Correlations returns the Pearson correlation matrix of the named numeric
// columns, each pair computed over rows where both values are present.
func Correlations(t *table.Table, cols []string) (*CorrMatrix, error) {
	if t == nil {
		return nil, table.ErrNilTable
	}
	columns := make(map[string][]float64, len(cols))
	for _, c := range cols {
		vals, err := t.Floats(c)
		if err != nil {
			return nil, err
		}
		columns[c] = vals
	}
	rows := make([]int, t.NumRows())
	for i := range rows {
		rows[i] = i
	}
	n := len(cols)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			r := pearson(columns[cols[a]], columns[cols[b]], rows)
			m[a][b], m[b][a] = r, r
		}
	}
	return &CorrMatrix{Columns: append([]string(nil), cols...), Values: m}, nil
}

// pearson correlates x and y over rows where both are present; fewer than
// two complete pairs or zero variance yield 0.
func pearson(x, y []float64, rows []int) float64 {
	var xs, ys []float64
	for _, r := range rows {
		if math.IsNaN(x[r]) || math.IsNaN(y[r]) {
			continue
		}
		xs = append(xs, x[r])
		ys = append(ys, y[r])
	}
	if len(xs) < 2 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

func topPairs(cols []string, columns map[string][]float64, rows []int, limit int) []PairCorr {
	var pairs []PairCorr
	for a := 1; a < len(cols); a++ {
		for b := 0; b < a; b++ {
			r := pearson(columns[cols[a]], columns[cols[b]], rows)
			if r == 0 {
				continue
			}
			pairs = append(pairs, PairCorr{A: cols[b], B: cols[a], R: r})
		}
	}
	sortPairs(pairs)
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

func sortPairs(pairs []PairCorr) {
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = table.QuantileSorted(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = table.QuantileSorted(dev, 0.5)
	return
}
