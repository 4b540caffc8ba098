package analysis

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/KaramelBytes/edakit/internal/ingest"
	"github.com/KaramelBytes/edakit/internal/table"
)

var csvRows = []string{
	"Group;Concentration;Temp;Score;LocaleNumber;Category;Note",
	"A;0,5;70;10,0;1.000,0;alpha;first",
	"A;0,6;71;11,0;1.100,0;alpha;second",
	"A;0,55;69;9,5;0.900,0;beta;third",
	"B;0,7;75;10,5;1.050,0;alpha;fourth",
	"B;0,65;74;9,8;0.980,0;beta;fifth",
	"B;0,68;73;10,2;1.020,0;alpha;sixth",
	"A;0,52;68;8,8;0.880,0;gamma;seventh",
	"B;0,75;76;9,7;0.970,0;beta;eighth",
	"A;3,0;95;50,0;5.000,0;alpha;ninth",
	"B;0,66;72;10,1;1.010,0;gamma;tenth",
}

var (
	processedConcentration = []float64{0.5, 0.6, 0.55, 0.7, 0.65, 0.68, 0.52, 0.75, 3.0}
	processedTemp          = []float64{70, 71, 69, 75, 74, 73, 68, 76, 95}
	processedScore         = []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50}
	processedLocale        = []float64{1000, 1100, 900, 1050, 980, 1020, 880, 970, 5000}
)

func metricsOptions() Options {
	opt := DefaultOptions()
	opt.SampleRows = 3
	opt.MaxRows = 9
	opt.GroupBy = []string{"group"}
	opt.Correlations = true
	opt.CorrPerGroup = true
	opt.Outliers = true
	return opt
}

func writeMetricsCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.csv")
	if err := os.WriteFile(path, []byte(strings.Join(csvRows, "\n")), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

var metricsIngest = ingest.Options{Delimiter: ';', DecimalSeparator: ',', ThousandsSeparator: '.'}

func TestAnalyzeCSVAndMarkdown(t *testing.T) {
	rep, err := AnalyzeFile(writeMetricsCSV(t), metricsIngest, metricsOptions())
	if err != nil {
		t.Fatalf("AnalyzeFile: %v", err)
	}

	assertReport(t, rep, "metrics.csv")

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: metrics.csv",
		"Rows: ~10 (processed 9)",
		"- Concentration: numeric",
		"- Category: categorical",
		"- Note: text",
		"outliers: 1 above |z|>3.5",
		"[GROUP-BY SUMMARY]",
		"Group=A (n=5)",
		"[PER-GROUP CORRELATIONS]",
		"[CORRELATIONS]",
		"Score ~ LocaleNumber",
		"| Group | Concentration | Temp |",
		"[NOTES]",
		"processed only 9/10 rows due to MaxRows",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestAnalyzeXLSXSheetSelection(t *testing.T) {
	src, err := ingest.ReadCSV(writeMetricsCSV(t), metricsIngest)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	path := filepath.Join(t.TempDir(), "analysis_dataset.xlsx")
	if err := ingest.WriteXLSX(path, "Data", src); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	rep, err := AnalyzeFile(path, ingest.Options{Sheet: "Data"}, metricsOptions())
	if err != nil {
		t.Fatalf("AnalyzeFile xlsx: %v", err)
	}
	assertReport(t, rep, "analysis_dataset.xlsx (sheet: Data)")
}

func TestProfileBooleanAndEmptyColumns(t *testing.T) {
	tb := table.MustNew([]string{"flag", "blank"}, [][]table.Value{
		{table.Bool(true), table.Bool(false), table.Bool(true)},
		{table.Missing(), table.Missing(), table.Missing()},
	})
	rep, err := Profile("flags", tb, DefaultOptions())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if rep.Cols[0].Kind != "boolean" || rep.Cols[0].TopValues[0].Value != "true" {
		t.Fatalf("flag summary = %#v", rep.Cols[0])
	}
	if rep.Cols[1].Kind != "empty" || rep.Cols[1].Missing != 3 {
		t.Fatalf("blank summary = %#v", rep.Cols[1])
	}
}

func TestProfileUnknownGroupColumn(t *testing.T) {
	tb := table.MustNew([]string{"x"}, [][]table.Value{{table.Int(1)}})
	opt := DefaultOptions()
	opt.GroupBy = []string{"nope"}
	if _, err := Profile("x", tb, opt); err == nil {
		t.Fatalf("expected error for unknown group column")
	}
}

func TestCorrelationsPairwiseComplete(t *testing.T) {
	tb := table.MustNew([]string{"a", "b", "c"}, [][]table.Value{
		{table.Float(1), table.Float(2), table.Float(3), table.Missing()},
		{table.Float(2), table.Float(4), table.Float(6), table.Float(100)},
		{table.Float(3), table.Float(2), table.Float(1), table.Float(0)},
	})
	cm, err := Correlations(tb, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Correlations: %v", err)
	}
	if !almostEqual(cm.Values[0][1], 1, 1e-12) {
		t.Fatalf("r(a,b) = %v, want 1 over complete pairs", cm.Values[0][1])
	}
	if !almostEqual(cm.Values[0][2], -1, 1e-12) || cm.Values[2][0] != cm.Values[0][2] {
		t.Fatalf("r(a,c) = %v", cm.Values[0][2])
	}
	if _, err := Correlations(tb, []string{"zzz"}); err == nil {
		t.Fatalf("expected column error")
	}
}

func assertReport(t *testing.T, rep *Report, expectName string) {
	t.Helper()
	if rep.Name != expectName {
		t.Fatalf("report name = %q, want %q", rep.Name, expectName)
	}
	if rep.Rows != 10 {
		t.Fatalf("rows = %d, want 10", rep.Rows)
	}
	if rep.Processed != 9 {
		t.Fatalf("processed = %d, want 9", rep.Processed)
	}
	if len(rep.Warnings) != 1 || rep.Warnings[0] != "processed only 9/10 rows due to MaxRows" {
		t.Fatalf("warnings = %#v", rep.Warnings)
	}
	if len(rep.Samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(rep.Samples))
	}
	expectFirst := []string{"A", "0.5", "70", "10", "1000", "alpha", "first"}
	if !equalStrings(rep.Samples[0], expectFirst) {
		t.Fatalf("first sample = %#v, want %#v", rep.Samples[0], expectFirst)
	}

	checkStats(t, columnByName(t, rep, "Concentration"), processedConcentration)
	count, maxZ := robustOutlierStats(processedScore, 3.5)

	score := columnByName(t, rep, "Score")
	checkStats(t, score, processedScore)
	if score.OutliersCount != count {
		t.Fatalf("score outliers = %d, want %d", score.OutliersCount, count)
	}
	if !almostEqual(score.OutliersMaxAbsZ, maxZ, 1e-6) {
		t.Fatalf("score max |z| = %f, want %f", score.OutliersMaxAbsZ, maxZ)
	}
	if !almostEqual(score.OutlierThreshold, 3.5, 1e-9) {
		t.Fatalf("score threshold = %f", score.OutlierThreshold)
	}
	checkStats(t, columnByName(t, rep, "Temp"), processedTemp)
	checkStats(t, columnByName(t, rep, "LocaleNumber"), processedLocale)

	cat := columnByName(t, rep, "Category")
	if cat.Kind != "categorical" {
		t.Fatalf("category kind = %q", cat.Kind)
	}
	if len(cat.TopValues) == 0 || cat.TopValues[0].Value != "alpha" || cat.TopValues[0].Count != 5 {
		t.Fatalf("category top = %#v", cat.TopValues)
	}

	if len(rep.Groups) != 2 {
		t.Fatalf("groups len = %d, want 2", len(rep.Groups))
	}
	groupA := rep.Groups[0]
	groupB := rep.Groups[1]
	if groupA.Key != "Group=A" || groupA.Size != 5 {
		t.Fatalf("group A = %#v", groupA)
	}
	if groupB.Key != "Group=B" || groupB.Size != 4 {
		t.Fatalf("group B = %#v", groupB)
	}
	idxA := []int{0, 1, 2, 6, 8}
	idxB := []int{3, 4, 5, 7}
	checkNumSummary(t, groupA.Metrics["Score"], subset(processedScore, idxA))
	checkNumSummary(t, groupB.Metrics["Score"], subset(processedScore, idxB))
	checkNumSummary(t, groupA.Metrics["Concentration"], subset(processedConcentration, idxA))
	checkNumSummary(t, groupB.Metrics["Concentration"], subset(processedConcentration, idxB))

	if rep.Corr == nil {
		t.Fatalf("corr matrix nil")
	}
	if !equalStrings(rep.Corr.Columns, []string{"Concentration", "Temp", "Score", "LocaleNumber"}) {
		t.Fatalf("corr columns = %#v", rep.Corr.Columns)
	}
	expCorr := correlation(processedScore, processedLocale)
	if !almostEqual(rep.Corr.Values[2][3], expCorr, 1e-6) {
		t.Fatalf("global corr score-locale = %f, want %f", rep.Corr.Values[2][3], expCorr)
	}

	corrA := correlation(subset(processedScore, idxA), subset(processedLocale, idxA))
	corrB := correlation(subset(processedScore, idxB), subset(processedLocale, idxB))
	if len(groupA.CorrPairs) == 0 || groupA.CorrPairs[0].A != "Score" || groupA.CorrPairs[0].B != "LocaleNumber" || !almostEqual(groupA.CorrPairs[0].R, corrA, 1e-6) {
		t.Fatalf("group A corr pairs = %#v", groupA.CorrPairs)
	}
	if len(groupB.CorrPairs) == 0 || groupB.CorrPairs[0].A != "Score" || groupB.CorrPairs[0].B != "LocaleNumber" || !almostEqual(groupB.CorrPairs[0].R, corrB, 1e-6) {
		t.Fatalf("group B corr pairs = %#v", groupB.CorrPairs)
	}
}

func columnByName(t *testing.T, rep *Report, name string) ColumnSummary {
	t.Helper()
	for _, c := range rep.Cols {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %q not found", name)
	return ColumnSummary{}
}

func checkStats(t *testing.T, col ColumnSummary, vals []float64) {
	t.Helper()
	if col.NonNull != len(vals) {
		t.Fatalf("%s non-null = %d, want %d", col.Name, col.NonNull, len(vals))
	}
	if !almostEqual(col.Min, minFloat(vals), 1e-6) {
		t.Fatalf("%s min = %f, want %f", col.Name, col.Min, minFloat(vals))
	}
	if !almostEqual(col.Max, maxFloat(vals), 1e-6) {
		t.Fatalf("%s max = %f, want %f", col.Name, col.Max, maxFloat(vals))
	}
	if !almostEqual(col.Mean, mean(vals), 1e-6) {
		t.Fatalf("%s mean = %f, want %f", col.Name, col.Mean, mean(vals))
	}
	if !almostEqual(col.Std, sampleStd(vals), 1e-6) {
		t.Fatalf("%s std = %f, want %f", col.Name, col.Std, sampleStd(vals))
	}
}

func checkNumSummary(t *testing.T, s NumSummary, vals []float64) {
	t.Helper()
	if s.Count != len(vals) {
		t.Fatalf("summary count = %d, want %d", s.Count, len(vals))
	}
	if !almostEqual(s.Min, minFloat(vals), 1e-6) {
		t.Fatalf("summary min = %f, want %f", s.Min, minFloat(vals))
	}
	if !almostEqual(s.Max, maxFloat(vals), 1e-6) {
		t.Fatalf("summary max = %f, want %f", s.Max, maxFloat(vals))
	}
	if !almostEqual(s.Mean, mean(vals), 1e-6) {
		t.Fatalf("summary mean = %f, want %f", s.Mean, mean(vals))
	}
}

func robustOutlierStats(vals []float64, threshold float64) (count int, maxAbs float64) {
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	med := table.QuantileSorted(cp, 0.5)
	devs := make([]float64, len(cp))
	for i, v := range cp {
		devs[i] = math.Abs(v - med)
	}
	sort.Float64s(devs)
	mad := table.QuantileSorted(devs, 0.5)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range cp {
		az := math.Abs(0.6745 * (v - med) / mad)
		if az > threshold {
			count++
		}
		if az > maxAbs {
			maxAbs = az
		}
	}
	return
}

func subset(vals []float64, idxs []int) []float64 {
	out := make([]float64, len(idxs))
	for i, idx := range idxs {
		out[i] = vals[idx]
	}
	return out
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	var sum float64
	for _, v := range vals {
		diff := v - m
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(vals)-1))
}

func minFloat(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxFloat(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func correlation(a, b []float64) float64 {
	ma := mean(a)
	mb := mean(b)
	var num, da2, db2 float64
	for i := range a {
		da := a[i] - ma
		db := b[i] - mb
		num += da * db
		da2 += da * da
		db2 += db * db
	}
	if da2 == 0 || db2 == 0 {
		return 0
	}
	return num / math.Sqrt(da2*db2)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestProfileZeroSampleRowsOmitsSamples(t *testing.T) {
	tb, err := table.FromRows([]string{"col1", "col2"}, [][]table.Value{
		{table.Text("A"), table.Int(1)},
		{table.Text("B"), table.Int(2)},
	})
	if err != nil {
		t.Fatal(err)
	}
	opt := DefaultOptions()
	opt.SampleRows = 0
	rep, err := Profile("metrics", tb, opt)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if len(rep.Samples) != 0 {
		t.Fatalf("expected no samples, got %d", len(rep.Samples))
	}
	if strings.Contains(rep.Markdown(), "[HEAD AND SAMPLE ROWS]") {
		t.Fatal("sample section rendered with SampleRows=0")
	}

	opt.SampleRows = -1
	rep, err = Profile("metrics", tb, opt)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if len(rep.Samples) != 2 {
		t.Fatalf("negative SampleRows should use the default, got %d samples", len(rep.Samples))
	}
}
