package table

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"testing"
)

func sample() *Table {
	return MustNew(
		[]string{"month", "type", "reach"},
		[][]Value{
			{Int(3), Int(3), Int(7), Int(12), Int(7)},
			{Text("Photo"), Text("Link"), Text("Photo"), Text("Status"), Missing()},
			{Float(10), Float(20), Float(30), Missing(), Float(50)},
		},
	)
}

func randomTable(rng *rand.Rand) *Table {
	nCols := 1 + rng.Intn(4)
	nRows := rng.Intn(6)
	names := make([]string, nCols)
	cols := make([][]Value, nCols)
	for c := range cols {
		names[c] = "c" + strconv.Itoa(c)
		cols[c] = make([]Value, nRows)
		for r := range cols[c] {
			switch rng.Intn(5) {
			case 0:
				cols[c][r] = Missing()
			case 1:
				cols[c][r] = Int(int64(rng.Intn(10)))
			case 2:
				cols[c][r] = Float(rng.Float64())
			case 3:
				cols[c][r] = Text(string(rune('a' + rng.Intn(3))))
			default:
				cols[c][r] = Bool(rng.Intn(2) == 1)
			}
		}
	}
	return MustNew(names, cols)
}

func TestNewRejectsDuplicatesAndRaggedColumns(t *testing.T) {
	if _, err := New([]string{"a", "a"}, [][]Value{{Int(1)}, {Int(2)}}); err == nil {
		t.Fatalf("expected duplicate column error")
	}
	if _, err := New([]string{"a", "b"}, [][]Value{{Int(1)}, {}}); err == nil {
		t.Fatalf("expected ragged column error")
	}
}

func TestSchemaInference(t *testing.T) {
	tb := sample()
	s := tb.Schema()
	if s[0].Kind != KindInt || s[1].Kind != KindText || s[2].Kind != KindFloat {
		t.Fatalf("unexpected schema: %+v", s)
	}
}

func TestTransposeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		tb := randomTable(rng)
		if i%3 == 0 {
			labels := make([]string, tb.NumRows())
			for r := range labels {
				labels[r] = "row" + strconv.Itoa(r)
			}
			var err error
			if tb, err = tb.WithIndex(labels); err != nil {
				t.Fatalf("index: %v", err)
			}
		}
		once, err := Transpose(tb)
		if err != nil {
			t.Fatalf("transpose: %v", err)
		}
		if once.NumRows() != tb.NumCols() || once.NumCols() != tb.NumRows() {
			t.Fatalf("transpose shape %dx%d from %dx%d", once.NumRows(), once.NumCols(), tb.NumRows(), tb.NumCols())
		}
		twice, err := Transpose(once)
		if err != nil {
			t.Fatalf("transpose twice: %v", err)
		}
		if !twice.Equal(tb) {
			t.Fatalf("round trip mismatch:\n%s\nvs\n%s", tb.Markdown(-1), twice.Markdown(-1))
		}
	}
}

func TestTransposeLabels(t *testing.T) {
	tb := MustNew([]string{"a", "b"}, [][]Value{{Int(1), Int(2)}, {Text("x"), Text("y")}})
	tr, err := Transpose(tb)
	if err != nil {
		t.Fatalf("transpose: %v", err)
	}
	if got := tr.Columns(); got[0] != "0" || got[1] != "1" {
		t.Fatalf("columns = %v", got)
	}
	if got := tr.Index(); got[0] != "a" || got[1] != "b" {
		t.Fatalf("index = %v", got)
	}
	if tr.Schema()[0].Kind != KindMixed {
		t.Fatalf("expected mixed kind after transpose, got %s", tr.Schema()[0].Kind)
	}
}

func TestSubsetColumnsAndRows(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		tb := randomTable(rng)
		names := tb.Columns()
		rng.Shuffle(len(names), func(a, b int) { names[a], names[b] = names[b], names[a] })
		pick := names[:rng.Intn(len(names)+1)]
		sub, err := Subset(tb, pick)
		if err != nil {
			t.Fatalf("subset: %v", err)
		}
		got := sub.Columns()
		if len(got) != len(pick) {
			t.Fatalf("columns %v want %v", got, pick)
		}
		for j := range got {
			if got[j] != pick[j] {
				t.Fatalf("columns %v want %v", got, pick)
			}
		}
		if sub.NumRows() != tb.NumRows() {
			t.Fatalf("rows %d want %d", sub.NumRows(), tb.NumRows())
		}
	}
}

func TestSubsetMissingColumn(t *testing.T) {
	_, err := Subset(sample(), []string{"month", "nope"})
	var cnf *ColumnNotFoundError
	if !errors.As(err, &cnf) || cnf.Name != "nope" {
		t.Fatalf("expected ColumnNotFoundError for nope, got %v", err)
	}
	if !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("errors.Is(ErrColumnNotFound) failed")
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	out, err := Filter(sample(), Eq("type", Text("Photo")))
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	col, _ := out.Column("reach")
	if len(col) != 2 || !col[0].Equal(Float(10)) || !col[1].Equal(Float(30)) {
		t.Fatalf("unexpected rows: %v", col)
	}
}

func TestFilterTypeMismatchAbortsAll(t *testing.T) {
	_, err := Filter(sample(), Gt("type", Int(1)))
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
}

func TestFilterNumericComparisons(t *testing.T) {
	out, err := Filter(sample(), And(Ge("month", Int(7)), Lt("reach", Float(40))))
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if out.NumRows() != 1 {
		t.Fatalf("rows = %d, want 1", out.NumRows())
	}
}

func joinRows(t *testing.T, tb *Table, cols []string) []string {
	t.Helper()
	var out []string
	for r := 0; r < tb.NumRows(); r++ {
		s := ""
		for _, c := range cols {
			v, err := tb.At(r, c)
			if err != nil {
				t.Fatalf("at: %v", err)
			}
			s += v.Kind().String() + ":" + v.String() + "|"
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func TestInnerJoinCommutative(t *testing.T) {
	a := MustNew([]string{"k", "x"}, [][]Value{
		{Int(1), Int(1), Int(2), Missing(), Int(4)},
		{Text("a1"), Text("a2"), Text("a3"), Text("a4"), Text("a5")},
	})
	b := MustNew([]string{"k", "y"}, [][]Value{
		{Int(1), Float(2), Int(2), Int(3), Missing()},
		{Text("b1"), Text("b2"), Text("b3"), Text("b4"), Text("b5")},
	})
	ab, err := InnerJoin(a, b, "k")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	ba, err := InnerJoin(b, a, "k")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if ab.NumRows() != 4 {
		t.Fatalf("rows = %d, want 4 (two for k=1, two for k=2)", ab.NumRows())
	}
	l := joinRows(t, ab, []string{"x", "y"})
	r := joinRows(t, ba, []string{"x", "y"})
	if len(l) != len(r) {
		t.Fatalf("row sets differ: %v vs %v", l, r)
	}
	for i := range l {
		if l[i] != r[i] {
			t.Fatalf("row sets differ: %v vs %v", l, r)
		}
	}
}

func TestInnerJoinCollisionsAndMissingKey(t *testing.T) {
	a := MustNew([]string{"k", "v"}, [][]Value{{Int(1)}, {Int(10)}})
	b := MustNew([]string{"k", "v"}, [][]Value{{Int(1)}, {Int(20)}})
	out, err := InnerJoin(a, b, "k")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if got := out.Columns(); len(got) != 3 || got[2] != "v"+RightSuffix {
		t.Fatalf("columns = %v", got)
	}
	_, err = InnerJoin(a, MustNew([]string{"z"}, [][]Value{{Int(1)}}), "k")
	var mk *MissingKeyError
	if !errors.As(err, &mk) || mk.Side != "right" {
		t.Fatalf("expected MissingKeyError on right, got %v", err)
	}
}

func TestSortDescThenAscIsStable(t *testing.T) {
	tb := MustNew([]string{"v", "id"}, [][]Value{
		{Int(2), Int(1), Int(2), Int(3), Int(1), Int(2)},
		{Int(0), Int(1), Int(2), Int(3), Int(4), Int(5)},
	})
	desc, err := SortDescending(tb, "v")
	if err != nil {
		t.Fatalf("desc: %v", err)
	}
	asc, err := SortAscending(desc, "v")
	if err != nil {
		t.Fatalf("asc: %v", err)
	}
	ids, _ := asc.Column("id")
	want := []int64{1, 4, 0, 2, 5, 3}
	for i, w := range want {
		if n, _ := ids[i].Int(); n != w {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestSortMissingPlacement(t *testing.T) {
	tb := MustNew([]string{"v"}, [][]Value{{Int(2), Missing(), Int(1)}})
	asc, _ := SortAscending(tb, "v")
	if col, _ := asc.Column("v"); !col[2].IsMissing() {
		t.Fatalf("ascending should put missing last: %v", col)
	}
	desc, _ := SortDescending(tb, "v")
	if col, _ := desc.Column("v"); !col[0].IsMissing() {
		t.Fatalf("descending should put missing first: %v", col)
	}
	forced, _ := Sort(tb, "v", SortOptions{Descending: true, Missing: MissingLast})
	if col, _ := forced.Column("v"); !col[2].IsMissing() {
		t.Fatalf("MissingLast ignored: %v", col)
	}
}

func TestSortIncomparable(t *testing.T) {
	tb := MustNew([]string{"v"}, [][]Value{{Int(2), Text("x")}})
	if _, err := SortAscending(tb, "v"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	if _, err := SortAscending(tb, "nope"); !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("expected column not found, got %v", err)
	}
}

func TestDescribeShape(t *testing.T) {
	r, c, err := DescribeShape(sample())
	if err != nil || r != 5 || c != 3 {
		t.Fatalf("shape = %d,%d,%v", r, c, err)
	}
	if _, _, err := DescribeShape(nil); !errors.Is(err, ErrNilTable) {
		t.Fatalf("expected ErrNilTable, got %v", err)
	}
}

func TestPivotMeanIgnoresMissing(t *testing.T) {
	tb := MustNew([]string{"month", "area"}, [][]Value{
		{Int(3), Int(3), Int(7), Int(7), Int(3)},
		{Float(1), Float(2), Float(5), Missing(), Float(3)},
	})
	out, err := Pivot(tb, PivotSpec{RowKey: "month", Value: "area"})
	if err != nil {
		t.Fatalf("pivot: %v", err)
	}
	months, _ := out.Column("month")
	areas, _ := out.Column("area")
	if len(months) != 2 {
		t.Fatalf("rows = %d", len(months))
	}
	if m, _ := months[0].Int(); m != 3 {
		t.Fatalf("first month = %v", months[0])
	}
	if f, _ := areas[0].Float(); f != 2.0 {
		t.Fatalf("month 3 mean = %v, want 2", areas[0])
	}
	if f, _ := areas[1].Float(); f != 5.0 {
		t.Fatalf("month 7 mean = %v, want 5", areas[1])
	}
}

func TestPivotColumnCategoryCollidingWithRowKey(t *testing.T) {
	tb := MustNew([]string{"k", "c", "v"}, [][]Value{
		{Text("a"), Text("a"), Text("b")},
		{Text("k"), Text("x"), Text("k")},
		{Int(1), Int(2), Int(3)},
	})
	out, err := Pivot(tb, PivotSpec{RowKey: "k", ColKey: "c", Value: "v", Agg: AggSum})
	if err != nil {
		t.Fatalf("pivot: %v", err)
	}
	if got := out.Columns(); len(got) != 3 || got[0] != "k" || got[1] != "k_2" || got[2] != "x" {
		t.Fatalf("columns = %v", got)
	}
	v, _ := out.At(1, "k_2")
	if f, _ := v.Float(); f != 3 {
		t.Fatalf("b/k = %v, want 3", v)
	}
}

func TestPivotCountMatchesGroupSizes(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	sizes := map[[2]int64]int64{}
	var rk, ck, vals []Value
	for i := 0; i < 300; i++ {
		a, b := int64(rng.Intn(4)), int64(rng.Intn(3))
		sizes[[2]int64{a, b}]++
		rk = append(rk, Int(a))
		ck = append(ck, Int(b))
		vals = append(vals, Float(rng.Float64()))
	}
	tb := MustNew([]string{"r", "c", "v"}, [][]Value{rk, ck, vals})
	out, err := Pivot(tb, PivotSpec{RowKey: "r", ColKey: "c", Value: "v", Agg: AggCount})
	if err != nil {
		t.Fatalf("pivot: %v", err)
	}
	rows, _ := out.Column("r")
	for i, rv := range rows {
		a, _ := rv.Int()
		for _, name := range out.Columns()[1:] {
			b, _ := strconv.ParseInt(name, 10, 64)
			cell, _ := out.At(i, name)
			want := sizes[[2]int64{a, b}]
			if want == 0 {
				if !cell.IsMissing() {
					t.Fatalf("(%d,%d) unobserved but got %v", a, b, cell)
				}
				continue
			}
			if n, _ := cell.Int(); n != want {
				t.Fatalf("(%d,%d) count = %v, want %d", a, b, cell, want)
			}
		}
	}
}

func TestPivotUnobservedCombinationIsMissing(t *testing.T) {
	tb := MustNew([]string{"m", "t", "v"}, [][]Value{
		{Int(1), Int(2)},
		{Text("Photo"), Text("Link")},
		{Float(1), Float(2)},
	})
	out, err := Pivot(tb, PivotSpec{RowKey: "m", ColKey: "t", Value: "v", Agg: AggSum})
	if err != nil {
		t.Fatalf("pivot: %v", err)
	}
	if got := out.Columns(); got[1] != "Link" || got[2] != "Photo" {
		t.Fatalf("columns %v not sorted", got)
	}
	if v, _ := out.At(0, "Link"); !v.IsMissing() {
		t.Fatalf("expected missing marker, got %v", v)
	}
}

func TestGroupByMultipleKeys(t *testing.T) {
	out, err := GroupBy(sample(), GroupSpec{Keys: []string{"month", "type"}, Value: "reach", Agg: AggSum})
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if out.NumRows() != 4 {
		t.Fatalf("rows = %d, want 4 (row with missing type dropped)", out.NumRows())
	}
	if got := out.Columns(); got[2] != "sum_reach" {
		t.Fatalf("columns = %v", got)
	}
}

func TestAggregatorEmpty(t *testing.T) {
	if _, err := AggMean.Apply(nil); !errors.Is(err, ErrEmptyGroup) {
		t.Fatalf("mean of nothing: %v", err)
	}
	if v, err := AggCount.Apply(nil); err != nil || v != 0 {
		t.Fatalf("count of nothing = %v, %v", v, err)
	}
	if v, _ := AggMedian.Apply([]float64{5, 1, 3, 2}); v != 2.5 {
		t.Fatalf("median = %v", v)
	}
}

func TestCleanMarkersSentinelsAndCoercion(t *testing.T) {
	tb := MustNew([]string{"ca", "co", "empty"}, [][]Value{
		{Text("1.0"), Text("?"), Text("0"), Text("2")},
		{Int(5), Int(-200), Int(7), Int(-200)},
		{Missing(), Missing(), Missing(), Missing()},
	})
	out, err := Clean(tb, CleanRules{
		MissingMarkers:   []string{"?"},
		DropEmptyColumns: true,
		Coerce:           []string{"ca"},
		DropMissing:      []string{"ca"},
		Sentinels:        []Sentinel{{Column: "co", Value: Int(-200)}},
		Strict:           true,
	})
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if out.Has("empty") {
		t.Fatalf("empty column kept")
	}
	if out.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", out.NumRows())
	}
	if out.Schema()[0].Kind != KindFloat {
		t.Fatalf("ca kind = %s", out.Schema()[0].Kind)
	}
}

func TestCleanCoercionStrictness(t *testing.T) {
	tb := MustNew([]string{"x"}, [][]Value{{Text("1"), Text("abc"), Text("2.5")}})
	if _, err := Clean(tb, CleanRules{Coerce: []string{"x"}, Strict: true}); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("strict coercion: %v", err)
	}
	out, err := Clean(tb, CleanRules{Coerce: []string{"x"}})
	if err != nil {
		t.Fatalf("lenient coercion: %v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", out.NumRows())
	}
}

func TestScale(t *testing.T) {
	tb := MustNew([]string{"x", "c"}, [][]Value{
		{Float(1), Float(2), Float(3), Missing()},
		{Int(4), Int(4), Int(4), Int(4)},
	})
	out, err := Scale(tb, []string{"x", "c"}, ScaleOptions{})
	if err != nil {
		t.Fatalf("scale: %v", err)
	}
	xs, _ := out.Floats("x")
	std := math.Sqrt(2.0 / 3.0)
	for i, want := range []float64{-1 / std, 0, 1 / std} {
		if math.Abs(xs[i]-want) > 1e-12 {
			t.Fatalf("x[%d] = %v, want %v", i, xs[i], want)
		}
	}
	if !math.IsNaN(xs[3]) {
		t.Fatalf("missing not kept: %v", xs[3])
	}
	cs, _ := out.Floats("c")
	for _, c := range cs {
		if c != 0 {
			t.Fatalf("zero-std column should scale to 0, got %v", cs)
		}
	}
	if _, err := Scale(sample(), []string{"type"}, ScaleOptions{}); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
}

func TestScaleSuffixKeepsOriginal(t *testing.T) {
	out, err := Scale(sample(), []string{"reach"}, ScaleOptions{Suffix: "_scaled"})
	if err != nil {
		t.Fatalf("scale: %v", err)
	}
	if !out.Has("reach") || !out.Has("reach_scaled") {
		t.Fatalf("columns = %v", out.Columns())
	}
}

func TestScaleStatsAppliedToOtherTable(t *testing.T) {
	train := MustNew([]string{"x"}, [][]Value{{Float(1), Float(3), Missing()}})
	params, err := ScaleStats(train, []string{"x"})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(params) != 1 || params[0].Mean != 2 || params[0].Std != 1 {
		t.Fatalf("params = %+v", params)
	}
	test := MustNew([]string{"x"}, [][]Value{{Int(4), Int(0)}})
	out, err := ScaleWith(test, params, ScaleOptions{Suffix: "_z"})
	if err != nil {
		t.Fatalf("scale with: %v", err)
	}
	zs, _ := out.Floats("x_z")
	if zs[0] != 2 || zs[1] != -2 {
		t.Fatalf("x_z = %v", zs)
	}
	if _, err := ScaleWith(test, []ScaleParams{{Column: "nope"}}, ScaleOptions{}); !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("want ErrColumnNotFound, got %v", err)
	}
}

func TestClipAtQuantile(t *testing.T) {
	tb := MustNew([]string{"v"}, [][]Value{{Int(1), Int(2), Int(3), Int(1000)}})
	q, err := Quantile(tb, "v", 0.99)
	if err != nil {
		t.Fatalf("quantile: %v", err)
	}
	if math.Abs(q-970.09) > 1e-9 {
		t.Fatalf("q0.99 = %v, want 970.09", q)
	}
	out, err := Clip(tb, "v", Fixed(0), AtQuantile(0.99))
	if err != nil {
		t.Fatalf("clip: %v", err)
	}
	vs, _ := out.Floats("v")
	for i, want := range []float64{1, 2, 3, q} {
		if vs[i] != want {
			t.Fatalf("clipped = %v", vs)
		}
	}
}

func TestClipRejectsText(t *testing.T) {
	if _, err := Clip(sample(), "type", Unbounded(), Fixed(1)); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
}

func TestOneHotDropFirst(t *testing.T) {
	tb := MustNew([]string{"id", "cat"}, [][]Value{
		{Int(1), Int(2), Int(3), Int(4)},
		{Text("C"), Text("A"), Text("B"), Text("A")},
	})
	out, err := OneHotEncode(tb, []string{"cat"}, OneHotOptions{DropFirst: true, Prefix: "is"})
	if err != nil {
		t.Fatalf("onehot: %v", err)
	}
	got := out.Columns()
	if len(got) != 3 || got[1] != "is_B" || got[2] != "is_C" {
		t.Fatalf("columns = %v", got)
	}
	b, _ := out.At(1, "is_B")
	c, _ := out.At(1, "is_C")
	if !b.Equal(Int(0)) || !c.Equal(Int(0)) {
		t.Fatalf("row A encoded as (%v,%v)", b, c)
	}
	c, _ = out.At(0, "is_C")
	if !c.Equal(Int(1)) {
		t.Fatalf("row C is_C = %v", c)
	}
}

func TestOneHotMixedKindCategories(t *testing.T) {
	tb := MustNew([]string{"c"}, [][]Value{{Int(3), Text("3"), Int(3)}})
	out, err := OneHotEncode(tb, []string{"c"}, OneHotOptions{})
	if err != nil {
		t.Fatalf("one-hot: %v", err)
	}
	if !out.Has("c_3") || !out.Has("c_3_2") || out.NumCols() != 2 {
		t.Fatalf("columns = %v", out.Columns())
	}
	a, _ := out.Floats("c_3")
	b, _ := out.Floats("c_3_2")
	for r := 0; r < 3; r++ {
		if a[r]+b[r] != 1 {
			t.Fatalf("row %d indicators %v/%v do not partition", r, a[r], b[r])
		}
	}
}

func TestOneHotKeepAll(t *testing.T) {
	out, err := OneHotEncode(sample(), []string{"type"}, OneHotOptions{})
	if err != nil {
		t.Fatalf("onehot: %v", err)
	}
	for _, name := range []string{"type_Link", "type_Photo", "type_Status"} {
		if !out.Has(name) {
			t.Fatalf("missing %s in %v", name, out.Columns())
		}
	}
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	ids := make([]Value, 100)
	for i := range ids {
		ids[i] = Int(int64(i))
	}
	tb := MustNew([]string{"id"}, [][]Value{ids})
	train, test, err := TrainTestSplit(tb, "id", 0.2, 42)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if train.NumRows() != 80 || test.NumRows() != 20 {
		t.Fatalf("sizes %d/%d", train.NumRows(), test.NumRows())
	}
	train2, test2, _ := TrainTestSplit(tb, "id", 0.2, 42)
	if !train.Equal(train2) || !test.Equal(test2) {
		t.Fatalf("split not deterministic")
	}
	seen := map[int64]bool{}
	for _, part := range []*Table{train, test} {
		col, _ := part.Column("id")
		for _, v := range col {
			n, _ := v.Int()
			if seen[n] {
				t.Fatalf("row %d in both partitions", n)
			}
			seen[n] = true
		}
	}
	if len(seen) != 100 {
		t.Fatalf("partition covers %d rows", len(seen))
	}
}

func TestTrainTestSplitParameters(t *testing.T) {
	for _, f := range []float64{0, 1, -0.1, 1.5, math.NaN()} {
		_, _, err := TrainTestSplit(sample(), "reach", f, 1)
		var spe *SplitParameterError
		if !errors.As(err, &spe) {
			t.Fatalf("fraction %v: expected SplitParameterError, got %v", f, err)
		}
	}
	if _, _, err := TrainTestSplit(sample(), "nope", 0.5, 1); !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("expected column not found, got %v", err)
	}
}

func TestDerivations(t *testing.T) {
	tb := MustNew([]string{"Date", "target"}, [][]Value{
		{Text("10/03/2004"), Text("11/04/2005")},
		{Int(0), Int(3)},
	})
	out, err := DateParts(tb, "Date", "02/01/2006", Year, Month)
	if err != nil {
		t.Fatalf("date parts: %v", err)
	}
	if v, _ := out.At(1, "Month"); !v.Equal(Int(4)) {
		t.Fatalf("month = %v", v)
	}
	if v, _ := out.At(0, "Year"); !v.Equal(Int(2004)) {
		t.Fatalf("year = %v", v)
	}
	out, err = Map(out, "target", "", Binarize(0))
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if v, _ := out.At(1, "target"); !v.Equal(Int(1)) {
		t.Fatalf("binarized = %v", v)
	}
	out, err = WithRowNumber(out, "patient_id", 1)
	if err != nil {
		t.Fatalf("row number: %v", err)
	}
	if v, _ := out.At(1, "patient_id"); !v.Equal(Int(2)) {
		t.Fatalf("patient_id = %v", v)
	}
}

func TestPipelineStopsAtFirstFailure(t *testing.T) {
	var ran []string
	p := &Pipeline{OnStep: func(r StepResult, _ *Table) { ran = append(ran, r.Name) }}
	p.Then("subset", func(t *Table) (*Table, error) { return Subset(t, []string{"month", "reach"}) }).
		Then("scale type", func(t *Table) (*Table, error) { return Scale(t, []string{"type"}, ScaleOptions{}) }).
		Then("never", func(t *Table) (*Table, error) { return t, nil })
	_, results, err := p.Run(sample())
	if !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("expected column not found, got %v", err)
	}
	if len(results) != 1 || len(ran) != 1 || ran[0] != "subset" {
		t.Fatalf("ran = %v", ran)
	}
}

func TestMarkdownPreview(t *testing.T) {
	md := sample().Markdown(2)
	want := "| month | type | reach |\n|---|---|---|\n| 3 | Photo | 10 |\n| 3 | Link | 20 |\n\n_2 of 5 rows shown_\n"
	if md != want {
		t.Fatalf("markdown =\n%s\nwant\n%s", md, want)
	}
}
