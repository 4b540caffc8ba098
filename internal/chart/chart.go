// Package chart renders exploratory charts of a table to PNG or SVG files
// with gonum/plot. Missing values are skipped; every chart is written in one
// call and returns the path it produced.
package chart

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/edakit/internal/table"
)

// Options controls titles and canvas size.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Width  vg.Length
	Height vg.Length
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 8 * vg.Inch
	}
	if h <= 0 {
		h = 5 * vg.Inch
	}
	return w, h
}

func newPlot(o Options, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = firstNonEmpty(o.XLabel, x)
	p.Y.Label.Text = firstNonEmpty(o.YLabel, y)
	return p
}

func save(p *plot.Plot, o Options, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".svg":
	default:
		return fmt.Errorf("unsupported chart format %q (use .png or .svg)", filepath.Ext(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	w, h := o.size()
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	slog.Debug("chart written", slog.String("path", path))
	return nil
}

// Line plots one series per value column against a time column parsed with
// layout.
func Line(t *table.Table, timeCol, layout string, values []string, path string, o Options) error {
	ts, err := t.Column(timeCol)
	if err != nil {
		return err
	}
	p := newPlot(o, timeCol, strings.Join(values, ", "))
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	for i, name := range values {
		ys, err := t.Floats(name)
		if err != nil {
			return err
		}
		var pts plotter.XYs
		for r, v := range ts {
			if v.IsMissing() || math.IsNaN(ys[r]) {
				continue
			}
			at, err := time.Parse(layout, v.String())
			if err != nil {
				return fmt.Errorf("row %d: parse %s %q: %w", r, timeCol, v.String(), err)
			}
			pts = append(pts, plotter.XY{X: float64(at.Unix()), Y: ys[r]})
		}
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].X < pts[b].X })
		if len(pts) == 0 {
			continue
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = plotutil.Color(i)
		l.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add(name, l)
	}
	return save(p, o, path)
}

// Box draws one box per distinct value of group.
func Box(t *table.Table, group, value, path string, o Options) error {
	groups, err := groupFloats(t, group, value)
	if err != nil {
		return err
	}
	p := newPlot(o, group, value)
	var names []string
	for _, g := range groups {
		if len(g.vals) == 0 {
			continue
		}
		b, err := plotter.NewBoxPlot(vg.Points(18), float64(len(names)), g.vals)
		if err != nil {
			return fmt.Errorf("box %s=%s: %w", group, g.label, err)
		}
		p.Add(b)
		names = append(names, g.label)
	}
	if len(names) == 0 {
		return fmt.Errorf("box: no values in %q", value)
	}
	p.NominalX(names...)
	return save(p, o, path)
}

// Scatter plots y against x, coloured by a numeric hue column when one is
// given.
func Scatter(t *table.Table, x, y, hue, path string, o Options) error {
	xs, err := t.Floats(x)
	if err != nil {
		return err
	}
	ys, err := t.Floats(y)
	if err != nil {
		return err
	}
	var hs []float64
	if hue != "" {
		if hs, err = t.Floats(hue); err != nil {
			return err
		}
	}
	var pts plotter.XYs
	var hv []float64
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) || (hs != nil && math.IsNaN(hs[i])) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
		if hs != nil {
			hv = append(hv, hs[i])
		}
	}
	if len(pts) == 0 {
		return fmt.Errorf("scatter: no complete (%s, %s) pairs", x, y)
	}
	p := newPlot(o, x, y)
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.GlyphStyle.Radius = vg.Points(2)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	if hv != nil {
		colors := palette.Heat(16, 1).Colors()
		lo, hi := bounds(hv)
		s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			st := s.GlyphStyle
			st.Color = colors[bucket(hv[i], lo, hi, len(colors))]
			return st
		}
		p.Legend.Add(fmt.Sprintf("%s %.3g..%.3g", hue, lo, hi), s)
	}
	p.Add(s)
	return save(p, o, path)
}

// Heatmap draws an annotated square matrix (e.g. correlations in [-1,1]).
func Heatmap(names []string, values [][]float64, path string, o Options) error {
	n := len(names)
	if n == 0 || len(values) != n {
		return fmt.Errorf("heatmap: %d names for %d rows", n, len(values))
	}
	g := grid{vals: values}
	p := newPlot(o, "", "")
	hm := plotter.NewHeatMap(g, palette.Heat(24, 1))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 220}
	p.Add(hm)

	var pts plotter.XYs
	var labels []string
	ticks := make([]plot.Tick, n)
	for i, name := range names {
		ticks[i] = plot.Tick{Value: float64(i), Label: name}
		if len(values[i]) != n {
			return fmt.Errorf("heatmap: row %d has %d values, want %d", i, len(values[i]), n)
		}
		for j, v := range values[i] {
			if math.IsNaN(v) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(j), Y: float64(i)})
			labels = append(labels, fmt.Sprintf("%.2f", v))
		}
	}
	if len(pts) > 0 {
		lb, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: labels})
		if err != nil {
			return err
		}
		p.Add(lb)
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	return save(p, o, path)
}

// Bar draws the mean of value per category.
func Bar(t *table.Table, category, value, path string, o Options) error {
	groups, err := groupFloats(t, category, value)
	if err != nil {
		return err
	}
	var names []string
	var means plotter.Values
	for _, g := range groups {
		if len(g.vals) == 0 {
			continue
		}
		var s float64
		for _, v := range g.vals {
			s += v
		}
		names = append(names, g.label)
		means = append(means, s/float64(len(g.vals)))
	}
	if len(names) == 0 {
		return fmt.Errorf("bar: no values in %q", value)
	}
	p := newPlot(o, category, "mean "+value)
	bars, err := plotter.NewBarChart(means, vg.Points(14))
	if err != nil {
		return err
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(names...)
	return save(p, o, path)
}

// Histogram bins a numeric column; bins <= 0 lets the plotter choose.
func Histogram(t *table.Table, column string, bins int, path string, o Options) error {
	xs, err := t.Floats(column)
	if err != nil {
		return err
	}
	var vals plotter.Values
	for _, v := range xs {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return fmt.Errorf("histogram: no values in %q", column)
	}
	p := newPlot(o, column, "count")
	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return err
	}
	h.FillColor = plotutil.Color(0)
	p.Add(h)
	return save(p, o, path)
}

// Count draws row counts per category, split into side-by-side bars by hue
// when a hue column is given.
func Count(t *table.Table, category, hue, path string, o Options) error {
	cats, catOf, err := categories(t, category)
	if err != nil {
		return err
	}
	hues := []string{""}
	hueOf := make([]int, t.NumRows())
	if hue != "" {
		if hues, hueOf, err = categories(t, hue); err != nil {
			return err
		}
	}
	counts := make([][]float64, len(hues))
	for h := range counts {
		counts[h] = make([]float64, len(cats))
	}
	for r := range catOf {
		if catOf[r] < 0 || hueOf[r] < 0 {
			continue
		}
		counts[hueOf[r]][catOf[r]]++
	}
	p := newPlot(o, category, "count")
	w := vg.Points(12)
	for h, name := range hues {
		bars, err := plotter.NewBarChart(plotter.Values(counts[h]), w)
		if err != nil {
			return err
		}
		bars.Color = plotutil.Color(h)
		bars.Offset = w * vg.Length(h-len(hues)/2)
		p.Add(bars)
		if hue != "" {
			p.Legend.Add(hue+"="+name, bars)
		}
	}
	p.NominalX(cats...)
	return save(p, o, path)
}

type grid struct{ vals [][]float64 }

func (g grid) Dims() (c, r int)   { return len(g.vals), len(g.vals) }
func (g grid) Z(c, r int) float64 { return g.vals[r][c] }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

type floatGroup struct {
	label string
	vals  plotter.Values
}

func groupFloats(t *table.Table, key, value string) ([]floatGroup, error) {
	labels, of, err := categories(t, key)
	if err != nil {
		return nil, err
	}
	vs, err := t.Floats(value)
	if err != nil {
		return nil, err
	}
	out := make([]floatGroup, len(labels))
	for i, l := range labels {
		out[i].label = l
	}
	for r, g := range of {
		if g < 0 || math.IsNaN(vs[r]) {
			continue
		}
		out[g].vals = append(out[g].vals, vs[r])
	}
	return out, nil
}

// categories returns the sorted distinct non-missing values of col and the
// category index of every row (-1 for missing).
func categories(t *table.Table, col string) ([]string, []int, error) {
	vals, err := t.Column(col)
	if err != nil {
		return nil, nil, err
	}
	var distinct []table.Value
	seen := make(map[string]bool)
	for _, v := range vals {
		if v.IsMissing() || seen[v.String()] {
			continue
		}
		seen[v.String()] = true
		distinct = append(distinct, v)
	}
	sort.SliceStable(distinct, func(i, j int) bool {
		c, err := distinct[i].Compare(distinct[j])
		if err != nil {
			return distinct[i].String() < distinct[j].String()
		}
		return c < 0
	})
	labels := make([]string, len(distinct))
	pos := make(map[string]int, len(distinct))
	for i, v := range distinct {
		labels[i] = v.String()
		pos[labels[i]] = i
	}
	of := make([]int, len(vals))
	for r, v := range vals {
		if v.IsMissing() {
			of[r] = -1
			continue
		}
		of[r] = pos[v.String()]
	}
	return labels, of, nil
}

func bounds(xs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range xs {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}

func bucket(v, lo, hi float64, n int) int {
	if hi <= lo {
		return n / 2
	}
	i := int((v - lo) / (hi - lo) * float64(n-1))
	return min(max(i, 0), n-1)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
