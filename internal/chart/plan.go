package chart

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/edakit/internal/analysis"
	"github.com/KaramelBytes/edakit/internal/table"
)

// Type names a chart kind in a Plan.
type Type string

const (
	TypeLine      Type = "line"
	TypeBox       Type = "box"
	TypeScatter   Type = "scatter"
	TypeHeatmap   Type = "heatmap"
	TypeBar       Type = "bar"
	TypeHistogram Type = "histogram"
	TypeCount     Type = "count"
)

// Plan describes one chart. Which of the column fields are read depends on
// Type: Line uses X (time, parsed with Layout) and Y; Heatmap uses Y as the
// correlated columns; the others use X, the first Y and Hue.
type Plan struct {
	Type   Type     `yaml:"type" json:"type" validate:"required,oneof=line box scatter heatmap bar histogram count"`
	File   string   `yaml:"file" json:"file" validate:"required"`
	Title  string   `yaml:"title,omitempty" json:"title,omitempty"`
	X      string   `yaml:"x,omitempty" json:"x,omitempty"`
	Y      []string `yaml:"y,omitempty" json:"y,omitempty"`
	Hue    string   `yaml:"hue,omitempty" json:"hue,omitempty"`
	Layout string   `yaml:"layout,omitempty" json:"layout,omitempty"`
	Bins   int      `yaml:"bins,omitempty" json:"bins,omitempty"`
}

func (p Plan) y0() string {
	if len(p.Y) == 0 {
		return ""
	}
	return p.Y[0]
}

// Render draws the plan into dir and returns the written path.
func Render(t *table.Table, p Plan, dir string) (string, error) {
	if t == nil {
		return "", table.ErrNilTable
	}
	path := filepath.Join(dir, p.File)
	o := Options{Title: p.Title}
	var err error
	switch p.Type {
	case TypeLine:
		err = Line(t, p.X, p.Layout, p.Y, path, o)
	case TypeBox:
		err = Box(t, p.X, p.y0(), path, o)
	case TypeScatter:
		err = Scatter(t, p.X, p.y0(), p.Hue, path, o)
	case TypeHeatmap:
		var m *analysis.CorrMatrix
		if m, err = analysis.Correlations(t, p.Y); err == nil {
			err = Heatmap(m.Columns, m.Values, path, o)
		}
	case TypeBar:
		err = Bar(t, p.X, p.y0(), path, o)
	case TypeHistogram:
		err = Histogram(t, p.X, p.Bins, path, o)
	case TypeCount:
		err = Count(t, p.X, p.Hue, path, o)
	default:
		err = fmt.Errorf("unknown chart type %q", p.Type)
	}
	if err != nil {
		return "", fmt.Errorf("%s chart %s: %w", p.Type, p.File, err)
	}
	return path, nil
}

// RenderAll draws every plan, stopping at the first failure.
func RenderAll(t *table.Table, plans []Plan, dir string) ([]string, error) {
	var out []string
	for _, p := range plans {
		path, err := Render(t, p, dir)
		if err != nil {
			return out, err
		}
		out = append(out, path)
	}
	return out, nil
}
