// Package recipe reads declarative pipeline definitions from YAML and
// compiles them into table pipelines.
package recipe

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/edakit/internal/chart"
	"github.com/KaramelBytes/edakit/internal/ingest"
	"github.com/KaramelBytes/edakit/internal/model"
	"github.com/KaramelBytes/edakit/internal/table"
)

// Input is a file plus the options needed to parse it.
type Input struct {
	Path      string   `yaml:"path" validate:"required"`
	Delimiter string   `yaml:"delimiter,omitempty"`
	Decimal   string   `yaml:"decimal,omitempty"`
	Thousands string   `yaml:"thousands,omitempty"`
	Names     []string `yaml:"names,omitempty"`
	Missing   []string `yaml:"missing,omitempty"`
	MaxRows   int      `yaml:"max_rows,omitempty" validate:"min=0"`
	Sheet     string   `yaml:"sheet,omitempty"`
}

// Options converts the textual settings to ingest options.
func (in Input) Options() (ingest.Options, error) {
	opt := ingest.Options{Names: in.Names, MissingMarkers: in.Missing, MaxRows: in.MaxRows, Sheet: in.Sheet}
	var err error
	if in.Delimiter != "" {
		if opt.Delimiter, err = ingest.ParseDelimiter(in.Delimiter); err != nil {
			return opt, err
		}
	}
	if opt.DecimalSeparator, err = ingest.ParseDecimal(in.Decimal); err != nil {
		return opt, err
	}
	if opt.ThousandsSeparator, err = ingest.ParseThousands(in.Thousands); err != nil {
		return opt, err
	}
	return opt, nil
}

// Condition is one comparison of a filter step.
type Condition struct {
	Column string `yaml:"column" validate:"required"`
	Op     string `yaml:"op" validate:"required,oneof=== != > >= < <="`
	Value  any    `yaml:"value"`
}

// Bound is a clip bound: a fixed value or a quantile in [0,1].
type Bound struct {
	Value    *float64 `yaml:"value,omitempty"`
	Quantile *float64 `yaml:"quantile,omitempty" validate:"omitempty,min=0,max=1"`
}

// Step is one pipeline operation. Only the fields of its Op are read.
type Step struct {
	Op   string `yaml:"op" validate:"required,oneof=subset filter clean sort scale clip onehot head slice transpose pivot group join drop rename binarize rownumber dateparts"`
	Name string `yaml:"name,omitempty"`

	Columns []string    `yaml:"columns,omitempty"`
	Column  string      `yaml:"column,omitempty"`
	Where   []Condition `yaml:"where,omitempty" validate:"dive"`

	// clean
	MissingMarkers   []string         `yaml:"missing_markers,omitempty"`
	DropEmptyColumns bool             `yaml:"drop_empty_columns,omitempty"`
	DropMissing      []string         `yaml:"drop_missing,omitempty"`
	DropAnyMissing   bool             `yaml:"drop_any_missing,omitempty"`
	Sentinels        []map[string]any `yaml:"sentinels,omitempty"`
	Coerce           []string         `yaml:"coerce,omitempty"`
	Strict           bool             `yaml:"strict,omitempty"`

	// sort
	Descending bool   `yaml:"descending,omitempty"`
	Missing    string `yaml:"missing,omitempty" validate:"omitempty,oneof=first last"`

	// scale
	Suffix string `yaml:"suffix,omitempty"`

	// clip
	Lower *Bound `yaml:"lower,omitempty"`
	Upper *Bound `yaml:"upper,omitempty"`

	// onehot
	DropFirst bool   `yaml:"drop_first,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Separator string `yaml:"separator,omitempty"`

	// head / slice
	N     int `yaml:"n,omitempty" validate:"min=0"`
	Start int `yaml:"start,omitempty" validate:"min=0"`
	End   int `yaml:"end,omitempty" validate:"min=0"`

	// pivot / group
	Index  string   `yaml:"index,omitempty"`
	Pivot  string   `yaml:"pivot,omitempty"`
	Keys   []string `yaml:"keys,omitempty"`
	Values string   `yaml:"values,omitempty"`
	Agg    string   `yaml:"agg,omitempty"`

	// join
	With string `yaml:"with,omitempty"`
	On   string `yaml:"on,omitempty"`

	// rename / map / derive
	As        string   `yaml:"as,omitempty"`
	Threshold float64  `yaml:"threshold,omitempty"`
	Layout    string   `yaml:"layout,omitempty"`
	Parts     []string `yaml:"parts,omitempty"`
}

func (s Step) label(i int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%s#%d", s.Op, i+1)
}

// ModelStep fits a model after the pipeline finishes.
type ModelStep struct {
	Spec         model.Spec `yaml:"spec"`
	Features     []string   `yaml:"features" validate:"required,min=1"`
	Target       string     `yaml:"target" validate:"required"`
	TestFraction float64    `yaml:"test_fraction" validate:"omitempty,gt=0,lt=1"`
}

// Recipe is a whole document.
type Recipe struct {
	Name   string           `yaml:"name" validate:"required"`
	Input  Input            `yaml:"input"`
	Inputs map[string]Input `yaml:"inputs,omitempty" validate:"dive"`
	Steps  []Step           `yaml:"steps" validate:"required,min=1,dive"`
	Output string           `yaml:"output,omitempty"`
	Charts []chart.Plan     `yaml:"charts,omitempty" validate:"dive"`
	Model  *ModelStep       `yaml:"model,omitempty"`

	dir string
}

var validate = validator.New()

// Parse decodes and validates a recipe. Relative input paths resolve
// against dir.
func Parse(data []byte, dir string) (*Recipe, error) {
	var r Recipe
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("parse recipe: %w", err)
	}
	r.dir = dir
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Load reads and parses a recipe file.
func Load(path string) (*Recipe, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe: %w", err)
	}
	return Parse(b, filepath.Dir(path))
}

// Validate checks field constraints and cross references between steps and
// inputs.
func (r *Recipe) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid recipe: %w", err)
	}
	if r.Model != nil {
		if err := r.Model.Spec.Validate(); err != nil {
			return fmt.Errorf("invalid recipe: %w", err)
		}
	}
	var errs []error
	for i, s := range r.Steps {
		if err := s.check(r.Inputs); err != nil {
			errs = append(errs, fmt.Errorf("step %d (%s): %w", i+1, s.Op, err))
		}
	}
	return errors.Join(errs...)
}

func (s Step) check(inputs map[string]Input) error {
	need := func(field string, ok bool) error {
		if !ok {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
	switch s.Op {
	case "subset", "scale", "onehot", "drop":
		return need("columns", len(s.Columns) > 0)
	case "filter":
		return need("where", len(s.Where) > 0)
	case "sort", "clip", "binarize", "dateparts":
		return need("column", s.Column != "")
	case "rename":
		return need("column and as", s.Column != "" && s.As != "")
	case "rownumber":
		return need("as", s.As != "")
	case "pivot":
		return need("index, pivot and values", s.Index != "" && s.Pivot != "" && s.Values != "")
	case "group":
		return need("keys and values", len(s.Keys) > 0 && s.Values != "")
	case "join":
		if s.With == "" || s.On == "" {
			return errors.New("with and on are required")
		}
		if _, ok := inputs[s.With]; !ok {
			return fmt.Errorf("unknown input %q", s.With)
		}
	}
	return nil
}

// Path resolves a recipe-relative path.
func (r *Recipe) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || r.dir == "" {
		return p
	}
	return filepath.Join(r.dir, p)
}

// Read loads the main input and every named input.
func (r *Recipe) Read() (*table.Table, map[string]*table.Table, error) {
	read := func(in Input) (*table.Table, error) {
		opt, err := in.Options()
		if err != nil {
			return nil, err
		}
		return ingest.ReadFile(r.Path(in.Path), opt)
	}
	main, err := read(r.Input)
	if err != nil {
		return nil, nil, fmt.Errorf("input: %w", err)
	}
	others := make(map[string]*table.Table, len(r.Inputs))
	for name, in := range r.Inputs {
		t, err := read(in)
		if err != nil {
			return nil, nil, fmt.Errorf("input %s: %w", name, err)
		}
		others[name] = t
	}
	return main, others, nil
}
