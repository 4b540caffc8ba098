package table

import (
	"fmt"
	"log/slog"
	"time"
)

// Step is one named transformation in a Pipeline.
type Step struct {
	Name  string
	Apply func(*Table) (*Table, error)
}

// StepResult records the outcome of one executed step.
type StepResult struct {
	Name     string
	Rows     int
	Cols     int
	Duration time.Duration
}

// Pipeline runs steps in order, each consuming the previous step's output.
type Pipeline struct {
	Steps []Step
	// OnStep, when set, is called after every successful step.
	OnStep func(StepResult, *Table)
}

// Then appends a step and returns the pipeline for chaining.
func (p *Pipeline) Then(name string, fn func(*Table) (*Table, error)) *Pipeline {
	p.Steps = append(p.Steps, Step{Name: name, Apply: fn})
	return p
}

// Run executes every step. The first failing step aborts the run and its
// error is wrapped with the step name.
func (p *Pipeline) Run(in *Table) (*Table, []StepResult, error) {
	if in == nil {
		return nil, nil, ErrNilTable
	}
	cur := in
	results := make([]StepResult, 0, len(p.Steps))
	for i, s := range p.Steps {
		start := time.Now()
		next, err := s.Apply(cur)
		if err != nil {
			return nil, results, fmt.Errorf("step %d (%s): %w", i+1, s.Name, err)
		}
		if next == nil {
			return nil, results, fmt.Errorf("step %d (%s): %w", i+1, s.Name, ErrNilTable)
		}
		res := StepResult{Name: s.Name, Rows: next.rows, Cols: len(next.schema), Duration: time.Since(start)}
		slog.Debug("pipeline step",
			slog.String("step", s.Name),
			slog.Int("rows", res.Rows),
			slog.Int("cols", res.Cols),
			slog.Duration("took", res.Duration),
		)
		results = append(results, res)
		if p.OnStep != nil {
			p.OnStep(res, next)
		}
		cur = next
	}
	return cur, results, nil
}
