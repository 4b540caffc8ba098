// Package run persists one pipeline execution on disk: a directory holding
// the produced tables, charts and reports plus a run.json manifest.
package run

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/edakit/internal/ingest"
	"github.com/KaramelBytes/edakit/internal/table"
	"github.com/KaramelBytes/edakit/internal/utils"
)

const manifestFileName = "run.json"

type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Step records one executed pipeline step.
type Step struct {
	Name       string  `json:"name"`
	Rows       int     `json:"rows"`
	Cols       int     `json:"cols"`
	DurationMS float64 `json:"duration_ms"`
}

// Run is the manifest of one execution.
type Run struct {
	ID         string               `json:"id"`
	Dataset    string               `json:"dataset"`
	Command    string               `json:"command"`
	Params     map[string]string    `json:"params,omitempty"`
	Status     Status               `json:"status"`
	Error      string               `json:"error,omitempty"`
	Steps      []Step               `json:"steps"`
	Metrics    map[string]float64   `json:"metrics,omitempty"`
	Artifacts  map[string]*Artifact `json:"artifacts"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at,omitempty"`
	UpdatedAt  time.Time            `json:"updated_at"`

	// Not serialized: on-disk location of the run.json
	rootDir string `json:"-"`
}

// New constructs a run under runsDir named <dataset>-<first 8 hex of id>.
// Call Save() to persist.
func New(runsDir, dataset, command string) *Run {
	id := uuid.NewString()
	now := time.Now()
	return &Run{
		ID:        id,
		Dataset:   dataset,
		Command:   command,
		Params:    map[string]string{},
		Status:    StatusRunning,
		Metrics:   map[string]float64{},
		Artifacts: map[string]*Artifact{},
		StartedAt: now,
		UpdatedAt: now,
		rootDir:   filepath.Join(runsDir, dataset+"-"+strings.ReplaceAll(id, "-", "")[:8]),
	}
}

// Load reads run.json from dir.
func Load(dir string) (*Run, error) {
	path := filepath.Join(dir, manifestFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("run not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read run: %w", err)
	}
	var r Run
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse run: %w", err)
	}
	r.rootDir = dir
	return &r, nil
}

// List loads every run under runsDir, newest first. Directories without a
// readable manifest are skipped.
func List(runsDir string) ([]*Run, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read runs dir: %w", err)
	}
	var out []*Run
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		r, err := Load(filepath.Join(runsDir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

// Dir returns the on-disk run directory.
func (r *Run) Dir() string { return r.rootDir }

// Save writes run.json using atomic write.
func (r *Run) Save() error {
	if r.rootDir == "" {
		return errors.New("run directory not set")
	}
	if err := utils.EnsureDir(r.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	r.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(r.rootDir, manifestFileName), data)
}

// RecordSteps appends pipeline step results to the manifest.
func (r *Run) RecordSteps(results []table.StepResult) {
	for _, s := range results {
		r.Steps = append(r.Steps, Step{
			Name:       s.Name,
			Rows:       s.Rows,
			Cols:       s.Cols,
			DurationMS: float64(s.Duration.Microseconds()) / 1000,
		})
	}
	r.UpdatedAt = time.Now()
}

func (r *Run) SetMetric(name string, v float64) {
	if r.Metrics == nil {
		r.Metrics = map[string]float64{}
	}
	r.Metrics[name] = v
}

// Finish marks the run succeeded, or failed with err, and saves it.
func (r *Run) Finish(err error) error {
	r.FinishedAt = time.Now()
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
	} else {
		r.Status = StatusSucceeded
	}
	return r.Save()
}

// Path resolves name inside the run directory.
func (r *Run) Path(name string) string { return filepath.Join(r.rootDir, name) }

// WriteTable saves t as CSV in the run directory and registers it.
func (r *Run) WriteTable(name, description string, t *table.Table) (*Artifact, error) {
	if err := utils.EnsureDir(r.rootDir); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	path := r.Path(name)
	if err := ingest.WriteCSVFile(path, t); err != nil {
		return nil, err
	}
	a, err := r.AddArtifact(KindTable, path, description)
	if err != nil {
		return nil, err
	}
	a.Rows, a.Cols = t.NumRows(), t.NumCols()
	return a, nil
}

// WriteText saves content in the run directory and registers it.
func (r *Run) WriteText(name string, kind Kind, description, content string) (*Artifact, error) {
	if err := utils.EnsureDir(r.rootDir); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	path := r.Path(name)
	if err := utils.SafeWriteFile(path, []byte(content)); err != nil {
		return nil, err
	}
	return r.AddArtifact(kind, path, description)
}

func sortArtifacts(as []*Artifact) {
	sort.SliceStable(as, func(i, j int) bool { return as[i].Name < as[j].Name })
}
