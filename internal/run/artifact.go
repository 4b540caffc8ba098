package run

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an artifact.
type Kind string

const (
	KindTable  Kind = "table"
	KindChart  Kind = "chart"
	KindReport Kind = "report"
	KindScript Kind = "script"
	KindQuery  Kind = "query"
)

// Artifact is one file produced by a run. Paths are stored relative to the
// run directory when the file lives inside it.
type Artifact struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Description string    `json:"description,omitempty"`
	Bytes       int64     `json:"bytes"`
	Rows        int       `json:"rows,omitempty"`
	Cols        int       `json:"cols,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AddArtifact registers an existing file under a new id.
func (r *Run) AddArtifact(kind Kind, path, description string) (*Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}
	rel := path
	if r.rootDir != "" {
		if p, err := filepath.Rel(r.rootDir, path); err == nil && !filepath.IsAbs(p) && p != ".." && !startsWithParent(p) {
			rel = p
		}
	}
	a := &Artifact{
		ID:          uuid.NewString(),
		Kind:        kind,
		Name:        filepath.Base(path),
		Path:        rel,
		Description: description,
		Bytes:       info.Size(),
		CreatedAt:   info.ModTime(),
	}
	if r.Artifacts == nil {
		r.Artifacts = make(map[string]*Artifact)
	}
	r.Artifacts[a.ID] = a
	r.UpdatedAt = time.Now()
	return a, nil
}

func startsWithParent(p string) bool {
	return len(p) >= 3 && p[:3] == ".."+string(filepath.Separator)
}

// ArtifactsOf returns the artifacts of one kind ordered by name.
func (r *Run) ArtifactsOf(kind Kind) []*Artifact {
	var out []*Artifact
	for _, a := range r.Artifacts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	sortArtifacts(out)
	return out
}
