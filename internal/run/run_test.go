package run_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/edakit/internal/run"
	"github.com/KaramelBytes/edakit/internal/table"
)

func TestRunLifecycle(t *testing.T) {
	runsDir := t.TempDir()
	r := run.New(runsDir, "airquality", "wrangle airquality")
	if !strings.HasPrefix(filepath.Base(r.Dir()), "airquality-") || len(filepath.Base(r.Dir())) != len("airquality-")+8 {
		t.Fatalf("unexpected run dir %s", r.Dir())
	}
	r.Params["seed"] = "42"
	r.RecordSteps([]table.StepResult{{Name: "clean", Rows: 3, Cols: 2, Duration: 1500 * time.Microsecond}})

	tb := table.MustNew([]string{"a", "b"}, [][]table.Value{{table.Int(1), table.Int(2), table.Int(3)}, {table.Text("x"), table.Text("y"), table.Missing()}})
	a, err := r.WriteTable("clean.csv", "cleaned data", tb)
	if err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	if a.Path != "clean.csv" || a.Rows != 3 || a.Cols != 2 || a.Bytes == 0 {
		t.Fatalf("unexpected artifact %+v", a)
	}
	if _, err := r.WriteText("report.md", run.KindReport, "profile", "# hi\n"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	r.SetMetric("mse", 0.25)
	if err := r.Finish(nil); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	back, err := run.Load(r.Dir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.ID != r.ID || back.Status != run.StatusSucceeded || back.Metrics["mse"] != 0.25 || back.Params["seed"] != "42" {
		t.Fatalf("manifest not round-tripped: %+v", back)
	}
	if len(back.Steps) != 1 || back.Steps[0].DurationMS != 1.5 {
		t.Fatalf("steps: %+v", back.Steps)
	}
	if got := back.ArtifactsOf(run.KindTable); len(got) != 1 || got[0].Name != "clean.csv" {
		t.Fatalf("table artifacts: %+v", got)
	}
	if _, err := os.Stat(filepath.Join(r.Dir(), "run.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp manifest left over")
	}
}

func TestFailedRunAndList(t *testing.T) {
	runsDir := t.TempDir()
	first := run.New(runsDir, "heart", "wrangle heart")
	if err := first.Save(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	second := run.New(runsDir, "fires", "fires count")
	if err := second.Finish(errors.New("hadoop exploded")); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(runsDir, "junk"), 0o755); err != nil {
		t.Fatal(err)
	}

	runs, err := run.List(runsDir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("want 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID || runs[0].Status != run.StatusFailed || runs[0].Error != "hadoop exploded" {
		t.Fatalf("newest first / failure not recorded: %+v", runs[0])
	}
	none, err := run.List(filepath.Join(runsDir, "absent"))
	if err != nil || len(none) != 0 {
		t.Fatalf("missing runs dir: %v %v", none, err)
	}
}

func TestAddArtifactOutsideRunKeepsPath(t *testing.T) {
	r := run.New(t.TempDir(), "x", "x")
	other := filepath.Join(t.TempDir(), "chart.png")
	if err := os.WriteFile(other, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := r.AddArtifact(run.KindChart, other, "")
	if err != nil {
		t.Fatal(err)
	}
	if a.Path != other {
		t.Fatalf("expected absolute path kept, got %s", a.Path)
	}
	if _, err := r.AddArtifact(run.KindChart, filepath.Join(t.TempDir(), "nope.png"), ""); err == nil {
		t.Fatal("expected stat error")
	}
}
