package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/edakit/internal/model"
	"github.com/KaramelBytes/edakit/internal/run"
)

// resetFlags puts every flag of c and its children back to its default so
// values do not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and stdin, returning its output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	wrInput.reset()
	plotInput.reset()
	anaInput.reset()
	abInput.reset()
	wrAQModel.reset(model.RandomForestRegressor)
	wrHModel.reset(model.RandomForestClassifier)
	cfg = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd executes args and fails the test on error.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, "", args...)
	require.NoError(t, err, "command %v failed: %s", args, out)
	return out
}

// sandbox isolates HOME and returns a runs directory inside it.
func sandbox(t *testing.T) (home, runsDir string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	return home, filepath.Join(home, "runs")
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func onlyRun(t *testing.T, runsDir string) *run.Run {
	t.Helper()
	runs, err := run.List(runsDir)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	return runs[0]
}

const facebookCSV = `Page total likes;Type;Post Month;Lifetime Post Total Reach
139441;Photo;12;2752
139441;Status;12;10460
139441;Photo;11;2413
139441;Link;11;50128
138414;Photo;12;7244
`

const firesCSV = `X,Y,month,day,FFMC,DMC,DC,ISI,temp,RH,wind,rain,area
7,5,mar,fri,86.2,26.2,94.3,5.1,8.2,51,6.7,0.0,0.0
7,4,oct,tue,90.6,35.4,669.1,6.7,18.0,33,0.9,0.0,0.0
7,4,oct,sat,90.6,43.7,686.9,6.7,14.6,33,1.3,0.0,0.0
8,6,mar,fri,91.7,33.3,77.5,9.0,8.3,97,4.0,0.2,1.5
8,6,aug,sun,92.3,85.3,488.0,14.7,22.2,29,5.4,0.0,10.5
8,6,aug,sun,91.0,129.5,692.6,7.0,21.3,35,2.2,0.0,746.28
`

func TestCLI_WrangleFacebookSavesRun(t *testing.T) {
	home, runsDir := sandbox(t)
	path := writeFile(t, home, "dataset_Facebook.csv", facebookCSV)

	out := runCmd(t, "--runs-dir", runsDir, "wrangle", "facebook", path, "--print")
	assert.Contains(t, out, "Dataset Shape (Rows, Columns): (5, 4)")
	assert.Contains(t, out, "✓ Run saved to")

	r := onlyRun(t, runsDir)
	assert.Equal(t, "facebook", r.Dataset)
	assert.Equal(t, run.StatusSucceeded, r.Status)
	for _, name := range []string{"run.json", "merged.csv", "pivot.csv", "report.md"} {
		assert.FileExists(t, filepath.Join(r.Dir(), name))
	}
	assert.NotEmpty(t, r.ArtifactsOf(run.KindTable))

	list := runCmd(t, "--runs-dir", runsDir, "runs", "list")
	assert.Contains(t, list, filepath.Base(r.Dir()))
	assert.Contains(t, list, "succeeded")

	show := runCmd(t, "--runs-dir", runsDir, "runs", "show", filepath.Base(r.Dir()))
	assert.Contains(t, show, "dataset: facebook")
	assert.Contains(t, show, "merged.csv")

	byPath := runCmd(t, "--runs-dir", runsDir, "runs", "show", filepath.Join(r.Dir(), "merged.csv"))
	assert.Contains(t, byPath, "id: "+r.ID)
}

func TestCLI_RunsListEmpty(t *testing.T) {
	_, runsDir := sandbox(t)
	out := runCmd(t, "--runs-dir", runsDir, "runs", "list")
	assert.Contains(t, out, "(no runs)")
}

func TestCLI_FiresCount(t *testing.T) {
	home, runsDir := sandbox(t)
	path := writeFile(t, home, "forestfires.csv", firesCSV)

	out := runCmd(t, "--runs-dir", runsDir, "fires", "count", path)
	assert.Contains(t, out, "MapReduce Results (Fires by Month):")
	assert.Contains(t, out, "aug\t2")
	assert.Contains(t, out, "mar\t2")
	assert.Contains(t, out, "oct\t2")
}

func TestCLI_FiresStreamingMapReduce(t *testing.T) {
	_, runsDir := sandbox(t)

	mapped, err := execute(t, firesCSV, "--runs-dir", runsDir, "fires", "map")
	require.NoError(t, err)
	assert.NotContains(t, mapped, "month")
	assert.Equal(t, 6, strings.Count(mapped, "\t1\n"))

	// Hadoop sorts map output by key before the reduce phase.
	sorted := "aug\t1\naug\t1\nmar\t1\nmar\t1\noct\t1\noct\t1\n"
	reduced, err := execute(t, sorted, "--runs-dir", runsDir, "fires", "reduce")
	require.NoError(t, err)
	assert.Equal(t, "aug\t2\nmar\t2\noct\t2\n", reduced)
}

func TestCLI_FiresHiveLocal(t *testing.T) {
	home, runsDir := sandbox(t)
	path := writeFile(t, home, "forestfires.csv", firesCSV)

	out := runCmd(t, "--runs-dir", runsDir, "fires", "hive", "--local", path)
	assert.Contains(t, out, "✓ Run saved to")

	r := onlyRun(t, runsDir)
	queries := r.ArtifactsOf(run.KindQuery)
	require.Len(t, queries, 3)
	b, err := os.ReadFile(filepath.Join(r.Dir(), "query_1.hql"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "CREATE TABLE IF NOT EXISTS forest_fires")
	assert.FileExists(t, filepath.Join(r.Dir(), "top_conditions.csv"))
	assert.FileExists(t, filepath.Join(r.Dir(), "count_by_month.csv"))
}

func TestCLI_RunRecipe(t *testing.T) {
	home, runsDir := sandbox(t)
	writeFile(t, home, "forestfires.csv", firesCSV)
	recipePath := writeFile(t, home, "fires.yaml", `
name: burned
input:
  path: forestfires.csv
steps:
  - op: filter
    where:
      - {column: area, op: ">", value: 0}
  - op: subset
    columns: [month, temp, area]
output: burned.csv
`)

	out := runCmd(t, "--runs-dir", runsDir, "run", recipePath, "--validate")
	assert.Contains(t, out, `✓ Recipe "burned" is valid (2 steps)`)

	out = runCmd(t, "--runs-dir", runsDir, "run", recipePath)
	assert.Contains(t, out, "✓ 2 steps, 3 rows × 3 columns")

	r := onlyRun(t, runsDir)
	assert.Len(t, r.Steps, 2)
	assert.FileExists(t, filepath.Join(r.Dir(), "burned.csv"))
}

func TestCLI_RunRecipeFailureMarksRun(t *testing.T) {
	home, runsDir := sandbox(t)
	writeFile(t, home, "forestfires.csv", firesCSV)
	recipePath := writeFile(t, home, "bad.yaml", `
name: bad
input:
  path: forestfires.csv
steps:
  - op: subset
    columns: [no_such_column]
`)
	_, err := execute(t, "", "--runs-dir", runsDir, "run", recipePath)
	require.Error(t, err)

	r := onlyRun(t, runsDir)
	assert.Equal(t, run.StatusFailed, r.Status)
	assert.NotEmpty(t, r.Error)
}

func TestCLI_ConfigSetShow(t *testing.T) {
	_, runsDir := sandbox(t)

	runCmd(t, "--runs-dir", runsDir, "config", "set", "seed", "7")
	runCmd(t, "--runs-dir", runsDir, "config", "set", "hive.password", "supersecret")
	out := runCmd(t, "--runs-dir", runsDir, "config", "show")
	assert.Contains(t, out, "seed: 7")
	assert.NotContains(t, out, "supersecret")

	_, err := execute(t, "", "--runs-dir", runsDir, "config", "set", "workers", "many")
	assert.Error(t, err)
	_, err = execute(t, "", "--runs-dir", runsDir, "config", "set", "nope", "1")
	assert.Error(t, err)
}

func TestCLI_RelativeDatasetResolvesAgainstDataDir(t *testing.T) {
	home, runsDir := sandbox(t)
	dataDir := filepath.Join(home, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	writeFile(t, dataDir, "forestfires_dd.csv", firesCSV)
	t.Setenv("EDAKIT_DATA_DIR", dataDir)

	out := runCmd(t, "--runs-dir", runsDir, "fires", "count", "forestfires_dd.csv")
	assert.Contains(t, out, "aug\t2")

	show := runCmd(t, "--runs-dir", runsDir, "config", "show")
	assert.Contains(t, show, "data_dir: "+dataDir)

	_, err := execute(t, "", "--runs-dir", runsDir, "fires", "count", "not_there.csv")
	assert.Error(t, err)
}
