package recipe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/edakit/internal/table"
)

const firesCSV = `X,Y,month,temp,area
7,5,mar,8.2,0
7,4,oct,18.0,0
7,4,oct,14.6,0
8,6,mar,?,0
8,6,aug,23.3,2.5
8,6,aug,27.8,746.28
`

const monthsCSV = `month,season
mar,spring
aug,summer
oct,autumn
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestExecuteRecipe(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"fires.csv":  firesCSV,
		"months.csv": monthsCSV,
		"fires.yaml": `
name: fires
input:
  path: fires.csv
  missing: ["?"]
inputs:
  months:
    path: months.csv
steps:
  - op: clean
    drop_missing: [temp]
  - op: filter
    where:
      - {column: temp, op: ">", value: 10}
  - op: join
    with: months
    on: month
  - op: sort
    column: area
    descending: true
  - op: subset
    columns: [month, season, temp, area]
`,
	})
	rec, err := Load(filepath.Join(dir, "fires.yaml"))
	require.NoError(t, err)

	out, err := rec.Execute(context.Background(), t.TempDir())
	require.NoError(t, err)
	require.Len(t, out.Steps, 5)
	assert.Equal(t, "clean#1", out.Steps[0].Name)
	assert.Equal(t, []string{"month", "season", "temp", "area"}, out.Table.Columns())
	assert.Equal(t, 4, out.Table.NumRows())

	area, err := out.Table.Floats("area")
	require.NoError(t, err)
	assert.Equal(t, []float64{746.28, 2.5, 0, 0}, area)

	season, err := out.Table.At(0, "season")
	require.NoError(t, err)
	assert.Equal(t, "summer", season.String())
}

func TestExecuteRecipeChartsAndModel(t *testing.T) {
	dir := writeFiles(t, map[string]string{"fires.csv": firesCSV})
	rec, err := Parse([]byte(`
name: fires-model
input: {path: fires.csv, missing: ["?"]}
steps:
  - op: clean
    drop_any_missing: true
  - op: binarize
    column: area
    as: burned
    threshold: 0
charts:
  - {type: histogram, file: temp.png, x: temp, bins: 4}
model:
  features: [X, Y, temp]
  target: area
  test_fraction: 0.4
  spec: {kind: random_forest_regressor, n_estimators: 5, seed: 3}
`), dir)
	require.NoError(t, err)

	charts := t.TempDir()
	out, err := rec.Execute(context.Background(), charts)
	require.NoError(t, err)
	require.Len(t, out.Charts, 1)
	assert.FileExists(t, out.Charts[0])
	require.NotNil(t, out.Model)
	assert.Equal(t, 2, out.Model.TestRows)
	assert.Equal(t, 3, out.Model.TrainRows)
	assert.True(t, out.Table.Has("burned"))
}

func TestParseRejectsBadRecipes(t *testing.T) {
	cases := map[string]string{
		"unknown op":     "name: x\ninput: {path: a.csv}\nsteps: [{op: explode}]\n",
		"no steps":       "name: x\ninput: {path: a.csv}\nsteps: []\n",
		"missing column": "name: x\ninput: {path: a.csv}\nsteps: [{op: sort}]\n",
		"unknown input":  "name: x\ninput: {path: a.csv}\nsteps: [{op: join, with: nope, on: id}]\n",
		"unknown field":  "name: x\ninput: {path: a.csv}\nsteps: [{op: head, rows: 3}]\n",
		"bad operator":   "name: x\ninput: {path: a.csv}\nsteps: [{op: filter, where: [{column: a, op: '~', value: 1}]}]\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), "")
			assert.Error(t, err)
		})
	}
}

func TestValueConversion(t *testing.T) {
	v, err := Value(3)
	require.NoError(t, err)
	assert.Equal(t, table.Int(3), v)

	v, err = Value(2.5)
	require.NoError(t, err)
	assert.Equal(t, table.Float(2.5), v)

	v, err = Value("mar")
	require.NoError(t, err)
	assert.Equal(t, table.Text("mar"), v)

	v, err = Value(nil)
	require.NoError(t, err)
	assert.True(t, v.IsMissing())

	_, err = Value([]int{1})
	assert.Error(t, err)
}

func TestClipBoundsFromYAML(t *testing.T) {
	rec, err := Parse([]byte(`
name: clip
input: {path: a.csv}
steps:
  - op: clip
    column: v
    upper: {value: 2}
    lower: {quantile: 0}
`), "")
	require.NoError(t, err)
	p, err := rec.Compile(nil)
	require.NoError(t, err)

	in := table.MustNew([]string{"v"}, [][]table.Value{{table.Float(-1), table.Float(1), table.Float(5)}})
	out, _, err := p.Run(in)
	require.NoError(t, err)
	got, err := out.Floats("v")
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 1, 2}, got)
}
