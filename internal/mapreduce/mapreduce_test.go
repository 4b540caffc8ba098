package mapreduce

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const firesSample = `X,Y,month,day,FFMC,DMC,DC,ISI,temp,RH,wind,rain,area
7,5,mar,fri,86.2,26.2,94.3,5.1,8.2,51,6.7,0,0
7,4,oct,tue,90.6,35.4,669.1,6.7,18,33,0.9,0,0
7,4,oct,sat,90.6,43.7,686.9,6.7,14.6,33,1.3,0,0
8,6,mar,fri,91.7,33.3,77.5,9,8.3,97,4,0.2,0
8,6,aug,sun,92.3,85.3,488,14.7,22.2,29,5.4,0,0
`

func firesMapper() FieldCountMapper {
	return FieldCountMapper{Field: 2, HeaderPrefix: "X,Y,month"}
}

func TestRunLocalCountsByMonth(t *testing.T) {
	got, err := RunLocal(context.Background(), strings.NewReader(firesSample), firesMapper(), SumReducer{})
	if err != nil {
		t.Fatalf("RunLocal: %v", err)
	}
	want := []KV{{"aug", "1"}, {"mar", "2"}, {"oct", "2"}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStreamingPipesMatchLocal(t *testing.T) {
	var mapped bytes.Buffer
	if err := RunMap(strings.NewReader(firesSample), &mapped, firesMapper()); err != nil {
		t.Fatalf("RunMap: %v", err)
	}
	if strings.Contains(mapped.String(), "month") {
		t.Fatalf("header was not skipped:\n%s", mapped.String())
	}
	kvs, err := ReadKVs(&mapped)
	if err != nil {
		t.Fatal(err)
	}
	var sorted bytes.Buffer
	// hadoop sorts between the phases
	for _, month := range []string{"aug", "mar", "oct"} {
		for _, kv := range kvs {
			if kv.Key == month {
				sorted.WriteString(kv.String() + "\n")
			}
		}
	}
	var reduced bytes.Buffer
	if err := RunReduce(&sorted, &reduced, SumReducer{}); err != nil {
		t.Fatalf("RunReduce: %v", err)
	}
	if got, want := reduced.String(), "aug\t1\nmar\t2\noct\t2\n"; got != want {
		t.Fatalf("reduce output %q, want %q", got, want)
	}
}

func TestSumReducerRejectsNonInteger(t *testing.T) {
	err := RunReduce(strings.NewReader("a\tx\n"), &bytes.Buffer{}, SumReducer{})
	if err == nil {
		t.Fatal("expected error for non-integer value")
	}
}

func TestParseLine(t *testing.T) {
	if kv := ParseLine("k\tv\tw\r\n"); kv.Key != "k" || kv.Value != "v\tw" {
		t.Fatalf("unexpected %+v", kv)
	}
	if kv := ParseLine("lonely"); kv.Key != "lonely" || kv.Value != "" {
		t.Fatalf("unexpected %+v", kv)
	}
}

func TestStreamingJobArgs(t *testing.T) {
	j := StreamingJob{Input: "/user/forestfires/forestfires.csv", Output: "/user/forestfires/output", Mapper: "/tmp/run/mapper.sh", Reducer: "/tmp/run/reducer.sh"}
	got := strings.Join(j.Args(), " ")
	want := "jar " + DefaultStreamingJar + " -input /user/forestfires/forestfires.csv -output /user/forestfires/output -mapper mapper.sh -reducer reducer.sh -file /tmp/run/mapper.sh -file /tmp/run/reducer.sh"
	if got != want {
		t.Fatalf("args:\n got %s\nwant %s", got, want)
	}
	if err := (StreamingJob{}).Submit(context.Background()); err == nil || !strings.Contains(err.Error(), "missing input") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func writeTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSubmitAndCatWithFakeTools(t *testing.T) {
	hdfs := writeTool(t, `printf 'aug\t184\nmar\t54\n'`)
	ok := writeTool(t, "exit 0\n")
	j := StreamingJob{Hadoop: ok, HDFS: hdfs, Input: "in", Output: "out/", Mapper: "m.sh", Reducer: "r.sh"}
	if err := j.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	kvs, err := j.Cat(context.Background())
	if err != nil {
		t.Fatalf("Cat: %v", err)
	}
	if len(kvs) != 2 || kvs[0] != (KV{"aug", "184"}) {
		t.Fatalf("unexpected records %v", kvs)
	}
}

func TestSubmitFailureIsExternalToolError(t *testing.T) {
	bad := writeTool(t, "echo 'job failed' >&2\nexit 3\n")
	j := StreamingJob{Hadoop: bad, Input: "in", Output: "out", Mapper: "m.sh", Reducer: "r.sh"}
	err := j.Submit(context.Background())
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	var ext *ExternalToolError
	if !errors.As(err, &ext) || !strings.Contains(ext.Output, "job failed") {
		t.Fatalf("stderr not captured: %v", err)
	}

	j.Hadoop = filepath.Join(t.TempDir(), "does-not-exist")
	if err := j.Submit(context.Background()); !errors.Is(err, ErrExternalTool) {
		t.Fatalf("missing binary: expected ErrExternalTool, got %v", err)
	}
}

func TestWriteScripts(t *testing.T) {
	dir := t.TempDir()
	m, r, err := WriteScripts(dir, "/opt/edakit", 2, "X,Y,month")
	if err != nil {
		t.Fatalf("WriteScripts: %v", err)
	}
	body, _ := os.ReadFile(m)
	if want := "#!/bin/sh\nexec '/opt/edakit' fires map --field 2 --header-prefix 'X,Y,month'\n"; string(body) != want {
		t.Fatalf("mapper.sh = %q, want %q", body, want)
	}
	info, err := os.Stat(r)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Fatalf("reducer.sh not executable: %v", info.Mode())
	}
}
