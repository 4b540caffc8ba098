package mapreduce

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/edakit/internal/utils"
)

const (
	DefaultHadoop       = "hadoop"
	DefaultHDFS         = "hdfs"
	DefaultStreamingJar = "/usr/local/hadoop/share/hadoop/tools/lib/hadoop-streaming.jar"
)

// StreamingJob is one hadoop-streaming submission. Mapper and Reducer are
// local executables shipped with -file; Files defaults to both of them.
type StreamingJob struct {
	Hadoop  string
	HDFS    string
	Jar     string
	Input   string
	Output  string
	Mapper  string
	Reducer string
	Files   []string
}

func (j StreamingJob) withDefaults() StreamingJob {
	if j.Hadoop == "" {
		j.Hadoop = DefaultHadoop
	}
	if j.HDFS == "" {
		j.HDFS = DefaultHDFS
	}
	if j.Jar == "" {
		j.Jar = DefaultStreamingJar
	}
	if len(j.Files) == 0 {
		j.Files = []string{j.Mapper, j.Reducer}
	}
	return j
}

// Args renders the hadoop argv (without the hadoop binary itself).
func (j StreamingJob) Args() []string {
	j = j.withDefaults()
	args := []string{
		"jar", j.Jar,
		"-input", j.Input,
		"-output", j.Output,
		"-mapper", filepath.Base(j.Mapper),
		"-reducer", filepath.Base(j.Reducer),
	}
	for _, f := range j.Files {
		args = append(args, "-file", f)
	}
	return args
}

// Command renders the full shell command line for display.
func (j StreamingJob) Command() string {
	j = j.withDefaults()
	return j.Hadoop + " " + strings.Join(j.Args(), " ")
}

func (j StreamingJob) validate() error {
	var missing []string
	if j.Input == "" {
		missing = append(missing, "input")
	}
	if j.Output == "" {
		missing = append(missing, "output")
	}
	if j.Mapper == "" {
		missing = append(missing, "mapper")
	}
	if j.Reducer == "" {
		missing = append(missing, "reducer")
	}
	if len(missing) > 0 {
		return fmt.Errorf("streaming job: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Submit runs the job and waits for it to finish.
func (j StreamingJob) Submit(ctx context.Context) error {
	if err := j.validate(); err != nil {
		return err
	}
	j = j.withDefaults()
	start := time.Now()
	slog.Info("submitting streaming job", slog.String("input", j.Input), slog.String("output", j.Output))
	if _, err := run(ctx, j.Hadoop, j.Args()...); err != nil {
		return err
	}
	slog.Info("streaming job finished", slog.Duration("took", time.Since(start)))
	return nil
}

// Cat reads the job's part files back from HDFS.
func (j StreamingJob) Cat(ctx context.Context) ([]KV, error) {
	if j.Output == "" {
		return nil, fmt.Errorf("streaming job: missing output")
	}
	j = j.withDefaults()
	out, err := run(ctx, j.HDFS, "dfs", "-cat", strings.TrimRight(j.Output, "/")+"/part-*")
	if err != nil {
		return nil, err
	}
	return ReadKVs(bytes.NewReader(out))
}

func run(ctx context.Context, tool string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, tool, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("external tool failed",
			slog.String("tool", tool),
			slog.String("error", err.Error()),
			slog.String("stderr", stderr.String()))
		return nil, &ExternalToolError{Tool: tool, Args: args, Output: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}

// WriteScripts writes mapper.sh and reducer.sh into dir. Both exec binary
// with the `fires map|reduce` subcommands so the streaming job runs this
// program on every task node.
func WriteScripts(dir, binary string, field int, headerPrefix string) (mapper, reducer string, err error) {
	if err := utils.EnsureDir(dir); err != nil {
		return "", "", fmt.Errorf("create script dir: %w", err)
	}
	mapArgs := "fires map --field " + strconv.Itoa(field)
	if headerPrefix != "" {
		mapArgs += " --header-prefix " + shellQuote(headerPrefix)
	}
	mapper = filepath.Join(dir, "mapper.sh")
	reducer = filepath.Join(dir, "reducer.sh")
	scripts := map[string]string{
		mapper:  fmt.Sprintf("#!/bin/sh\nexec %s %s\n", shellQuote(binary), mapArgs),
		reducer: fmt.Sprintf("#!/bin/sh\nexec %s fires reduce\n", shellQuote(binary)),
	}
	for path, body := range scripts {
		if err := utils.WriteFileAtomic(path, []byte(body), 0o755); err != nil {
			return "", "", fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
	}
	return mapper, reducer, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
