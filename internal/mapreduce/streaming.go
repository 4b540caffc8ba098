// Package mapreduce implements the Hadoop streaming protocol: mappers and
// reducers exchange tab-separated key/value lines over stdin/stdout. The
// same Mapper and Reducer run in process (RunLocal) or as the mapper and
// reducer executables of a streaming job.
package mapreduce

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// KV is one key/value record.
type KV struct {
	Key   string
	Value string
}

func (kv KV) String() string { return kv.Key + "\t" + kv.Value }

// Emit receives output records.
type Emit func(key, value string)

type Mapper interface {
	Map(line string, emit Emit) error
}

// Reducer receives every value of one key; keys arrive in sorted order.
type Reducer interface {
	Reduce(key string, values []string, emit Emit) error
}

type MapperFunc func(line string, emit Emit) error

func (f MapperFunc) Map(line string, emit Emit) error { return f(line, emit) }

type ReducerFunc func(key string, values []string, emit Emit) error

func (f ReducerFunc) Reduce(key string, values []string, emit Emit) error { return f(key, values, emit) }

// FieldCountMapper emits "<field>\t1" for every delimited record, counting
// rows by the value of one column. Lines starting with HeaderPrefix are
// skipped, as are records too short to hold the field.
type FieldCountMapper struct {
	Field        int
	Delimiter    string
	HeaderPrefix string
}

func (m FieldCountMapper) Map(line string, emit Emit) error {
	line = strings.TrimSpace(line)
	if line == "" || (m.HeaderPrefix != "" && strings.HasPrefix(line, m.HeaderPrefix)) {
		return nil
	}
	delim := m.Delimiter
	if delim == "" {
		delim = ","
	}
	fields := strings.Split(line, delim)
	if m.Field < 0 || m.Field >= len(fields) {
		return nil
	}
	emit(strings.TrimSpace(fields[m.Field]), "1")
	return nil
}

// SumReducer adds the integer values of a key.
type SumReducer struct{}

func (SumReducer) Reduce(key string, values []string, emit Emit) error {
	var total int64
	for _, v := range values {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("key %q: value %q is not an integer", key, v)
		}
		total += n
	}
	emit(key, strconv.FormatInt(total, 10))
	return nil
}

// ParseLine splits a streaming record at its first tab. A line without a tab
// is a key with an empty value.
func ParseLine(line string) KV {
	k, v, _ := strings.Cut(strings.TrimRight(line, "\r\n"), "\t")
	return KV{Key: k, Value: v}
}

// ReadKVs reads streaming records until EOF, skipping blank lines.
func ReadKVs(r io.Reader) ([]KV, error) {
	var out []KV
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		out = append(out, ParseLine(sc.Text()))
	}
	return out, sc.Err()
}

// RunMap applies m to every input line and writes its records to w.
func RunMap(r io.Reader, w io.Writer, m Mapper) error {
	bw := bufio.NewWriter(w)
	emit := func(k, v string) { fmt.Fprintf(bw, "%s\t%s\n", k, v) }
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if err := m.Map(sc.Text(), emit); err != nil {
			return fmt.Errorf("map line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read map input: %w", err)
	}
	return bw.Flush()
}

// RunReduce reads key-sorted records from r, groups consecutive equal keys
// and writes the reducer's records to w.
func RunReduce(r io.Reader, w io.Writer, red Reducer) error {
	kvs, err := ReadKVs(r)
	if err != nil {
		return fmt.Errorf("read reduce input: %w", err)
	}
	bw := bufio.NewWriter(w)
	emit := func(k, v string) { fmt.Fprintf(bw, "%s\t%s\n", k, v) }
	if err := reduceGroups(kvs, red, emit); err != nil {
		return err
	}
	return bw.Flush()
}

func reduceGroups(kvs []KV, red Reducer, emit Emit) error {
	for i := 0; i < len(kvs); {
		j := i
		var vals []string
		for j < len(kvs) && kvs[j].Key == kvs[i].Key {
			vals = append(vals, kvs[j].Value)
			j++
		}
		if err := red.Reduce(kvs[i].Key, vals, emit); err != nil {
			return fmt.Errorf("reduce: %w", err)
		}
		i = j
	}
	return nil
}

// RunLocal runs map, shuffle (stable sort by key) and reduce in process.
func RunLocal(ctx context.Context, r io.Reader, m Mapper, red Reducer) ([]KV, error) {
	var mapped []KV
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	emitMap := func(k, v string) { mapped = append(mapped, KV{Key: k, Value: v}) }
	for sc.Scan() {
		line++
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if err := m.Map(sc.Text(), emitMap); err != nil {
			return nil, fmt.Errorf("map line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	sort.SliceStable(mapped, func(i, j int) bool { return mapped[i].Key < mapped[j].Key })
	var out []KV
	err := reduceGroups(mapped, red, func(k, v string) { out = append(out, KV{Key: k, Value: v}) })
	if err != nil {
		return nil, err
	}
	return out, nil
}
