package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/KaramelBytes/edakit/internal/ingest"
	"github.com/KaramelBytes/edakit/internal/table"
)

// Warehouse creates, loads and queries tables.
type Warehouse interface {
	Create(ctx context.Context, c CreateTable) error
	Load(ctx context.Context, l LoadData) error
	Run(ctx context.Context, q Query) (*table.Table, error)
}

// Remote sends every statement, rendered as HiveQL, to HiveServer2.
type Remote struct {
	Client *HiveClient
}

func (r Remote) Create(ctx context.Context, c CreateTable) error { return r.Client.Exec(ctx, c.SQL()) }
func (r Remote) Load(ctx context.Context, l LoadData) error      { return r.Client.Exec(ctx, l.SQL()) }

func (r Remote) Run(ctx context.Context, q Query) (*table.Table, error) {
	return r.Client.Query(ctx, q.SQL())
}

// Local keeps tables in memory and evaluates queries with Query.Evaluate.
// LoadData paths are local files read with the ingest options.
type Local struct {
	Options ingest.Options

	mu      sync.RWMutex
	schemas map[string]CreateTable
	tables  map[string]*table.Table
}

func NewLocal(opt ingest.Options) *Local {
	return &Local{Options: opt, schemas: map[string]CreateTable{}, tables: map[string]*table.Table{}}
}

func (l *Local) Create(_ context.Context, c CreateTable) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.schemas[c.Name]; ok && !c.IfNotExists {
		return fmt.Errorf("table %s already exists", c.Name)
	}
	if _, ok := l.schemas[c.Name]; !ok {
		l.schemas[c.Name] = c
	}
	return nil
}

func (l *Local) Load(_ context.Context, ld LoadData) error {
	l.mu.RLock()
	schema, ok := l.schemas[ld.Table]
	l.mu.RUnlock()
	if !ok {
		return fmt.Errorf("table %s does not exist", ld.Table)
	}
	opt := l.Options
	if !schema.SkipHeader {
		opt.Names = make([]string, len(schema.Columns))
		for i, c := range schema.Columns {
			opt.Names[i] = c.Name
		}
	}
	t, err := ingest.ReadCSV(ld.Path, opt)
	if err != nil {
		return fmt.Errorf("load %s: %w", ld.Table, err)
	}
	if len(schema.Columns) > 0 && t.NumCols() != len(schema.Columns) {
		return fmt.Errorf("load %s: file has %d columns, table has %d", ld.Table, t.NumCols(), len(schema.Columns))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.tables[ld.Table]; ok && !ld.Overwrite {
		if t, err = appendRows(prev, t); err != nil {
			return fmt.Errorf("load %s: %w", ld.Table, err)
		}
	}
	l.tables[ld.Table] = t
	slog.Debug("local table loaded", slog.String("table", ld.Table), slog.Int("rows", t.NumRows()))
	return nil
}

func (l *Local) Run(_ context.Context, q Query) (*table.Table, error) {
	l.mu.RLock()
	t, ok := l.tables[q.From]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("table %s has no data", q.From)
	}
	return q.Evaluate(t)
}

// Put registers an already loaded table.
func (l *Local) Put(name string, t *table.Table) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.schemas[name]; !ok {
		l.schemas[name] = FromSchema(name, t.Schema())
	}
	l.tables[name] = t
}

func appendRows(a, b *table.Table) (*table.Table, error) {
	if a.NumCols() != b.NumCols() {
		return nil, fmt.Errorf("cannot append %d columns to %d", b.NumCols(), a.NumCols())
	}
	names := a.Columns()
	cols := make([][]table.Value, len(names))
	for i, n := range names {
		x, err := a.Column(n)
		if err != nil {
			return nil, err
		}
		y, err := b.Column(b.Columns()[i])
		if err != nil {
			return nil, err
		}
		cols[i] = append(x, y...)
	}
	return table.New(names, cols)
}
