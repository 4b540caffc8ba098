// Package logging configures the process-wide slog logger: a text or JSON
// handler on stderr, optionally fanned out to a Seq server.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogseq "github.com/sokkalf/slog-seq"
)

// Options selects the handlers.
type Options struct {
	Level     string
	Format    string // text | json
	SeqURL    string
	SeqAPIKey string
	Output    io.Writer
}

// multiHandler forwards log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// New builds a logger and returns a cleanup function that flushes the Seq
// sink when one is configured.
func New(opt Options) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if opt.Level != "" {
		var err error
		if level, err = ParseLevel(opt.Level); err != nil {
			return nil, nil, err
		}
	}
	if opt.Output == nil {
		opt.Output = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: level}
	var console slog.Handler
	switch opt.Format {
	case "", "text":
		console = slog.NewTextHandler(opt.Output, hopts)
	case "json":
		console = slog.NewJSONHandler(opt.Output, hopts)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q (use text|json)", opt.Format)
	}
	if opt.SeqURL == "" {
		return slog.New(console), func() {}, nil
	}

	seq, closeSeq := seqSink(opt, level)
	if seq == nil {
		return slog.New(console), func() {}, nil
	}
	return slog.New(&multiHandler{handlers: []slog.Handler{console, seq}}), closeSeq, nil
}

func seqSink(opt Options, level slog.Level) (slog.Handler, func()) {
	batch := slogseq.WithBatchSize(50)
	flush := slogseq.WithFlushInterval(500 * time.Millisecond)
	hopts := slogseq.WithHandlerOptions(&slog.HandlerOptions{Level: level})
	if opt.SeqAPIKey != "" {
		_, h := slogseq.NewLogger(opt.SeqURL, batch, flush, hopts, slogseq.WithAPIKey(opt.SeqAPIKey))
		if h == nil {
			return nil, nil
		}
		return h, func() { h.Close() }
	}
	_, h := slogseq.NewLogger(opt.SeqURL, batch, flush, hopts)
	if h == nil {
		return nil, nil
	}
	return h, func() { h.Close() }
}

// Setup installs the logger as the slog default.
func Setup(opt Options) (func(), error) {
	logger, cleanup, err := New(opt)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}
