package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTextAndJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer cleanup()
	logger.Debug("step done", slog.String("step", "clean"))
	if !strings.Contains(buf.String(), `"step":"clean"`) {
		t.Fatalf("expected JSON attr, got %q", buf.String())
	}

	buf.Reset()
	logger, _, err = New(Options{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("level filtering broken: %q", buf.String())
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	m := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	logger := slog.New(m).With(slog.String("run", "r1"))
	logger.Info("hello")
	if !strings.Contains(a.String(), "run=r1") {
		t.Fatalf("first handler missed record: %q", a.String())
	}
	if b.Len() != 0 {
		t.Fatalf("second handler should filter info: %q", b.String())
	}
}
