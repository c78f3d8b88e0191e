package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsPerHandlerLevels(t *testing.T) {
	var console, file bytes.Buffer
	h := TeeHandler(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected fanout enabled when any handler accepts debug")
	}

	logger := slog.New(h).With(slog.String(FieldInput, "album.nrg"))
	logger.Debug("walking chunks")
	logger.Warn("footer missing")

	if strings.Contains(console.String(), "walking chunks") {
		t.Fatalf("console handler should drop debug records: %q", console.String())
	}
	if !strings.Contains(console.String(), "footer missing") {
		t.Fatalf("console handler missing warn record: %q", console.String())
	}
	for _, want := range []string{"walking chunks", "footer missing", `"input":"album.nrg"`} {
		if !strings.Contains(file.String(), want) {
			t.Fatalf("file handler missing %q: %q", want, file.String())
		}
	}
}

func TestFanoutHandlerWithGroup(t *testing.T) {
	var a, b bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))
	slog.New(h.WithGroup("track")).Info("done", slog.Int("number", 3))
	for _, buf := range []*bytes.Buffer{&a, &b} {
		if !strings.Contains(buf.String(), `"track":{"number":3}`) {
			t.Fatalf("expected grouped attribute, got %q", buf.String())
		}
	}
}
