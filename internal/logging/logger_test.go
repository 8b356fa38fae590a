package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func newTestConsoleLogger(buf *bytes.Buffer, level string) *slog.Logger {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(level))
	return slog.New(&consoleHandler{mu: &sync.Mutex{}, writer: buf, level: levelVar})
}

func TestConsoleHandlerFormatsComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf, "info")

	NewComponentLogger(logger, "watcher").Info("scan triggered",
		Int(FieldCount, 3),
		String(FieldRoot, "/mnt/media"))

	line := buf.String()
	if !strings.Contains(line, " INFO watcher: scan triggered") {
		t.Fatalf("unexpected line format: %q", line)
	}
	if !strings.Contains(line, "count=3") || !strings.Contains(line, "root=/mnt/media") {
		t.Fatalf("expected attrs in output, got %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf, "info")

	logger.Info("event", String(FieldPath, "/mnt/media/My Movie.mkv"))

	if !strings.Contains(buf.String(), `path="/mnt/media/My Movie.mkv"`) {
		t.Fatalf("expected quoted path, got %q", buf.String())
	}
}

func TestConsoleHandlerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf, "warn")

	logger.Info("ignored")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "ignored") {
		t.Fatalf("expected info suppressed at warn level, got %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("expected warn line, got %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
