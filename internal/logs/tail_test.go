package logs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeLog(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "embyscan.log")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "one\ntwo\nthree\nfour\n")

	result, err := Tail(context.Background(), path, TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "three" || result.Lines[1] != "four" {
		t.Fatalf("unexpected lines %v", result.Lines)
	}
	if result.Offset == 0 {
		t.Fatalf("expected end-of-file offset")
	}
}

func TestTailResumeFromOffset(t *testing.T) {
	path := writeLog(t, "one\ntwo\n")

	first, err := Tail(context.Background(), path, TailOptions{Offset: 0})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(first.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", first.Lines)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := file.WriteString("three\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	file.Close()

	second, err := Tail(context.Background(), path, TailOptions{Offset: first.Offset})
	if err != nil {
		t.Fatalf("tail from offset: %v", err)
	}
	if len(second.Lines) != 1 || second.Lines[0] != "three" {
		t.Fatalf("expected only the appended line, got %v", second.Lines)
	}
}

func TestTailMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.log")
	result, err := Tail(context.Background(), path, TailOptions{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestTailOffsetPastEndClamps(t *testing.T) {
	path := writeLog(t, "one\n")
	result, err := Tail(context.Background(), path, TailOptions{Offset: 10_000})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 0 {
		t.Fatalf("expected no lines past EOF, got %v", result.Lines)
	}
}
