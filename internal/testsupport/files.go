package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteMediaFile creates a file with content under dir, creating parent
// directories as needed, and returns its path.
func WriteMediaFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for media file: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write media file: %v", err)
	}
	return path
}

// Touch sets a file's modification time, failing the test on error.
func Touch(t testing.TB, path string, when time.Time) {
	t.Helper()

	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}
