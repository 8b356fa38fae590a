package testsupport_test

import (
	"os"
	"path/filepath"
	"testing"

	"embyscan/internal/testsupport"
)

func TestNewConfigCreatesDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	for _, dir := range []string{cfg.Paths.LogDir, filepath.Dir(cfg.Paths.DBFile)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %s to be a directory", dir)
		}
	}
}
