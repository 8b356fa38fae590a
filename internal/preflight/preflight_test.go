package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"embyscan/internal/preflight"
	"embyscan/internal/testsupport"
)

func TestCheckEmbyReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emby/System/Info" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Emby-Token") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := preflight.CheckEmby(context.Background(), srv.URL, "key")
	if !result.Passed {
		t.Fatalf("expected pass, got %+v", result)
	}

	result = preflight.CheckEmby(context.Background(), srv.URL, "wrong")
	if result.Passed || !strings.Contains(result.Detail, "auth failed") {
		t.Fatalf("expected auth failure, got %+v", result)
	}
}

func TestCheckEmbyMissingConfig(t *testing.T) {
	if result := preflight.CheckEmby(context.Background(), "", "key"); result.Passed {
		t.Fatalf("expected failure for missing url, got %+v", result)
	}
	if result := preflight.CheckEmby(context.Background(), "http://127.0.0.1:8096", ""); result.Passed {
		t.Fatalf("expected failure for missing api key, got %+v", result)
	}
}

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("Root 1", dir, true)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got %+v", result)
	}

	missing := filepath.Join(dir, "missing")
	result = preflight.CheckDirectoryAccess("Root 1", missing, false)
	if result.Passed || !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("expected missing dir failure, got %+v", result)
	}

	file := testsupport.WriteMediaFile(t, dir, "movie.mkv", "data")
	result = preflight.CheckDirectoryAccess("Root 1", file, false)
	if result.Passed || !strings.Contains(result.Detail, "not a directory") {
		t.Fatalf("expected non-directory failure, got %+v", result)
	}
}

func TestRunAllCoversRootsAndEmby(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithEmby(srv.URL, "key"))
	testsupport.WriteMediaFile(t, cfg.Watcher.Roots[0], ".keep.txt", "")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	results := preflight.RunAll(context.Background(), cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d: %+v", len(results), results)
	}
	for _, result := range results {
		if !result.Passed {
			t.Fatalf("expected all checks to pass, got %+v", result)
		}
	}
}
