package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"embyscan/internal/config"
	"embyscan/internal/daemon"
	"embyscan/internal/emby"
	"embyscan/internal/index"
	"embyscan/internal/ipc"
	"embyscan/internal/notify"
	"embyscan/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *index.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	logPath    string
	embyCalls  *int
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	calls := 0
	embySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/Library/") {
			calls++
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(embySrv.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithEmby(embySrv.URL, "key"))
	// Park fsnotify events so only explicit commands trigger scans.
	cfg.Watcher.DebounceSeconds = 3599
	cfg.Watcher.SweepIntervalSeconds = 0
	cfg.Watcher.RetryBackoffSeconds = 0
	testsupport.WriteMediaFile(t, cfg.Watcher.Roots[0], ".keep.txt", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, emby.NewClient(cfg), notify.NewService(cfg), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	t.Cleanup(d.Stop)

	srv, err := ipc.NewServer(context.Background(), cfg.Paths.SocketPath, d, nil)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		server:     srv,
		socketPath: cfg.Paths.SocketPath,
		configPath: configPath,
		logPath:    d.LogPath(),
		embyCalls:  &calls,
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, needle string) {
	t.Helper()
	if !strings.Contains(output, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, output)
	}
}

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		t.Fatalf("append log line: %v", err)
	}
}
