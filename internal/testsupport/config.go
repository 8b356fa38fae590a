// Package testsupport provides shared helpers for embyscan tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"embyscan/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DBFile = filepath.Join(base, "embyscan.db")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "embyscan.sock")
	cfg.Emby.URL = "http://127.0.0.1:8096"
	cfg.Emby.APIKey = "test"
	cfg.Watcher.Roots = []string{filepath.Join(base, "media")}

	for _, opt := range opts {
		opt(&cfg)
	}

	// The daemon expects the log and database directories to exist,
	// as daemonrun prepares them in production.
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure config directories: %v", err)
	}

	return &cfg
}

// WithEmby points the config at a test server.
func WithEmby(url, apiKey string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Emby.URL = url
		cfg.Emby.APIKey = apiKey
	}
}

// WithRoots overrides the watched media roots.
func WithRoots(roots ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Watcher.Roots = roots
	}
}

// WithTelegram enables Telegram notifications against a test server.
func WithTelegram(apiBaseURL, token string, chatIDs ...int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Telegram.APIBaseURL = apiBaseURL
		cfg.Telegram.BotToken = token
		cfg.Telegram.AdminChatIDs = chatIDs
	}
}
