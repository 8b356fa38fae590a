package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"embyscan/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("EMBY_URL", "")
	t.Setenv("EMBY_API_KEY", "")
	t.Setenv("DATABASE_FILE", "")
	path := writeConfig(t, `
[emby]
url = "http://media.local:8096"
api_key = "secret"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected config file to resolve, got exists=%v path=%q", exists, resolved)
	}
	if cfg.Watcher.DebounceSeconds != 10 {
		t.Fatalf("expected default debounce of 10s, got %d", cfg.Watcher.DebounceSeconds)
	}
	if cfg.Watcher.SweepIntervalSeconds != 60 {
		t.Fatalf("expected default sweep interval of 60s, got %d", cfg.Watcher.SweepIntervalSeconds)
	}
	if cfg.Watcher.RetryAttempts != 3 {
		t.Fatalf("expected default retry attempts of 3, got %d", cfg.Watcher.RetryAttempts)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected console log format, got %q", cfg.Logging.Format)
	}
	if !cfg.Emby.PerPathUpdates {
		t.Fatal("expected per-path updates enabled by default")
	}
}

func TestLoadHonoursEnvironmentFallbacks(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "state", "emby_monitor.db")
	t.Setenv("EMBY_URL", "http://10.5.0.5:8096/")
	t.Setenv("EMBY_API_KEY", "from-env")
	t.Setenv("DATABASE_FILE", dbFile)

	path := writeConfig(t, "")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Emby.URL != "http://10.5.0.5:8096" {
		t.Fatalf("expected trailing slash trimmed from EMBY_URL, got %q", cfg.Emby.URL)
	}
	if cfg.Emby.APIKey != "from-env" {
		t.Fatalf("expected API key from environment, got %q", cfg.Emby.APIKey)
	}
	if cfg.Paths.DBFile != dbFile {
		t.Fatalf("expected DATABASE_FILE to win, got %q", cfg.Paths.DBFile)
	}
}

func TestLoadNormalizesRootsAndExtensions(t *testing.T) {
	t.Setenv("EMBY_API_KEY", "secret")
	t.Setenv("EMBY_URL", "")
	t.Setenv("DATABASE_FILE", "")
	path := writeConfig(t, `
[watcher]
roots = ["/mnt/media", "/mnt/media", "  ", "/mnt/music"]
extra_extensions = [".ISO", "iso", " "]
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Watcher.Roots) != 2 {
		t.Fatalf("expected duplicate and blank roots removed, got %v", cfg.Watcher.Roots)
	}
	if len(cfg.Watcher.ExtraExtensions) != 1 || cfg.Watcher.ExtraExtensions[0] != "iso" {
		t.Fatalf("expected normalized extensions, got %v", cfg.Watcher.ExtraExtensions)
	}
}

func TestValidateRejectsMissingAPIKey(t *testing.T) {
	t.Setenv("EMBY_API_KEY", "")
	t.Setenv("EMBY_URL", "")
	t.Setenv("DATABASE_FILE", "")
	path := writeConfig(t, `
[emby]
url = "http://media.local:8096"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("expected api_key validation error, got %v", err)
	}
}

func TestValidateRejectsTokenWithoutChats(t *testing.T) {
	t.Setenv("EMBY_API_KEY", "secret")
	t.Setenv("EMBY_URL", "")
	t.Setenv("DATABASE_FILE", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	path := writeConfig(t, `
[telegram]
bot_token = "123:abc"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "chat IDs") {
		t.Fatalf("expected telegram validation error, got %v", err)
	}
}

func TestCreateSampleWritesParseableConfig(t *testing.T) {
	t.Setenv("EMBY_API_KEY", "secret")
	t.Setenv("EMBY_URL", "")
	t.Setenv("DATABASE_FILE", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample config to load, exists=%v err=%v", exists, err)
	}
}
