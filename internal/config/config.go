package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains filesystem locations owned by the daemon.
type Paths struct {
	DBFile     string `toml:"db_file"`
	LogDir     string `toml:"log_dir"`
	SocketPath string `toml:"socket_path"`
}

// Emby contains connection settings for the Emby server API.
type Emby struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	PerPathUpdates bool   `toml:"per_path_updates"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Watcher contains configuration for filesystem watching and scan triggers.
type Watcher struct {
	Roots                []string `toml:"roots"`
	DebounceSeconds      int      `toml:"debounce_seconds"`
	SweepIntervalSeconds int      `toml:"sweep_interval_seconds"`
	RetryAttempts        int      `toml:"retry_attempts"`
	RetryBackoffSeconds  int      `toml:"retry_backoff_seconds"`
	ExtraExtensions      []string `toml:"extra_extensions"`
}

// Webhook contains configuration for the Emby event webhook server.
type Webhook struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
	Token   string `toml:"token"`
}

// Telegram contains configuration for Telegram push notifications.
type Telegram struct {
	BotToken     string  `toml:"bot_token"`
	AdminChatIDs []int64 `toml:"admin_chat_ids"`
	UserChatIDs  []int64 `toml:"user_chat_ids"`
	APIBaseURL   string  `toml:"api_base_url"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for embyscan.
//
// Configuration sections by subsystem:
//   - Paths: database file, log directory, and IPC socket
//   - Emby: server URL, API key, and update strategy
//   - Watcher: media roots, debounce window, sweep interval, retries
//   - Webhook: Emby event callback server
//   - Telegram: bot credentials and recipient chat IDs
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Emby     Emby     `toml:"emby"`
	Watcher  Watcher  `toml:"watcher"`
	Webhook  Webhook  `toml:"webhook"`
	Telegram Telegram `toml:"telegram"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/embyscan/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("embyscan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if dbDir := filepath.Dir(c.Paths.DBFile); dbDir != "" && dbDir != "." {
		dirs = append(dirs, dbDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DebounceWindow returns the quiet period as a duration.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.Watcher.DebounceSeconds) * time.Second
}

// SweepInterval returns the periodic sweep interval; zero disables sweeping.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Watcher.SweepIntervalSeconds) * time.Second
}

// RetryBackoff returns the base delay between trigger retry attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Watcher.RetryBackoffSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
