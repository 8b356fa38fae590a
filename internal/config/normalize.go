package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeEmby(); err != nil {
		return err
	}
	if err := c.normalizeWatcher(); err != nil {
		return err
	}
	c.normalizeWebhook()
	c.normalizeTelegram()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("DATABASE_FILE"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DBFile = strings.TrimSpace(value)
	}
	var err error
	if c.Paths.DBFile, err = expandPath(c.Paths.DBFile); err != nil {
		return fmt.Errorf("paths.db_file: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.SocketPath = strings.TrimSpace(c.Paths.SocketPath)
	if c.Paths.SocketPath == "" {
		c.Paths.SocketPath = filepath.Join(c.Paths.LogDir, "embyscan.sock")
	} else if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeEmby() error {
	if value, ok := os.LookupEnv("EMBY_URL"); ok && strings.TrimSpace(value) != "" {
		c.Emby.URL = value
	}
	if c.Emby.APIKey == "" {
		if value, ok := os.LookupEnv("EMBY_API_KEY"); ok {
			c.Emby.APIKey = value
		}
	}
	c.Emby.URL = strings.TrimRight(strings.TrimSpace(c.Emby.URL), "/")
	c.Emby.APIKey = strings.TrimSpace(c.Emby.APIKey)
	if c.Emby.RequestTimeout <= 0 {
		c.Emby.RequestTimeout = defaultEmbyRequestTimeout
	}
	return nil
}

func (c *Config) normalizeWatcher() error {
	roots := make([]string, 0, len(c.Watcher.Roots))
	seen := make(map[string]struct{}, len(c.Watcher.Roots))
	for _, root := range c.Watcher.Roots {
		trimmed := strings.TrimSpace(root)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("watcher.roots: %w", err)
		}
		if _, ok := seen[expanded]; ok {
			continue
		}
		seen[expanded] = struct{}{}
		roots = append(roots, expanded)
	}
	c.Watcher.Roots = roots

	if c.Watcher.DebounceSeconds <= 0 {
		c.Watcher.DebounceSeconds = defaultDebounceSeconds
	}
	if c.Watcher.SweepIntervalSeconds < 0 {
		c.Watcher.SweepIntervalSeconds = 0
	}
	if c.Watcher.RetryAttempts <= 0 {
		c.Watcher.RetryAttempts = defaultRetryAttempts
	}
	if c.Watcher.RetryBackoffSeconds <= 0 {
		c.Watcher.RetryBackoffSeconds = defaultRetryBackoffSeconds
	}

	exts := make([]string, 0, len(c.Watcher.ExtraExtensions))
	seenExt := make(map[string]struct{}, len(c.Watcher.ExtraExtensions))
	for _, ext := range c.Watcher.ExtraExtensions {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if normalized == "" {
			continue
		}
		if _, ok := seenExt[normalized]; ok {
			continue
		}
		seenExt[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	c.Watcher.ExtraExtensions = exts
	return nil
}

func (c *Config) normalizeWebhook() {
	c.Webhook.Bind = strings.TrimSpace(c.Webhook.Bind)
	if c.Webhook.Bind == "" {
		c.Webhook.Bind = defaultWebhookBind
	}
	c.Webhook.Token = strings.TrimSpace(c.Webhook.Token)
}

func (c *Config) normalizeTelegram() {
	if c.Telegram.BotToken == "" {
		if value, ok := os.LookupEnv("TELEGRAM_BOT_TOKEN"); ok {
			c.Telegram.BotToken = value
		}
	}
	c.Telegram.BotToken = strings.TrimSpace(c.Telegram.BotToken)
	c.Telegram.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Telegram.APIBaseURL), "/")
	if c.Telegram.APIBaseURL == "" {
		c.Telegram.APIBaseURL = defaultTelegramAPIBaseURL
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
