package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEmby(); err != nil {
		return err
	}
	if err := c.validateWatcher(); err != nil {
		return err
	}
	if err := c.validateTelegram(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEmby() error {
	if c.Emby.URL == "" {
		return errors.New("emby.url is required (or set EMBY_URL)")
	}
	parsed, err := url.Parse(c.Emby.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("emby.url %q is not a valid URL", c.Emby.URL)
	}
	if c.Emby.APIKey == "" {
		return errors.New("emby.api_key is required (or set EMBY_API_KEY)")
	}
	return nil
}

func (c *Config) validateWatcher() error {
	if c.Watcher.DebounceSeconds >= 3600 {
		return fmt.Errorf("watcher.debounce_seconds %d exceeds one hour", c.Watcher.DebounceSeconds)
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.BotToken == "" {
		return nil
	}
	if len(c.Telegram.AdminChatIDs) == 0 && len(c.Telegram.UserChatIDs) == 0 {
		return errors.New("telegram.bot_token is set but no chat IDs are configured")
	}
	if !strings.HasPrefix(c.Telegram.APIBaseURL, "http") {
		return fmt.Errorf("telegram.api_base_url %q is not a valid URL", c.Telegram.APIBaseURL)
	}
	return nil
}
