package config

const (
	defaultDBFile      = "~/.local/share/embyscan/embyscan.db"
	defaultLogDir      = "~/.local/share/embyscan/logs"
	defaultEmbyURL     = "http://127.0.0.1:8096"
	defaultLogLevel    = "info"
	defaultLogFormat   = "console"
	defaultWebhookBind = "127.0.0.1:8790"

	defaultEmbyRequestTimeout    = 10
	defaultDebounceSeconds       = 10
	defaultSweepIntervalSeconds  = 60
	defaultRetryAttempts         = 3
	defaultRetryBackoffSeconds   = 2
	defaultTelegramAPIBaseURL    = "https://api.telegram.org"
	defaultPerPathUpdatesEnabled = true
)

// Default returns the repository default configuration. Paths are in their
// unexpanded form; Load normalizes them before use.
func Default() Config {
	return Config{
		Paths: Paths{
			DBFile: defaultDBFile,
			LogDir: defaultLogDir,
		},
		Emby: Emby{
			URL:            defaultEmbyURL,
			PerPathUpdates: defaultPerPathUpdatesEnabled,
			RequestTimeout: defaultEmbyRequestTimeout,
		},
		Watcher: Watcher{
			DebounceSeconds:      defaultDebounceSeconds,
			SweepIntervalSeconds: defaultSweepIntervalSeconds,
			RetryAttempts:        defaultRetryAttempts,
			RetryBackoffSeconds:  defaultRetryBackoffSeconds,
		},
		Webhook: Webhook{
			Enabled: false,
			Bind:    defaultWebhookBind,
		},
		Telegram: Telegram{
			APIBaseURL: defaultTelegramAPIBaseURL,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
