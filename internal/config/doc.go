// Package config loads, normalizes, and validates embyscan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// EMBY_URL, EMBY_API_KEY, and DATABASE_FILE. The Config type centralizes every
// knob the daemon and CLI need, from watched media roots to Telegram chat IDs.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
