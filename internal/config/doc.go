// Package config loads Lectern's configuration.
//
// # Resolution Order
//
//  1. Built-in defaults (see Default)
//  2. The TOML file at the given path, or ~/.config/lectern/config.toml
//  3. LECTERN_* environment variables
//
// A missing file is not an error. Invalid TOML is. The merged result is
// checked with go-playground/validator before it is returned.
//
// # TOML Format
//
//	api_url = "http://127.0.0.1:5001"
//	request_timeout_seconds = 10
//	poll_seconds = 60            # 0 disables background polling
//
//	[cache]
//	backend = "file"             # or "sqlite"
//	path = "~/.local/share/lectern/progress.json"
//
//	[log]
//	file = "~/.local/state/lectern/lectern.log"   # "" logs to stderr
//	level = "info"
//	env = "production"           # "development" switches to console output
//
// When cache.path is unset it follows the backend: progress.json for file,
// progress.db for sqlite.
//
// # Environment Overrides
//
//	LECTERN_API_URL
//	LECTERN_CACHE_BACKEND
//	LECTERN_CACHE_PATH
//	LECTERN_LOG_LEVEL
//	LECTERN_POLL_SECONDS
//
// Empty values are ignored. A .env file is loaded by the command before
// Load runs, so it feeds the same variables.
package config
