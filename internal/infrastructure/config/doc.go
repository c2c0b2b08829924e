// Package config provides 12-factor configuration for the terminal host.
//
// Configuration is loaded from environment variables with defaults; the
// server command lets flags override individual values.
//
// Sections:
//   - Server: HTTP listen address and allowed CORS origins
//   - Terminal: default shell, geometry, environment, plugin chain, plugin data files
//   - Logging: level and output format
//   - RateLimit: per-IP limits on the HTTP API
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS
//   - TERMINAL_SHELL, TERMINAL_COLS, TERMINAL_ROWS, TERMINAL_TERM, TERMINAL_COLORTERM
//   - TERMINAL_WORKDIR, TERMINAL_SCROLLBACK, TERMINAL_PLUGINS
//   - TERMINAL_ALIAS_FILE, TERMINAL_THEME_FILE, TERMINAL_MONITOR
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
