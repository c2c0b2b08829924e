package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// DefaultPlugins is the plugin chain attached to every new session, in order.
var DefaultPlugins = []string{"history", "color", "timing", "git", "autocomplete", "alias", "theme", "monitor"}

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Terminal  TerminalConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string   `envconfig:"PORT" default:"8000"`
	Host        string   `envconfig:"HOST" default:"127.0.0.1"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// TerminalConfig holds defaults for new terminal sessions.
type TerminalConfig struct {
	Shell      string   `envconfig:"TERMINAL_SHELL"`
	Cols       int      `envconfig:"TERMINAL_COLS" default:"80"`
	Rows       int      `envconfig:"TERMINAL_ROWS" default:"24"`
	Term       string   `envconfig:"TERMINAL_TERM" default:"xterm-256color"`
	ColorTerm  string   `envconfig:"TERMINAL_COLORTERM" default:"truecolor"`
	WorkingDir string   `envconfig:"TERMINAL_WORKDIR"`
	Scrollback int      `envconfig:"TERMINAL_SCROLLBACK" default:"262144"`
	Plugins    []string `envconfig:"TERMINAL_PLUGINS" default:"history,color,timing,git,autocomplete,alias,theme,monitor"`
	AliasFile  string   `envconfig:"TERMINAL_ALIAS_FILE"`
	ThemeFile  string   `envconfig:"TERMINAL_THEME_FILE"`
	Monitor    bool     `envconfig:"TERMINAL_MONITOR" default:"false"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "127.0.0.1",
			CORSOrigins: []string{"*"},
		},
		Terminal: TerminalConfig{
			Cols:       80,
			Rows:       24,
			Term:       "xterm-256color",
			ColorTerm:  "truecolor",
			Scrollback: 256 * 1024,
			Plugins:    append([]string(nil), DefaultPlugins...),
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	if c.Terminal.Cols <= 0 || c.Terminal.Rows <= 0 {
		return fmt.Errorf("terminal geometry must be positive, got %dx%d", c.Terminal.Cols, c.Terminal.Rows)
	}
	if c.Terminal.Scrollback < 0 {
		return fmt.Errorf("terminal scrollback must not be negative, got %d", c.Terminal.Scrollback)
	}
	return nil
}
