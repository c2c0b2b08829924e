package plugins

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/dogeterm/internal/terminal"
)

// DefaultThemeName is the theme a new session starts with.
const DefaultThemeName = "default"

// Theme is a terminal color scheme.
type Theme struct {
	Background string `toml:"background" json:"background"`
	Foreground string `toml:"foreground" json:"foreground"`
	Cursor     string `toml:"cursor" json:"cursor"`
	Selection  string `toml:"selection" json:"selection"`
}

// DefaultThemes returns the built-in themes.
func DefaultThemes() map[string]Theme {
	return map[string]Theme{
		"default": {Background: "#1e1e1e", Foreground: "#d4d4d4", Cursor: "#ffffff", Selection: "#264f78"},
		"dark":    {Background: "#000000", Foreground: "#ffffff", Cursor: "#ffffff", Selection: "#404040"},
		"light":   {Background: "#ffffff", Foreground: "#000000", Cursor: "#000000", Selection: "#b3d7ff"},
		"monokai": {Background: "#272822", Foreground: "#f8f8f2", Cursor: "#f8f8f0", Selection: "#49483e"},
		"dracula": {Background: "#282a36", Foreground: "#f8f8f2", Cursor: "#f8f8f0", Selection: "#44475a"},
	}
}

// themeFile is the on-disk theme format:
//
//	[themes.solarized]
//	background = "#002b36"
//	foreground = "#839496"
//	cursor = "#93a1a1"
//	selection = "#073642"
type themeFile struct {
	Themes map[string]Theme `toml:"themes"`
}

// LoadThemes reads a TOML theme file and returns the defaults merged with it.
func LoadThemes(path string) (map[string]Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read theme file: %w", err)
	}
	var f themeFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse theme file %s: %w", path, err)
	}
	themes := DefaultThemes()
	maps.Copy(themes, f.Themes)
	return themes, nil
}

// ThemeSwitcher keeps a session's current theme and handles the
// "doge theme" commands.
type ThemeSwitcher struct {
	terminal.BasePlugin
	logger *zap.Logger

	mu      sync.RWMutex
	themes  map[string]Theme
	current string
}

// NewTheme creates a theme plugin over themes, or the defaults if nil.
func NewTheme(logger *zap.Logger, themes map[string]Theme) *ThemeSwitcher {
	if themes == nil {
		themes = DefaultThemes()
	}
	current := DefaultThemeName
	if _, ok := themes[current]; !ok {
		current = ""
	}
	return &ThemeSwitcher{logger: logger, themes: maps.Clone(themes), current: current}
}

func (t *ThemeSwitcher) Name() string { return "theme" }

// SetTheme switches to name.
func (t *ThemeSwitcher) SetTheme(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.themes[name]; !ok {
		return fmt.Errorf("theme %q not found", name)
	}
	t.current = name
	return nil
}

// Current returns the current theme and its name.
func (t *ThemeSwitcher) Current() (string, Theme) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current, t.themes[t.current]
}

// Themes returns the available theme names, sorted.
func (t *ThemeSwitcher) Themes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Sorted(maps.Keys(t.themes))
}

func (t *ThemeSwitcher) OnCommandStart(command, sessionID string) {
	command = strings.TrimSpace(command)
	if command == "doge theme list" {
		t.logger.Info("Available themes",
			zap.String(logging.SessionKey, sessionID),
			zap.Strings("themes", t.Themes()),
		)
		return
	}

	name, ok := strings.CutPrefix(command, "doge theme ")
	if !ok {
		return
	}
	name = strings.TrimSpace(name)
	if err := t.SetTheme(name); err != nil {
		t.logger.Warn("Theme change failed", zap.String(logging.SessionKey, sessionID), zap.Error(err))
		return
	}
	t.logger.Info("Theme changed", zap.String(logging.SessionKey, sessionID), zap.String("theme", name))
}
