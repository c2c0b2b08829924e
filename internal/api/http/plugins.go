package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/dogeterm/internal/terminal"
	"github.com/GriffinCanCode/dogeterm/internal/terminal/plugins"
)

// pluginOf finds the plugin of type T in a session's chain. It writes the
// error response and returns false when the session or plugin is missing.
func pluginOf[T terminal.Plugin](h *Handlers, c *gin.Context, name string) (T, bool) {
	var zero T
	chain, err := h.manager.Plugins(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return zero, false
	}
	p, ok := plugins.Find[T](chain)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("plugin %q not enabled for session", name)})
		return zero, false
	}
	return p, true
}

// History returns the commands submitted to a session.
func (h *Handlers) History(c *gin.Context) {
	p, ok := pluginOf[*plugins.History](h, c, "history")
	if !ok {
		return
	}
	history := p.History()
	if history == nil {
		history = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// Timing returns command duration statistics for a session.
func (h *Handlers) Timing(c *gin.Context) {
	p, ok := pluginOf[*plugins.Timing](h, c, "timing")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p.Stats())
}

// Suggestions returns completions for the prefix query parameter.
func (h *Handlers) Suggestions(c *gin.Context) {
	p, ok := pluginOf[*plugins.Autocomplete](h, c, "autocomplete")
	if !ok {
		return
	}
	suggestions := p.Suggestions(c.Query("prefix"))
	if suggestions == nil {
		suggestions = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// GetTheme returns the session's current theme and the available names.
func (h *Handlers) GetTheme(c *gin.Context) {
	p, ok := pluginOf[*plugins.ThemeSwitcher](h, c, "theme")
	if !ok {
		return
	}
	name, theme := p.Current()
	c.JSON(http.StatusOK, gin.H{"name": name, "theme": theme, "themes": p.Themes()})
}

// SetTheme switches the session's theme.
func (h *Handlers) SetTheme(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, ok := pluginOf[*plugins.ThemeSwitcher](h, c, "theme")
	if !ok {
		return
	}
	if err := p.SetTheme(req.Name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	name, theme := p.Current()
	c.JSON(http.StatusOK, gin.H{"name": name, "theme": theme})
}

// ListAliases returns the shared alias table.
func (h *Handlers) ListAliases(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"aliases": h.aliases.All()})
}

// ExpandAlias expands the command query parameter.
func (h *Handlers) ExpandAlias(c *gin.Context) {
	command := c.Query("command")
	c.JSON(http.StatusOK, gin.H{"command": command, "expanded": h.aliases.Expand(command)})
}
