package plugins

import (
	"strings"
	"sync"

	"github.com/GriffinCanCode/dogeterm/internal/terminal"
)

// History records every non-blank command submitted to a session.
type History struct {
	terminal.BasePlugin

	mu       sync.RWMutex
	commands []string
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

func (h *History) Name() string { return "history" }

func (h *History) OnCommandStart(command, _ string) {
	command = strings.TrimSpace(command)
	if command == "" {
		return
	}
	h.mu.Lock()
	h.commands = append(h.commands, command)
	h.mu.Unlock()
}

// History returns recorded commands, oldest first.
func (h *History) History() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.commands...)
}
