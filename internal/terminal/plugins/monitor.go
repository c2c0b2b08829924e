package plugins

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/procfs"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/dogeterm/internal/terminal"
)

// Monitor reports a short system summary on demand and, when enabled, at
// session start.
type Monitor struct {
	terminal.BasePlugin
	logger   *zap.Logger
	procRoot string

	mu      sync.RWMutex
	enabled bool
}

// NewMonitor creates a monitor plugin.
func NewMonitor(logger *zap.Logger, enabled bool) *Monitor {
	return &Monitor{logger: logger, procRoot: procfs.DefaultMountPoint, enabled: enabled}
}

func (m *Monitor) Name() string { return "monitor" }

// Enabled reports whether the welcome summary is shown.
func (m *Monitor) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

func (m *Monitor) setEnabled(on bool) {
	m.mu.Lock()
	m.enabled = on
	m.mu.Unlock()
}

func (m *Monitor) OnSessionStart(sessionID string) {
	if !m.Enabled() {
		return
	}
	m.logger.Info("Welcome", zap.String(logging.SessionKey, sessionID), zap.String("system", m.SystemInfo()))
}

func (m *Monitor) OnCommandStart(command, sessionID string) {
	switch strings.TrimSpace(command) {
	case "doge monitor on":
		m.setEnabled(true)
		m.logger.Info("System monitoring enabled", zap.String(logging.SessionKey, sessionID))
	case "doge monitor off":
		m.setEnabled(false)
		m.logger.Info("System monitoring disabled", zap.String(logging.SessionKey, sessionID))
	case "doge monitor status":
		m.logger.Info("System status", zap.String(logging.SessionKey, sessionID), zap.String("system", m.SystemInfo()))
	}
}

// SystemInfo returns e.g. "Load: 0.42 | Mem: 3120/15842 MB".
func (m *Monitor) SystemInfo() string {
	fs, err := procfs.NewFS(m.procRoot)
	if err != nil {
		return "System info not available"
	}

	var parts []string
	if load, err := fs.LoadAvg(); err == nil {
		parts = append(parts, "Load: "+strconv.FormatFloat(load.Load1, 'f', 2, 64))
	}
	if mem, err := fs.Meminfo(); err == nil && mem.MemTotal != nil && mem.MemAvailable != nil {
		total, avail := *mem.MemTotal, *mem.MemAvailable
		parts = append(parts, fmt.Sprintf("Mem: %d/%d MB", (total-avail)/1024, total/1024))
	}

	if len(parts) == 0 {
		return "System info not available"
	}
	return strings.Join(parts, " | ")
}
