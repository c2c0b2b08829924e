package plugins

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/dogeterm/internal/terminal"
)

// Timing measures time from command submission to the reported command end.
type Timing struct {
	terminal.BasePlugin

	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	started   map[string]time.Time
	durations []float64 // milliseconds
}

// TimingStats summarizes completed command durations.
type TimingStats struct {
	Count  int           `json:"count"`
	Mean   time.Duration `json:"mean"`
	StdDev time.Duration `json:"stddev"`
	Last   time.Duration `json:"last"`
}

// NewTiming creates a timing plugin.
func NewTiming(logger *zap.Logger) *Timing {
	return &Timing{
		logger:  logger,
		now:     time.Now,
		started: make(map[string]time.Time),
	}
}

func (t *Timing) Name() string { return "timing" }

func (t *Timing) OnCommandStart(command, sessionID string) {
	t.mu.Lock()
	t.started[sessionID] = t.now()
	t.mu.Unlock()

	t.logger.Debug("Command started",
		zap.String(logging.SessionKey, sessionID),
		zap.String("command", command),
	)
}

func (t *Timing) OnCommandEnd(exitCode *int, sessionID string) {
	t.mu.Lock()
	start, ok := t.started[sessionID]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.started, sessionID)
	elapsed := t.now().Sub(start)
	t.durations = append(t.durations, float64(elapsed)/float64(time.Millisecond))
	t.mu.Unlock()

	t.logger.Info("Command finished",
		zap.String(logging.SessionKey, sessionID),
		zap.String("status", exitStatus(exitCode)),
		zap.Duration("duration", elapsed),
	)
}

// Stats returns statistics over all completed commands.
func (t *Timing) Stats() TimingStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.durations)
	if n == 0 {
		return TimingStats{}
	}
	s := TimingStats{
		Count: n,
		Last:  msToDuration(t.durations[n-1]),
	}
	if n == 1 {
		s.Mean = s.Last
		return s
	}
	mean, std := stat.MeanStdDev(t.durations, nil)
	s.Mean = msToDuration(mean)
	s.StdDev = msToDuration(std)
	return s
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func exitStatus(exitCode *int) string {
	switch {
	case exitCode == nil:
		return "unknown"
	case *exitCode == 0:
		return "success"
	default:
		return fmt.Sprintf("failed(%d)", *exitCode)
	}
}
