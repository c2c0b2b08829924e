package terminal

import (
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// ListenerState is the state of a session's output listener.
type ListenerState int32

const (
	ListenerRunning ListenerState = iota
	ListenerStopped
)

func (s ListenerState) String() string {
	if s == ListenerStopped {
		return "stopped"
	}
	return "running"
}

// ptySlot is the single lock-guarded owner of a session's Handle. Writes,
// resizes and close serialize on mu; the listener only borrows the reader
// once and then reads without the lock.
type ptySlot struct {
	mu sync.Mutex
	h  Handle
}

func (s *ptySlot) write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.h == nil {
		return 0, ErrSessionClosed
	}
	return s.h.Write(p)
}

func (s *ptySlot) resize(cols, rows int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.h == nil {
		return ErrSessionClosed
	}
	return s.h.Resize(cols, rows)
}

func (s *ptySlot) reader() io.Reader {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.h == nil {
		return nil
	}
	return s.h
}

func (s *ptySlot) pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.h == nil {
		return 0
	}
	return s.h.Pid()
}

// release drops the handle; the blocked reader then sees end of stream.
func (s *ptySlot) release() error {
	s.mu.Lock()
	h := s.h
	s.h = nil
	s.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.Close()
}

// Session is one running shell: its PTY, config and plugin chain.
type Session struct {
	id        string
	startedAt time.Time
	pty       *ptySlot
	sink      OutputSink

	// hookMu serializes plugin hooks and guards cfg geometry.
	hookMu  sync.Mutex
	cfg     Config
	plugins Chain

	scrollback *Scrollback
	state      atomic.Int32
	done       chan struct{}

	// emitMu orders output emission against removal: once removed is set
	// nothing more reaches the scrollback or the sink.
	emitMu  sync.Mutex
	removed bool
}

// emit hands processed output to the scrollback and the sink unless the
// session has been removed. It reports whether the session is still live.
func (s *Session) emit(out string) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.removed {
		return false
	}
	_, _ = s.scrollback.Write([]byte(out))
	s.sink.Output(s.id, out)
	return true
}

func (s *Session) isRemoved() bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	return s.removed
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the listener state.
func (s *Session) State() ListenerState { return ListenerState(s.state.Load()) }

// Done is closed when the output listener stops.
func (s *Session) Done() <-chan struct{} { return s.done }

// Config returns a copy of the session config.
func (s *Session) Config() Config {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	return s.cfg.clone()
}

// Info is the public view of a session.
type Info struct {
	ID         string    `json:"id"`
	Shell      string    `json:"shell"`
	WorkingDir string    `json:"working_dir"`
	Cols       int       `json:"cols"`
	Rows       int       `json:"rows"`
	StartedAt  time.Time `json:"started_at"`
	Listener   string    `json:"listener"`
	Active     bool      `json:"active"`
	Plugins    []string  `json:"plugins"`
}

func (s *Session) info(active bool) Info {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	return Info{
		ID:         s.id,
		Shell:      s.cfg.Shell,
		WorkingDir: s.cfg.WorkingDir,
		Cols:       s.cfg.Cols,
		Rows:       s.cfg.Rows,
		StartedAt:  s.startedAt,
		Listener:   s.State().String(),
		Active:     active,
		Plugins:    s.plugins.Names(),
	}
}
