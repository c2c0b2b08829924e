package terminal

import (
	"cmp"
	"errors"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/procfs"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dogeterm/internal/shared/id"
)

const (
	// DefaultScrollback is the per-session scrollback capacity in bytes.
	DefaultScrollback = 256 * 1024

	// closeWait bounds how long Close waits for the listener to stop.
	closeWait = 3 * time.Second
)

// Manager is the registry of terminal sessions and the single entry point
// for creating, writing to, resizing and closing them.
//
// mu guards the session map and the active pointer and is only held for
// lookups and registry mutation; PTY I/O serializes on each session's slot.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	active   string

	opener     Opener
	plugins    ChainFactory
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	scrollback int
	newID      func() string
	procRoot   string
}

// Option configures a Manager.
type Option func(*Manager)

// WithOpener sets how PTYs are allocated. Defaults to NativeOpener.
func WithOpener(o Opener) Option {
	return func(m *Manager) { m.opener = o }
}

// WithPlugins sets the factory building each new session's plugin chain.
func WithPlugins(f ChainFactory) Option {
	return func(m *Manager) { m.plugins = f }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics enables metrics recording.
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithScrollback sets the per-session scrollback capacity in bytes.
func WithScrollback(n int) Option {
	return func(m *Manager) { m.scrollback = n }
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(f func() string) Option {
	return func(m *Manager) { m.newID = f }
}

// WithProcRoot sets the procfs mount used to find a shell's current
// directory. Defaults to /proc.
func WithProcRoot(dir string) Option {
	return func(m *Manager) { m.procRoot = dir }
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:   make(map[string]*Session),
		opener:     NativeOpener{},
		plugins:    func(string) []Plugin { return nil },
		logger:     zap.NewNop(),
		scrollback: DefaultScrollback,
		newID:      func() string { return id.NewTerminalID().String() },
		procRoot:   procfs.DefaultMountPoint,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var (
	defaultManager *Manager
	defaultOnce    sync.Once
)

// Default returns the process-wide manager, creating it on first use with
// opts. Later calls ignore opts. It lives for the rest of the process.
func Default(opts ...Option) *Manager {
	defaultOnce.Do(func() {
		defaultManager = NewManager(opts...)
	})
	return defaultManager
}

// CreateSession opens a PTY, starts the shell, attaches a fresh plugin
// chain, starts the output listener and makes the session active.
func (m *Manager) CreateSession(cfg Config, sink OutputSink) (string, error) {
	if err := cfg.Validate(); err != nil {
		m.metrics.RecordError("create", errorKind(err))
		return "", err
	}
	if sink == nil {
		sink = discardSink{}
	}
	cfg = cfg.clone()

	h, err := m.opener.Open(cfg)
	if err != nil {
		m.metrics.RecordError("create", errorKind(err))
		m.logger.Warn("Failed to open terminal", zap.String("shell", cfg.Shell), zap.Error(err))
		return "", err
	}

	sessionID := m.newID()
	sess := &Session{
		id:         sessionID,
		startedAt:  time.Now(),
		pty:        &ptySlot{h: h},
		sink:       sink,
		cfg:        cfg,
		plugins:    Chain(m.plugins(sessionID)),
		scrollback: NewScrollback(m.scrollback),
		done:       make(chan struct{}),
	}

	// Output hooks wait for the start hooks.
	sess.hookMu.Lock()

	m.mu.Lock()
	m.sessions[sessionID] = sess
	m.active = sessionID
	count := len(m.sessions)
	m.mu.Unlock()

	go m.listen(sess, sess.pty.reader())

	m.invoke(sess, "on_session_start", func() { sess.plugins.sessionStart(sessionID) })
	sess.hookMu.Unlock()

	m.metrics.SessionCreated(count)
	m.logger.Info("Terminal session created",
		zap.String(logging.SessionKey, sessionID),
		zap.String("shell", cfg.Shell),
		zap.String("working_dir", cfg.WorkingDir),
		zap.Int("cols", cfg.Cols),
		zap.Int("rows", cfg.Rows),
		zap.Strings("plugins", sess.plugins.Names()),
	)

	return sessionID, nil
}

// Write sends raw bytes to the session's shell. No newline is added and no
// hooks run.
func (m *Manager) Write(sessionID string, p []byte) error {
	sess, err := m.lookup(sessionID)
	if err != nil {
		m.metrics.RecordError("write", errorKind(err))
		return err
	}

	n, err := sess.pty.write(p)
	m.metrics.AddBytesWritten(n)
	if err != nil {
		err = &IoError{Op: "write", SessionID: sessionID, Err: err}
		m.metrics.RecordError("write", errorKind(err))
		return err
	}
	return nil
}

// Resize changes the PTY geometry and the stored config.
func (m *Manager) Resize(sessionID string, cols, rows int) error {
	sess, err := m.lookup(sessionID)
	if err != nil {
		m.metrics.RecordError("resize", errorKind(err))
		return err
	}
	if err := validateSize(cols, rows); err != nil {
		m.metrics.RecordError("resize", errorKind(err))
		return err
	}

	if err := sess.pty.resize(cols, rows); err != nil {
		err = &PtyError{Op: "resize", SessionID: sessionID, Err: err}
		m.metrics.RecordError("resize", errorKind(err))
		return err
	}

	sess.hookMu.Lock()
	sess.cfg.Cols = cols
	sess.cfg.Rows = rows
	sess.hookMu.Unlock()
	return nil
}

// Close removes the session and clears the active pointer if it referenced
// it, then runs the session end hooks and releases the PTY so the listener
// stops. It waits briefly for the listener to finish.
func (m *Manager) Close(sessionID string) error {
	sess, err := m.lookup(sessionID)
	if err != nil {
		m.metrics.RecordError("close", "not_found")
		return err
	}

	// Removal happens under the session's emit lock so an output chunk is
	// either fully emitted before it or not at all.
	sess.emitMu.Lock()
	m.mu.Lock()
	if m.sessions[sessionID] != sess {
		m.mu.Unlock()
		sess.emitMu.Unlock()
		m.metrics.RecordError("close", "not_found")
		return notFound(sessionID)
	}
	delete(m.sessions, sessionID)
	if m.active == sessionID {
		m.active = ""
	}
	count := len(m.sessions)
	m.mu.Unlock()
	sess.removed = true
	sess.emitMu.Unlock()

	sess.hookMu.Lock()
	m.invoke(sess, "on_session_end", func() { sess.plugins.sessionEnd(sessionID) })
	sess.hookMu.Unlock()

	if err := sess.pty.release(); err != nil && !isEndOfStream(err) {
		m.logger.Debug("Error releasing pty", zap.String(logging.SessionKey, sessionID), zap.Error(err))
	}

	select {
	case <-sess.done:
	case <-time.After(closeWait):
		m.logger.Warn("Output listener did not stop after close", zap.String(logging.SessionKey, sessionID))
	}

	m.metrics.SessionClosed(count)
	m.logger.Info("Terminal session closed", zap.String(logging.SessionKey, sessionID))
	return nil
}

// CloseAll closes every session. Used on shutdown so no shell outlives the
// process.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for sid := range m.sessions {
		ids = append(ids, sid)
	}
	m.mu.RUnlock()

	for _, sid := range ids {
		if err := m.Close(sid); err != nil && !errors.Is(err, ErrSessionNotFound) {
			m.logger.Warn("Failed to close session", zap.String(logging.SessionKey, sid), zap.Error(err))
		}
	}
}

// Active returns the active session id, if any.
func (m *Manager) Active() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active, m.active != ""
}

// SetActive makes sessionID the active session.
func (m *Manager) SetActive(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return notFound(sessionID)
	}
	m.active = sessionID
	return nil
}

// DispatchCommandStart runs OnCommandStart on every plugin in chain order.
// Callers invoke it before writing the command line.
func (m *Manager) DispatchCommandStart(sessionID, command string) error {
	sess, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	sess.hookMu.Lock()
	defer sess.hookMu.Unlock()
	m.invoke(sess, "on_command_start", func() { sess.plugins.commandStart(command, sessionID) })
	return nil
}

// DispatchCommandEnd runs OnCommandEnd on every plugin in chain order.
// A nil exitCode means the status is unknown.
func (m *Manager) DispatchCommandEnd(sessionID string, exitCode *int) error {
	sess, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	sess.hookMu.Lock()
	defer sess.hookMu.Unlock()
	m.invoke(sess, "on_command_end", func() { sess.plugins.commandEnd(exitCode, sessionID) })
	return nil
}

// RunCommand dispatches command start hooks, then writes command plus a
// newline to the session.
func (m *Manager) RunCommand(sessionID, command string) error {
	if err := m.DispatchCommandStart(sessionID, command); err != nil {
		return err
	}
	return m.Write(sessionID, []byte(command+"\n"))
}

// SubmitCommand runs command on the active session.
func (m *Manager) SubmitCommand(command string) error {
	sessionID, err := m.activeID()
	if err != nil {
		return err
	}
	return m.RunCommand(sessionID, command)
}

// SendInput writes raw keystrokes to the active session.
func (m *Manager) SendInput(p []byte) error {
	sessionID, err := m.activeID()
	if err != nil {
		return err
	}
	return m.Write(sessionID, p)
}

// ResizeActive resizes the active session.
func (m *Manager) ResizeActive(cols, rows int) error {
	sessionID, err := m.activeID()
	if err != nil {
		return err
	}
	return m.Resize(sessionID, cols, rows)
}

// CloseActive closes the active session.
func (m *Manager) CloseActive() error {
	sessionID, err := m.activeID()
	if err != nil {
		return err
	}
	return m.Close(sessionID)
}

// ManagerInfo summarizes the registry.
type ManagerInfo struct {
	ActiveSession *string `json:"active_session"`
	TotalSessions int     `json:"total_sessions"`
	DefaultShell  string  `json:"default_shell"`
}

// Info returns the active session, session count and default shell.
func (m *Manager) Info() ManagerInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := ManagerInfo{
		TotalSessions: len(m.sessions),
		DefaultShell:  DefaultShell(),
	}
	if m.active != "" {
		active := m.active
		info.ActiveSession = &active
	}
	return info
}

// Count returns the number of registered sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ListPlugins returns the active session's plugin names in chain order.
func (m *Manager) ListPlugins() ([]string, error) {
	sessionID, err := m.activeID()
	if err != nil {
		return nil, err
	}
	sess, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	sess.hookMu.Lock()
	defer sess.hookMu.Unlock()
	return sess.plugins.Names(), nil
}

// Session returns the public view of one session.
func (m *Manager) Session(sessionID string) (Info, error) {
	sess, err := m.lookup(sessionID)
	if err != nil {
		return Info{}, err
	}
	active, _ := m.Active()
	return sess.info(active == sessionID), nil
}

// Sessions lists all sessions, oldest first.
func (m *Manager) Sessions() []Info {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		list = append(list, sess)
	}
	active := m.active
	m.mu.RUnlock()

	infos := make([]Info, 0, len(list))
	for _, sess := range list {
		infos = append(infos, sess.info(sess.id == active))
	}
	slices.SortFunc(infos, func(a, b Info) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return infos
}

// WorkingDir returns the shell's current directory, falling back to the
// directory it was started in. Safe to call from plugin hooks.
func (m *Manager) WorkingDir(sessionID string) (string, error) {
	sess, err := m.lookup(sessionID)
	if err != nil {
		return "", err
	}
	if pid := sess.pty.pid(); pid > 0 {
		if dir := m.processDir(pid); dir != "" {
			return dir, nil
		}
	}
	// WorkingDir never changes after creation, so hooks may call this
	// without deadlocking on hookMu.
	if dir := sess.cfg.WorkingDir; dir != "" {
		return dir, nil
	}
	return os.Getwd()
}

// processDir reads a process's current directory from procfs. It returns
// "" where procfs is unavailable or the process is gone.
func (m *Manager) processDir(pid int) string {
	fs, err := procfs.NewFS(m.procRoot)
	if err != nil {
		return ""
	}
	proc, err := fs.Proc(pid)
	if err != nil {
		return ""
	}
	dir, err := proc.Cwd()
	if err != nil {
		return ""
	}
	return dir
}

// ActiveWorkingDir returns the active session's working directory.
func (m *Manager) ActiveWorkingDir() (string, error) {
	sessionID, err := m.activeID()
	if err != nil {
		return "", err
	}
	return m.WorkingDir(sessionID)
}

// Scrollback returns the retained processed output of a session.
func (m *Manager) Scrollback(sessionID string) ([]byte, error) {
	sess, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.scrollback.Bytes(), nil
}

// Plugins returns the live plugin chain of a session, e.g. to query a
// plugin's state. Callers must not invoke hooks on the returned plugins.
func (m *Manager) Plugins(sessionID string) (Chain, error) {
	sess, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	sess.hookMu.Lock()
	defer sess.hookMu.Unlock()
	return slices.Clone(sess.plugins), nil
}

func (m *Manager) lookup(sessionID string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(sessionID)
	}
	return sess, nil
}

func (m *Manager) activeID() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == "" {
		return "", ErrNoActiveSession
	}
	return m.active, nil
}

// invoke runs a hook pass with timing. A panicking plugin is logged and the
// pass abandoned; it never takes the process down. Callers hold hookMu.
func (m *Manager) invoke(sess *Session, hook string, fn func()) (ok bool) {
	timer := monitoring.NewTimer(m.metrics, hook)
	defer func() {
		timer.Stop()
		if r := recover(); r != nil {
			ok = false
			m.logger.Error("Plugin hook panicked",
				zap.String(logging.SessionKey, sess.id),
				zap.String("hook", hook),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
	return true
}
