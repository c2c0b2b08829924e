// Package terminaltest provides in-memory PTY handles and sinks for tests.
package terminaltest

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/GriffinCanCode/dogeterm/internal/terminal"
)

// PTY is an in-memory terminal.Handle. Output pushed with Emit is what the
// session's listener reads.
type PTY struct {
	Config terminal.Config

	pr *io.PipeReader
	pw *io.PipeWriter

	mu        sync.Mutex
	written   bytes.Buffer
	cols      int
	rows      int
	closed    bool
	echo      bool
	pid       int
	WriteErr  error
	ResizeErr error
}

// NewPTY creates a fake handle for cfg.
func NewPTY(cfg terminal.Config, echo bool) *PTY {
	pr, pw := io.Pipe()
	return &PTY{Config: cfg, pr: pr, pw: pw, cols: cfg.Cols, rows: cfg.Rows, echo: echo}
}

func (p *PTY) Read(b []byte) (int, error) { return p.pr.Read(b) }

// Write records b and, when echo is on, plays it back as output.
func (p *PTY) Write(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, os.ErrClosed
	}
	if p.WriteErr != nil {
		err := p.WriteErr
		p.mu.Unlock()
		return 0, err
	}
	p.written.Write(b)
	echo := p.echo
	p.mu.Unlock()

	if echo {
		go func(data []byte) { _, _ = p.pw.Write(data) }(append([]byte(nil), b...))
	}
	return len(b), nil
}

func (p *PTY) Resize(cols, rows int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ResizeErr != nil {
		return p.ResizeErr
	}
	p.cols, p.rows = cols, rows
	return nil
}

func (p *PTY) Pid() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// Close ends the output stream with EOF.
func (p *PTY) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.pw.Close()
}

// Emit pushes shell output to the listener. It blocks until read.
func (p *PTY) Emit(s string) error {
	_, err := p.pw.Write([]byte(s))
	return err
}

// EmitBytes pushes raw bytes to the listener.
func (p *PTY) EmitBytes(b []byte) error {
	_, err := p.pw.Write(b)
	return err
}

// Fail makes the pending and all later reads return err.
func (p *PTY) Fail(err error) {
	p.pw.CloseWithError(err)
}

// Written returns everything written to the shell so far.
func (p *PTY) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

// Size returns the current geometry.
func (p *PTY) Size() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cols, p.rows
}

// Closed reports whether Close was called.
func (p *PTY) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Opener hands out fake PTYs and remembers them in open order.
type Opener struct {
	Echo bool
	Err  error
	// Pid is reported by every PTY opened from now on.
	Pid int

	mu     sync.Mutex
	opened []*PTY
}

func (o *Opener) Open(cfg terminal.Config) (terminal.Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return nil, o.Err
	}
	p := NewPTY(cfg, o.Echo)
	p.pid = o.Pid
	o.opened = append(o.opened, p)
	return p, nil
}

// Last returns the most recently opened PTY.
func (o *Opener) Last() *PTY {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.opened) == 0 {
		return nil
	}
	return o.opened[len(o.opened)-1]
}

// Opened returns the number of PTYs handed out.
func (o *Opener) Opened() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.opened)
}

// Sink records output per session.
type Sink struct {
	mu     sync.Mutex
	chunks map[string][]string
	closed map[string]error
}

// NewSink creates an empty recording sink.
func NewSink() *Sink {
	return &Sink{chunks: make(map[string][]string), closed: make(map[string]error)}
}

func (s *Sink) Output(sessionID, chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[sessionID] = append(s.chunks[sessionID], chunk)
}

func (s *Sink) Closed(sessionID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed[sessionID] = err
}

// Chunks returns the chunks delivered for a session, in order.
func (s *Sink) Chunks(sessionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.chunks[sessionID]...)
}

// Text returns all output delivered for a session.
func (s *Sink) Text(sessionID string) string {
	return strings.Join(s.Chunks(sessionID), "")
}

// ClosedWith returns the error the listener stopped with and whether it stopped.
func (s *Sink) ClosedWith(sessionID string) (error, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err, ok := s.closed[sessionID]
	return err, ok
}

// RecordingPlugin appends "<name>:<hook>" to a shared log on every hook and
// applies Transform to output.
type RecordingPlugin struct {
	terminal.BasePlugin
	PluginName string
	Log        *Log
	Transform  func(string) string
}

func (p *RecordingPlugin) Name() string { return p.PluginName }

func (p *RecordingPlugin) OnSessionStart(string) { p.Log.Add(p.PluginName + ":session_start") }
func (p *RecordingPlugin) OnSessionEnd(string)   { p.Log.Add(p.PluginName + ":session_end") }

func (p *RecordingPlugin) OnCommandStart(command, _ string) {
	p.Log.Add(p.PluginName + ":command_start:" + command)
}

func (p *RecordingPlugin) OnCommandEnd(exitCode *int, _ string) {
	p.Log.Add(p.PluginName + ":command_end")
}

func (p *RecordingPlugin) OnOutput(chunk, _ string) string {
	if p.Transform == nil {
		return chunk
	}
	return p.Transform(chunk)
}

// Log is a concurrency-safe event log.
type Log struct {
	mu      sync.Mutex
	entries []string
}

func (l *Log) Add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the log.
func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// Filter returns entries containing substr.
func (l *Log) Filter(substr string) []string {
	var out []string
	for _, e := range l.Entries() {
		if strings.Contains(e, substr) {
			out = append(out, e)
		}
	}
	return out
}
