package terminal

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned for ids absent from the registry.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoActiveSession is returned by active-session operations when none is set.
	ErrNoActiveSession = errors.New("no active terminal session")
	// ErrInvalidSize is returned for non-positive terminal geometry.
	ErrInvalidSize = errors.New("terminal size must be positive")
	// ErrSessionClosed is returned when the PTY of a session was already released.
	ErrSessionClosed = errors.New("session is closed")
)

// PtyError reports a failure allocating or resizing a pseudo-terminal.
type PtyError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *PtyError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("pty %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pty %s %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *PtyError) Unwrap() error { return e.Err }

// SpawnError reports a shell that could not be launched.
type SpawnError struct {
	Shell string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Shell, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// IoError reports a read or write failure on an open PTY.
type IoError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// notFound wraps ErrSessionNotFound with the offending id.
func notFound(sessionID string) error {
	return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
}

// errorKind classifies err for metrics labels.
func errorKind(err error) string {
	var (
		ptyErr   *PtyError
		spawnErr *SpawnError
		ioErr    *IoError
	)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "not_found"
	case errors.Is(err, ErrNoActiveSession):
		return "no_active"
	case errors.Is(err, ErrInvalidSize):
		return "invalid_size"
	case errors.As(err, &spawnErr):
		return "spawn"
	case errors.As(err, &ptyErr):
		return "pty"
	case errors.As(err, &ioErr):
		return "io"
	default:
		return "other"
	}
}
