package terminal

import "io"

// Handle is the master side of a pseudo-terminal with a shell running on
// its slave side. Close must also terminate the shell.
type Handle interface {
	io.ReadWriteCloser
	Resize(cols, rows int) error
	// Pid returns the shell's process id, or 0 if unknown.
	Pid() int
}

// Opener allocates a PTY sized to cfg and spawns cfg.Shell on it.
// Allocation failures are *PtyError, launch failures *SpawnError.
type Opener interface {
	Open(cfg Config) (Handle, error)
}

// OpenerFunc adapts a function to an Opener.
type OpenerFunc func(cfg Config) (Handle, error)

func (f OpenerFunc) Open(cfg Config) (Handle, error) { return f(cfg) }
