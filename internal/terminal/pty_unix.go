//go:build !windows

package terminal

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// reapTimeout bounds how long Close waits for a killed shell to be reaped.
const reapTimeout = 2 * time.Second

// NativeOpener opens OS pseudo-terminals with creack/pty.
type NativeOpener struct{}

// Open allocates a PTY pair, sizes it and starts the shell as session
// leader with the slave as its controlling terminal.
func (NativeOpener) Open(cfg Config) (Handle, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, &PtyError{Op: "open", Err: err}
	}
	// The child holds its own copy of the slave after Start.
	defer tty.Close()

	if err := pty.Setsize(ptmx, winsize(cfg.Cols, cfg.Rows)); err != nil {
		ptmx.Close()
		return nil, &PtyError{Op: "resize", Err: err}
	}

	cmd := exec.Command(cfg.Shell)
	cmd.Env = cfg.Environ()
	cmd.Dir = cfg.WorkingDir
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	if err := cmd.Start(); err != nil {
		ptmx.Close()
		return nil, &SpawnError{Shell: cfg.Shell, Err: err}
	}

	h := &nativeHandle{ptmx: ptmx, cmd: cmd, exited: make(chan struct{})}
	go h.wait()
	return h, nil
}

type nativeHandle struct {
	ptmx   *os.File
	cmd    *exec.Cmd
	exited chan struct{}
	once   sync.Once
}

func (h *nativeHandle) wait() {
	_ = h.cmd.Wait()
	close(h.exited)
}

func (h *nativeHandle) Read(p []byte) (int, error)  { return h.ptmx.Read(p) }
func (h *nativeHandle) Write(p []byte) (int, error) { return h.ptmx.Write(p) }

func (h *nativeHandle) Resize(cols, rows int) error {
	return pty.Setsize(h.ptmx, winsize(cols, rows))
}

func (h *nativeHandle) Pid() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Close hangs up the shell, releases the master and reaps the child.
func (h *nativeHandle) Close() error {
	var err error
	h.once.Do(func() {
		select {
		case <-h.exited:
		default:
			// Signal the whole session so jobs started by the shell go too.
			pid := h.cmd.Process.Pid
			if killErr := syscall.Kill(-pid, syscall.SIGHUP); killErr != nil && !errors.Is(killErr, syscall.ESRCH) {
				_ = h.cmd.Process.Kill()
			}
		}

		err = h.ptmx.Close()

		select {
		case <-h.exited:
		case <-time.After(reapTimeout):
			_ = h.cmd.Process.Kill()
			<-h.exited
		}
	})
	return err
}

func winsize(cols, rows int) *pty.Winsize {
	return &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}
}

// isEndOfStream reports read errors that mean the shell side is gone: EIO
// from a master whose slave closed, or a master closed by Close.
func isEndOfStream(err error) bool {
	return errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)
}
