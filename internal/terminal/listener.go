package terminal

import (
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/logging"
)

const readBufferSize = 4096

// listen is the session's output listener. It is Running until the PTY
// reports end of stream (zero-byte read, EOF, EIO, closed master), a read
// fails, or the session is no longer registered; then it is Stopped for good.
//
// A read error stops output for the session but leaves it registered; an
// explicit Close is still needed to remove it.
func (m *Manager) listen(sess *Session, r io.Reader) {
	defer close(sess.done)

	logger := m.logger.With(zap.String(logging.SessionKey, sess.id))
	reason := "eof"
	var stopErr error

	if r == nil {
		reason = "closed"
	} else {
		var dec decoder
		buf := make([]byte, readBufferSize)

	loop:
		for {
			n, err := r.Read(buf)
			if n > 0 {
				m.metrics.AddBytesRead(n)
				if !m.deliver(sess, dec.decode(buf[:n])) {
					reason = "removed"
					break loop
				}
			}

			switch {
			case err == nil && n == 0:
				break loop
			case err == nil:
			case errors.Is(err, io.EOF) || isEndOfStream(err):
				break loop
			default:
				reason = "error"
				stopErr = &IoError{Op: "read", SessionID: sess.id, Err: err}
				logger.Warn("Terminal read failed", zap.Error(err))
				break loop
			}
		}

		if reason != "removed" {
			m.deliver(sess, dec.flush())
		}
	}

	sess.state.Store(int32(ListenerStopped))
	m.metrics.ListenerStopped(reason)
	logger.Debug("Output listener stopped", zap.String("reason", reason))

	sess.sink.Closed(sess.id, stopErr)
}

// deliver runs chunk through the plugin chain and hands the result to the
// scrollback and the sink. It returns false once the session has been
// removed from the registry; a chunk still inside the chain at that point
// is dropped.
func (m *Manager) deliver(sess *Session, chunk string) bool {
	if chunk == "" {
		return true
	}
	if sess.isRemoved() {
		return false
	}

	out := chunk
	sess.hookMu.Lock()
	m.invoke(sess, "on_output", func() { out = sess.plugins.output(chunk, sess.id) })
	sess.hookMu.Unlock()

	if out == "" {
		return !sess.isRemoved()
	}
	return sess.emit(out)
}
