// Package terminal multiplexes PTY-backed shell sessions.
//
// A Manager owns every Session. Each session has one PTY Handle, a config,
// an ordered plugin Chain and an output listener goroutine that reads the
// PTY, runs each chunk through the chain (left to right) and forwards the
// result to an OutputSink.
//
// Locking:
//   - Manager.mu guards the session map and the active pointer. It is never
//     held across PTY I/O.
//   - Each session's PTY slot lock serializes writes, resizes and close.
//     The listener reads without it; it is the only reader.
//   - Each session's hook lock serializes plugin hooks for that session, so
//     plugins of different sessions run in parallel.
//
// Closing a session removes it from the registry and releases its PTY; the
// listener then sees end of stream and stops. A listener stopped by a read
// error leaves the session registered until it is closed explicitly.
//
// Example Usage:
//
//	mgr := terminal.NewManager(terminal.WithPlugins(factory), terminal.WithLogger(logger))
//	sid, err := mgr.CreateSession(terminal.DefaultConfig(), sink)
//	err = mgr.SubmitCommand("ls -la")   // hooks, then "ls -la\n"
//	err = mgr.SendInput([]byte{0x03})   // raw Ctrl-C
//	err = mgr.Resize(sid, 120, 40)
//	err = mgr.Close(sid)
package terminal
