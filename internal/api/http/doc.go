// Package http serves the terminal REST API: session lifecycle, command
// and input submission, resize, scrollback, per-session plugin queries and
// the service registry.
//
// Terminal errors map to status codes: unknown session 404, no active
// session 409, invalid size 400, closed session 410, shell spawn failure
// 422, PTY and I/O failures 500.
package http
