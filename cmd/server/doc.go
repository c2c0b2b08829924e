// Command dogeterm serves PTY-backed shell sessions over HTTP and
// WebSocket.
//
// Configuration comes from the environment (PORT, HOST, TERMINAL_*,
// LOG_*, RATE_LIMIT_*); flags override it.
//
// Usage:
//
//	dogeterm --port 8000 --shell /bin/zsh
//	dogeterm --dev
//	dogeterm plugins
//
// SIGINT and SIGTERM shut the server down gracefully and close every
// session.
package main
