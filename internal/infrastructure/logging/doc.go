// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output at debug level
//
// Terminal components log with a "session_id" field; use ForSession to
// derive a child logger.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.ForSession("term_01H...").Warn("listener stopped", zap.Error(err))
package logging
