// Package logging provides structured logging for framecast.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the sender and receiver. Logging is silent unless
// the FRAMECAST_LOG_LEVEL environment variable (or an explicit level) enables
// it, so library consumers and CLI commands produce no unexpected output.
//
// # Log Levels
//
//   - Debug: Per-frame detail (mode decisions, payload sizes, ack polls)
//   - Info: Normal operations (connections, session start/stop)
//   - Warn: Non-fatal issues (dropped frames, reconnect attempts)
//   - Error: Fatal issues (startup failures, codec errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Session started",
//	    zap.String("target", "192.168.1.50:6543"),
//	    zap.Int("width", 240),
//	    zap.Int("height", 320),
//	)
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
