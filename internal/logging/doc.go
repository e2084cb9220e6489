// Package logging provides structured logging for the novacheck tools.
//
// This package wraps a zap logger with convenience functions for the
// logging patterns shared by the check suite, the console client and the
// proxy. It provides both general logging functions and specialized
// functions for wire-level diagnostics.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (frame hex dumps, per-request API calls)
//   - Info: Normal operations (check start/finish, connections, cleanups)
//   - Warn: Non-fatal issues (retries, cleanup failures)
//   - Error: Fatal issues (startup failures, broken sessions)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Server active",
//	    zap.String("server_id", server.ID),
//	    zap.String("status", server.Status),
//	    zap.Duration("took", elapsed),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
// Connection Logging:
//
//	logging.LogConnection(remoteAddr, "handshake_complete")
//	logging.LogConnection(remoteAddr, "session_closed")
//
// Frame Logging (debug level, payload hex dumped):
//
//	logging.LogFrame("sent", payload)
//	logging.LogFrame("received", payload)
//
// API Call Logging:
//
//	logging.LogAPICall("POST", "/servers/"+id+"/action", resp.StatusCode, attempt)
//
// # Configuration
//
// Initialize logging at process startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An empty level falls back to the NOVACHECK_LOG_LEVEL environment
// variable; when that is unset too, the logger is a no-op so library
// callers and tests stay quiet by default.
//
// # Output Format
//
// Logs are written to stderr in console format so they never interleave
// with the rendered check output on stdout:
//
//	2026-08-25T10:30:45.123-0800  INFO  Check passed
//	  check=resize-volume-backed
//	  took=41.2s
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
