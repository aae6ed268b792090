// Package logging provides structured logging for the moded collector.
//
// This package wraps zap with convenience functions for the logging patterns
// used throughout the collector: connection lifecycle events, decoded
// telegrams and raw byte dumps for protocol debugging.
//
// # Log Levels
//
//   - Debug: raw byte dumps, per-line decoding detail
//   - Info: normal operations (connections, emitted telegrams)
//   - Warn: non-fatal issues (decode errors, dropped feed subscribers)
//   - Error: startup failures and other critical errors
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given, the MODED_LOG_LEVEL environment variable is
// consulted; if that is also unset, logging is silent. This keeps CLI tools
// quiet by default while allowing the daemon to log.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
