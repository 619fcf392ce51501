// Package logging provides structured logging for crosstalk runs.
//
// This package wraps Go's log/slog to produce structured, filterable logs
// for debugging a running conversation. While the terminal dashboard owns
// the screen the logger writes to a rotating file instead of stderr, so the
// TUI and the log stream never interleave.
//
// # Features
//
//   - JSON- or text-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Persistent context attributes (agent id, component name)
//   - Log rotation with configurable size limits
//   - Optional gzip compression for rotated logs
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. [Logger] relies on
// slog's concurrency guarantees; [RotatingWriter] serializes file operations
// with a mutex. Child loggers created via With* methods share the underlying
// writer safely.
//
// # Basic Usage
//
//	logger, err := logging.New("crosstalk.log", "INFO", "json")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("conversation started", "agents", 2)
//	logger.Warn("send failed", "error", err)
//
// # Context Propagation
//
// Each worker logs through a child logger naming its agent and role:
//
//	workerLog := logger.WithAgent("P1").WithComponent("transmitter")
//	workerLog.Debug("tenure ended", "reason", "deadline")
//
// Output:
//
//	{"time":"...","level":"DEBUG","msg":"tenure ended","agent":"P1","component":"transmitter","reason":"deadline"}
//
// # Log Rotation
//
// Conversations run until interrupted, so file logs rotate by size. Rotated
// files are named crosstalk.log.1, crosstalk.log.2, etc., where .1 is the
// most recent backup; with compression enabled they become
// crosstalk.log.1.gz, etc. See [RotationConfig].
//
// # Testing
//
// Use [NewNop] to discard all log output:
//
//	func TestSomething(t *testing.T) {
//	    logger := logging.NewNop()
//	    // ...
//	}
package logging
