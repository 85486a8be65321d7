// Package logging provides a single zerolog-backed global logger shared by
// every component: CLI startup, the master supervisor, each server
// instance's accept loop, and the admin HTTP surface.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output for production, console output for development
//   - Global logger configuration via Init
//   - Context-aware logging with correlation/request ID propagation
//   - An slog adapter for libraries that require slog.Logger (sutureslog)
//
// # Quick Start
//
//	import "github.com/tomtom215/rxh/internal/logging"
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Msg("starting")
//	logging.Error().Err(err).Msg("accept failed")
//
//	// Context-aware logging
//	logging.Ctx(ctx).Info().Str("backend", addr).Msg("forwarded")
//
// # Configuration
//
//	logging.Init(logging.Config{
//	    Level:     "debug",    // trace, debug, info, warn, error, fatal, panic
//	    Format:    "console",  // json or console
//	    Caller:    true,
//	    Timestamp: true,
//	    Output:    os.Stderr,
//	})
//
// # Structured Logging
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // correct
//	logging.Info().Str("key", "value")                 // wrong, never emitted
//
// Prefer structured fields over string formatting:
//
//	logging.Info().Str("listen", addr).Int("backends", n).Msg("server starting")
//
// # Component Loggers
//
//	serverLog := logging.With().Str("component", "server").Logger()
//	serverLog.Info().Msg("accepting")
//
// # slog Adapter
//
// internal/master hands a *slog.Logger to sutureslog so suture's internal
// events flow through the same zerolog sink as everything else:
//
//	slogLogger := logging.NewSlogLogger()
//	handler := &sutureslog.Handler{Logger: slogLogger}
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger is
// protected by a sync.RWMutex for configuration changes.
//
// # Testing
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
//	logger.Info().Msg("test message")
package logging
