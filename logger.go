package shaderview

import (
	"log/slog"

	"github.com/koturn/shaderview/internal/logx"
)

// SetLogger configures the logger used by shaderview and its sub-packages.
// By default, shaderview produces no log output. Sessions created after the
// call inherit the new logger; [WithLogger] overrides it per session.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to restore the default silent behavior.
//
// Log levels used by shaderview:
//   - [slog.LevelDebug]: internal diagnostics (uniform locations, query reuse)
//   - [slog.LevelInfo]: lifecycle events (renderer variant selected, rebuilds)
//   - [slog.LevelWarn]: non-fatal issues (frame timing unsupported, watch errors)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	shaderview.SetLogger(slog.Default())
func SetLogger(l *slog.Logger) {
	logx.SetDefault(l)
}

// Logger returns the current logger used by shaderview.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logx.Default()
}
