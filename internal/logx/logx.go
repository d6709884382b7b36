// Package logx provides the shared logger plumbing used across shaderview
// packages. The root package exposes SetLogger/Logger as the public API;
// both delegate here so that sub-packages can read the process-wide logger
// without importing the root package. Disabled logging stays zero-cost
// through the no-op handler.
package logx

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// Nop returns a logger that silently discards all output.
func Nop() *slog.Logger { return slog.New(nopHandler{}) }

// Or returns l if non-nil and the Nop logger otherwise.
func Or(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// defaultPtr stores the process-wide logger. Accessed atomically so
// SetDefault can race with logging from any goroutine.
var defaultPtr atomic.Pointer[slog.Logger]

func init() {
	defaultPtr.Store(Nop())
}

// SetDefault replaces the process-wide logger. Passing nil restores the
// silent default.
func SetDefault(l *slog.Logger) {
	defaultPtr.Store(Or(l))
}

// Default returns the process-wide logger.
func Default() *slog.Logger {
	return defaultPtr.Load()
}
