package logger

import "tokenstats/internal/app/port"

// slogAdapter implements port.Logger on top of the package-level functions so
// services can take a logger dependency without importing this package.
type slogAdapter struct {
	args []any
}

// NewSlogAdapter creates a port.Logger backed by the global slog logger.
func NewSlogAdapter(args ...any) port.Logger {
	return &slogAdapter{args: args}
}

func (a *slogAdapter) with(args []any) []any {
	if len(a.args) == 0 {
		return args
	}
	return append(append([]any{}, a.args...), args...)
}

// Info logs an informational message.
func (a *slogAdapter) Info(msg string, args ...any) {
	Info(msg, a.with(args)...)
}

// Debug logs a debug message.
func (a *slogAdapter) Debug(msg string, args ...any) {
	Debug(msg, a.with(args)...)
}

// Warn logs a warning.
func (a *slogAdapter) Warn(msg string, args ...any) {
	Warn(msg, a.with(args)...)
}

// Error logs an error.
func (a *slogAdapter) Error(msg string, args ...any) {
	Error(msg, a.with(args)...)
}

// nopLogger discards everything. Used by tests and optional dependencies.
type nopLogger struct{}

// NewNop returns a port.Logger that drops all messages.
func NewNop() port.Logger { return nopLogger{} }

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
