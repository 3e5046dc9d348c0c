package common

import (
	"context"
	"log/slog"
)

// nopHandler is a slog.Handler that discards every record. Enabled reports false so callers skip formatting.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// NopLogger returns a logger that discards all output. Packages use it until a logger is injected.
//
// Returns:
//   - *slog.Logger: a silent logger
func NopLogger() *slog.Logger {
	return slog.New(nopHandler{})
}

// LoggerOr returns l, or a silent logger when l is nil.
//
// Parameters:
//   - l: the injected logger, possibly nil
//
// Returns:
//   - *slog.Logger: a usable logger
func LoggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return NopLogger()
	}
	return l
}
