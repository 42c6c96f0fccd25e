package framehost

import (
	"context"
	"log/slog"
	"slices"
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

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the package logger. By default framehost produces
// no log output. Runtimes created without WithLogger follow the package
// logger, including changes made after they were created.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by framehost:
//   - [slog.LevelDebug]: frame slot writes, barriers recorded
//   - [slog.LevelInfo]: plugin and backend lifecycle
//   - [slog.LevelWarn]: frame data fallbacks, expired optional tags
//   - [slog.LevelError]: strict mode violations, failed dispatches
//
// Example:
//
//	framehost.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current package logger.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// forwardHandler resolves the package logger on every record, so loggers
// built from it see later SetLogger calls. Attributes and groups added
// through With are replayed onto the current handler.
type forwardHandler struct {
	ops []func(slog.Handler) slog.Handler
}

func (h forwardHandler) current() slog.Handler {
	out := loggerPtr.Load().Handler()
	for _, op := range h.ops {
		out = op(out)
	}
	return out
}

func (h forwardHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return loggerPtr.Load().Handler().Enabled(ctx, level)
}

func (h forwardHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.current().Handle(ctx, r)
}

func (h forwardHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.with(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h forwardHandler) WithGroup(name string) slog.Handler {
	return h.with(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h forwardHandler) with(op func(slog.Handler) slog.Handler) forwardHandler {
	ops := slices.Clip(slices.Clone(h.ops))
	return forwardHandler{ops: append(ops, op)}
}

// packageLogger returns a logger that follows SetLogger.
func packageLogger() *slog.Logger { return slog.New(forwardHandler{}) }
