package logger

import (
	"context"
	"errors"
	"log/slog"
)

// fanoutHandler hands each record to every sink whose level admits it.
type fanoutHandler struct {
	sinks []slog.Handler
}

// Multi returns a logger that writes every record to all of loggers, each at
// its own level. Nil loggers are skipped. "replyscope mcp --log-file" pairs
// the terminal logger with a JSON file logger through it, since stdio MCP
// owns stdout.
func Multi(loggers ...*slog.Logger) *slog.Logger {
	sinks := make([]slog.Handler, 0, len(loggers))
	for _, l := range loggers {
		if l == nil {
			continue
		}
		sinks = append(sinks, l.Handler())
	}
	return slog.New(&fanoutHandler{sinks: sinks})
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.sinks {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes to every sink even when an earlier one fails; the failures
// are joined.
func (f *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.sinks {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *fanoutHandler) derive(fn func(slog.Handler) slog.Handler) *fanoutHandler {
	sinks := make([]slog.Handler, len(f.sinks))
	for i, h := range f.sinks {
		sinks[i] = fn(h)
	}
	return &fanoutHandler{sinks: sinks}
}
