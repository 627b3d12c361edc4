package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

const serviceName = "ipstamp"

// Level is the minimum level for APP_ENV. Only local and dev emit debug lines such as
// the per-write IP stamping trace.
func Level(appEnv string) slog.Level {
	switch appEnv {
	case "local", "dev":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// New returns the JSON logger used by the api binary, writing to stdout.
func New(appEnv string) *slog.Logger {
	return NewWriter(os.Stdout, appEnv)
}

// NewWriter is New with an explicit destination. Every line carries service and env.
func NewWriter(w io.Writer, appEnv string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: Level(appEnv)})
	l := slog.New(h).With("service", serviceName)
	if appEnv != "" {
		l = l.With("env", appEnv)
	}
	return l
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// WithAttrs scopes the context logger with extra key/value pairs, so lines logged further
// down the call (store, IP behavior) name the record they concern.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}
	return With(ctx, From(ctx).With(args...))
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
