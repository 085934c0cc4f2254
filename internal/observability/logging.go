// Package observability carries structured logging context through the
// build pipeline.
package observability

import (
	"context"
	"log/slog"
)

// LogContext holds the fields attached to every log line within a scope.
type LogContext struct {
	BuildID  string
	Stage    string
	Document string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithBuildID attaches a build ID to the context.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	lc := extract(ctx)
	lc.BuildID = buildID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage attaches the current stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extract(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

// WithDocument attaches the current document source path to the context.
func WithDocument(ctx context.Context, source string) context.Context {
	lc := extract(ctx)
	lc.Document = source
	return context.WithValue(ctx, logContextKey, lc)
}

func extract(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func attrs(ctx context.Context) []slog.Attr {
	lc := extract(ctx)
	var out []slog.Attr
	if lc.BuildID != "" {
		out = append(out, slog.String("build.id", lc.BuildID))
	}
	if lc.Stage != "" {
		out = append(out, slog.String("stage", lc.Stage))
	}
	if lc.Document != "" {
		out = append(out, slog.String("document", lc.Document))
	}
	return out
}

// InfoContext logs at info level with context fields attached.
func InfoContext(ctx context.Context, msg string, extra ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelInfo, msg, append(attrs(ctx), extra...)...)
}

// WarnContext logs at warn level with context fields attached.
func WarnContext(ctx context.Context, msg string, extra ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelWarn, msg, append(attrs(ctx), extra...)...)
}

// ErrorContext logs at error level with context fields attached.
func ErrorContext(ctx context.Context, msg string, extra ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelError, msg, append(attrs(ctx), extra...)...)
}

// DebugContext logs at debug level with context fields attached.
func DebugContext(ctx context.Context, msg string, extra ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelDebug, msg, append(attrs(ctx), extra...)...)
}

// Get returns the structured log context stored in ctx.
func Get(ctx context.Context) LogContext { return extract(ctx) }
