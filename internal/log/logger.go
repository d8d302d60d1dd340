// Package log provides structured logging with per-invocation request IDs.
//
// Every component receives its logger at construction time; there is no
// module-level logger lookup. Records are JSON lines (one per record) in
// json mode, with the fields timestamp, level, component, request_id,
// operation, duration_ms, outcome and free-form details.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const requestIDKey contextKey = "request_id"

// Logger wraps slog.Logger with request-id plumbing.
type Logger struct {
	logger *slog.Logger
}

// New creates a Logger writing to w in the given format ("json" or
// anything else for terminal output) at the given level.
func New(w io.Writer, format, level string) *Logger {
	lvl := parseLevel(level)

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = newTerminalHandler(w, lvl)
	}

	return &Logger{logger: slog.New(handler)}
}

// NewStderr creates a Logger writing to stderr. MCP stdio servers own
// stdout, so diagnostics must go elsewhere.
func NewStderr(format, level string) *Logger {
	return New(os.Stderr, format, level)
}

// Discard returns a Logger that drops every record. Used in tests.
func Discard() *Logger {
	return New(io.Discard, "json", "ERROR")
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger { return l.logger }

// Component returns a logger tagged with a component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{logger: l.logger.With("component", name)}
}

// With returns a logger with additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

// withContext tags the logger with the request id from ctx, if present.
func (l *Logger) withContext(ctx context.Context) *slog.Logger {
	if id := RequestID(ctx); id != "" {
		return l.logger.With("request_id", id)
	}
	return l.logger
}

// Debug logs at debug level with the request id from ctx.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.withContext(ctx).Debug(msg, args...)
}

// Info logs at info level with the request id from ctx.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.withContext(ctx).Info(msg, args...)
}

// Warn logs at warn level with the request id from ctx.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.withContext(ctx).Warn(msg, args...)
}

// Error logs at error level with the request id from ctx.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.withContext(ctx).Error(msg, args...)
}

// Operation logs the single per-invocation record for an operation:
// its name, duration and outcome, plus any extra attributes.
func (l *Logger) Operation(ctx context.Context, operation string, start time.Time, err error, args ...any) {
	outcome := "ok"
	level := slog.LevelInfo
	if err != nil {
		outcome = "error"
		level = slog.LevelError
	}

	attrs := []any{
		"operation", operation,
		"duration_ms", time.Since(start).Milliseconds(),
		"outcome", outcome,
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	attrs = append(attrs, args...)

	l.withContext(ctx).Log(ctx, level, operation, attrs...)
}

// NewRequestID returns a fresh opaque request identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID stores a request id in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request id from the context, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// EnsureRequestID returns the context's request id, generating and storing
// a fresh one when absent.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := RequestID(ctx); id != "" {
		return ctx, id
	}
	id := NewRequestID()
	return WithRequestID(ctx, id), id
}
