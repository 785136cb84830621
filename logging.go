package goadsym

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger defines the interface for structured logging in goadsym.
// It follows the standard slog.Logger interface for compatibility.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

type slogAdapter struct {
	logger *slog.Logger
}

func (s *slogAdapter) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }
func (s *slogAdapter) Info(msg string, args ...any)  { s.logger.Info(msg, args...) }
func (s *slogAdapter) Warn(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s *slogAdapter) Error(msg string, args ...any) { s.logger.Error(msg, args...) }

func (s *slogAdapter) With(args ...any) Logger {
	return &slogAdapter{logger: s.logger.With(args...)}
}

type noopLogger struct{}

func (n *noopLogger) Debug(msg string, args ...any) {}
func (n *noopLogger) Info(msg string, args ...any)  {}
func (n *noopLogger) Warn(msg string, args ...any)  {}
func (n *noopLogger) Error(msg string, args ...any) {}
func (n *noopLogger) With(args ...any) Logger       { return n }

// DefaultLogger discards everything. Clients use it unless WithLogger is given.
var DefaultLogger Logger = &noopLogger{}

// NewSlogLogger creates a Logger from a slog.Logger.
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		return DefaultLogger
	}
	return &slogAdapter{logger: logger}
}

// NewDefaultLogger creates a basic JSON logger writing to stderr.
func NewDefaultLogger() Logger {
	return NewLogger(os.Stderr, "json", slog.LevelInfo)
}

// NewLogger creates a logger writing "json" or "text" records to w.
func NewLogger(w io.Writer, format string, level slog.Level) Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &slogAdapter{logger: slog.New(handler)}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("goadsym: invalid log level %q", s)
	}
	return level, nil
}

// WithLogger returns a new option that sets the logger for the client.
func WithLogger(logger Logger) Option {
	return func(c *clientConfig) error {
		if logger == nil {
			logger = DefaultLogger
		}
		c.logger = logger
		return nil
	}
}

type logContextKey struct{}

// ContextWithLogFields adds log fields to a context that will be automatically
// included in log messages when using LoggerFromContext.
func ContextWithLogFields(ctx context.Context, args ...any) context.Context {
	existing, _ := ctx.Value(logContextKey{}).([]any)
	fields := make([]any, 0, len(existing)+len(args))
	fields = append(fields, existing...)
	return context.WithValue(ctx, logContextKey{}, append(fields, args...))
}

// LoggerFromContext returns a logger with context fields attached.
func LoggerFromContext(ctx context.Context, logger Logger) Logger {
	if fields, ok := ctx.Value(logContextKey{}).([]any); ok && len(fields) > 0 {
		return logger.With(fields...)
	}
	return logger
}
