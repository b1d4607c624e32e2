package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog.Logger with application-specific functionality
type Logger struct {
	*slog.Logger
}

// New creates a JSON logger writing to stdout with the specified level
func New(level string) *Logger {
	return NewWithWriter(level, "json", os.Stdout)
}

// NewWithWriter creates a logger with an explicit output format ("json" or
// "text") and destination.
func NewWithWriter(level, format string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// Default returns a logger with default settings
func Default() *Logger {
	return New("info")
}

// With returns a child logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// CallCompleted records the outcome of a call to an external collaborator
// (calendar, planner, email). A non-nil err is logged at error level.
func (l *Logger) CallCompleted(service, action string, started time.Time, err error, args ...any) {
	elapsed := time.Since(started)
	attrs := append([]any{
		"service", service,
		"action", action,
		"duration_ms", elapsed.Milliseconds(),
	}, args...)
	if err != nil {
		l.Error("external call failed", append(attrs, "error", err)...)
		return
	}
	l.Debug("external call completed", attrs...)
}

// SlowCall warns when an external call took longer than threshold.
func (l *Logger) SlowCall(service string, elapsed, threshold time.Duration) {
	if elapsed <= threshold {
		return
	}
	l.Warn("slow external call",
		"service", service,
		"duration_ms", elapsed.Milliseconds(),
		"threshold_ms", threshold.Milliseconds(),
	)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
