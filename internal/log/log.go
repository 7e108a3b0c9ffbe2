// Package log builds engine-scoped structured loggers. Nothing here touches
// the process-wide slog default, so several engines can log independently.
package log

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a config string onto a slog level. Unknown strings fall back
// to info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger writing to w with the given level and format
// ("json" or "text").
func New(w io.Writer, levelStr, formatStr string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(levelStr)}
	var handler slog.Handler
	if strings.EqualFold(formatStr, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
