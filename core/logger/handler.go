package logger

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

// NewDevLogger creates a colorized development logger writing to w.
func NewDevLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05.000",
	}))
}

// NewJSONLogger creates a production JSON logger writing to w.
func NewJSONLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard creates a logger that drops everything; useful as a default.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
