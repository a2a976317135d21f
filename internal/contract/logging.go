package contract

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Logs go to stderr so that table and
// JSON output on stdout stay machine-readable.
func NewLogger(w io.Writer, level slog.Level, asJSON bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// DiscardLogger returns a logger that drops everything. Used as the default in library code.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
