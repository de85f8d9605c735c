package util

import (
	"log/slog"
	"os"
)

type Logger = *slog.Logger

// NewLogger returns the process logger. Log lines go to stderr so the
// result table on stdout stays machine-readable.
func NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
