package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Level defaults to info; set
// SCORING_LOG_LEVEL=debug for verbose request logging.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("SCORING_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
