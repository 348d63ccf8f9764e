package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON output keeps log
// pipelines happy; the level comes from STOW_LOG_LEVEL when set.
func New() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("STOW_LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
