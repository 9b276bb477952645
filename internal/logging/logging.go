// Package logging configures the process-wide slog logger.
package logging

import (
	"log/slog"
	"os"
)

// NewLogger initialises an slog.Logger writing text to stdout at the
// provided level. Unknown level strings fall back to info.
func NewLogger(levelStr string) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}
