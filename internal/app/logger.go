package app

import (
	"io"
	"log/slog"
)

// newLogger builds the application logger from the validated CLI settings.
// It never touches the slog default, so pipeline stage logs, which manage
// their own destinations and verbosity, stay unaffected.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
