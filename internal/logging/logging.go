package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds the process logger: text output on stderr at the given
// level. It is also installed as slog's default so stray library logs
// land in the same stream. Components derive their own children with
// logger.With("component", ...).
func Setup(level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

// parseLevel maps "debug", "info", "warn", "error" (any case) onto slog
// levels; anything else, including empty, means info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
