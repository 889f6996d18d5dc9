package app

import (
	"fmt"
	"io"
	"log/slog"
)

// logLevels maps the accepted level names to slog levels. The CLI layer
// validates against this same table, so naming stays in one place.
var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLogLevel resolves a level name to its slog level, rejecting names
// outside the accepted set.
func ParseLogLevel(name string) (slog.Level, error) {
	level, ok := logLevels[name]
	if !ok {
		return 0, fmt.Errorf("invalid log-level '%s': must be 'debug', 'info', 'warn', or 'error'", name)
	}
	return level, nil
}

// ParseLogFormat validates a log output format name.
func ParseLogFormat(name string) (string, error) {
	if name != "text" && name != "json" {
		return "", fmt.Errorf("invalid log-format '%s': must be 'text' or 'json'", name)
	}
	return name, nil
}

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances. Unvalidated
// level names fall back to info.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level, err := ParseLogLevel(levelStr)
	if err != nil {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}
