package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	slogotel "github.com/remychantenay/slog-otel"
)

var LogLevel = new(slog.LevelVar)

var jsonHandler = slog.NewJSONHandler(
	os.Stderr,
	&slog.HandlerOptions{AddSource: true, Level: LogLevel},
)
var sloghandler = slogotel.NewOtelHandler(slogotel.WithNoTraceEvents(true))
var Handler = sloghandler(jsonHandler)
var Logger = slog.New(Handler)

// InitSlog installs the otel-aware JSON logger as the process default at the given level.
// An empty level means debug.
func InitSlog(level string) error {
	slog.SetDefault(Logger)

	lvl, err := ParseLevel(level)
	if err != nil {
		LogLevel.Set(slog.LevelDebug)
		return err
	}
	LogLevel.Set(lvl)
	return nil
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelDebug, fmt.Errorf("unknown log level %q", level)
	}
}
