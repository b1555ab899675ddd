package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"sprinkler-agent/shared/config"
)

// New builds the process logger. Text output is colorized with tint; json
// output uses the standard JSON handler.
func New(cfg config.LoggingConfig, appName string) (*slog.Logger, error) {
	return NewWithWriter(os.Stderr, cfg, appName)
}

func NewWithWriter(w io.Writer, cfg config.LoggingConfig, appName string) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
		})
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		return nil, fmt.Errorf("invalid logging.format %q (allowed: text, json)", cfg.Format)
	}

	return slog.New(h).With("app", appName), nil
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid logging.level %q (allowed: debug, info, warn, error)", s)
	}
}
