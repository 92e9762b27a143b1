// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where and how much to log
type Options struct {
	Level string // debug, info, warn, error
	File  string // rotated log file, optional
	JSON  bool
	// Stdout receives the console copy; os.Stderr when nil
	Stdout io.Writer
}

// ParseLevel maps a level name to its slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the logger, installs it as slog's default and returns it
// with a closer for the log file.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	console := opts.Stdout
	if console == nil {
		console = os.Stderr
	}
	w := console
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		logDir := filepath.Dir(opts.File)
		if err := os.MkdirAll(logDir, 0750); err != nil {
			return nil, nil, fmt.Errorf("create log directory %s: %w", logDir, err)
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		}
		w = io.MultiWriter(console, rotator)
		closer = rotator
	}

	hopts := &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339Nano))
			}
			return a
		},
	}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, hopts)
	} else {
		handler = slog.NewTextHandler(w, hopts)
	}

	logger := slog.New(handler).With("service", "flowscout")
	slog.SetDefault(logger)
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
