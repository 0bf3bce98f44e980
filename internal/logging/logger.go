// Package logging configures the process-wide slog logger: an optional
// console sink plus rotating orderdesk.log and errors.log files.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	mainLogName  = "orderdesk.log"
	errorLogName = "errors.log"
)

var (
	logFiles   []*lumberjack.Logger
	logFilesMu sync.Mutex
)

// Initialize builds the logger from cfg and installs it as slog's default.
func Initialize(cfg Config) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	slog.SetDefault(logger)

	slog.Info("Logging initialized",
		"level", cfg.Level,
		"format", cfg.Format,
		"dir", cfg.Dir,
		"console_enabled", cfg.Console.Enabled,
		"file_enabled", cfg.File.Enabled,
	)
	return nil
}

// NewLogger builds a logger from cfg without touching the global default.
// The console sink writes to stdout.
func NewLogger(cfg Config) (*slog.Logger, error) {
	return NewLoggerTo(cfg, os.Stdout)
}

// NewLoggerTo is NewLogger with the console sink writing to console.
func NewLoggerTo(cfg Config, console io.Writer) (*slog.Logger, error) {
	var sinks fanout

	if cfg.Console.Enabled {
		sinks = append(sinks, newHandler(console, cfg.Console.Format, parseLevel(cfg.Console.Level)))
	}

	if cfg.File.Enabled {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		level := parseLevel(cfg.File.Level)

		mainFile := openRotating(filepath.Join(cfg.Dir, mainLogName), cfg.Rotation)
		sinks = append(sinks, newHandler(mainFile, cfg.File.Format, level))

		errorFile := openRotating(filepath.Join(cfg.Dir, errorLogName), cfg.Rotation)
		sinks = append(sinks, withMinLevel(newHandler(errorFile, cfg.File.Format, level), slog.LevelWarn))
	}

	switch len(sinks) {
	case 0:
		return slog.New(slog.DiscardHandler), nil
	case 1:
		return slog.New(sinks[0]), nil
	default:
		return slog.New(sinks), nil
	}
}

// Shutdown closes every rotating file opened by NewLogger.
func Shutdown() error {
	logFilesMu.Lock()
	defer logFilesMu.Unlock()

	var firstErr error
	for _, f := range logFiles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close log file: %w", err)
		}
	}
	logFiles = nil
	return firstErr
}

func openRotating(path string, rot RotationConfig) *lumberjack.Logger {
	f := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rot.MaxSize,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAge,
		Compress:   rot.Compress,
	}
	logFilesMu.Lock()
	logFiles = append(logFiles, f)
	logFilesMu.Unlock()
	return f
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return newLineHandler(w, level)
}
