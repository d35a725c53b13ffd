// Package logging wraps log/slog with a process-wide logger that writes
// human-readable text to the console and JSON lines to a dated file.
package logging

import (
	"log/slog"
	"os"
)

var defaultLogger *slog.Logger

// Init installs the global logger. Safe to call once at startup; the
// package-level helpers fall back to a console logger until then.
func Init(logDir, level string) {
	defaultLogger = Setup(logDir, level)
	slog.SetDefault(defaultLogger)
}

func logger() *slog.Logger {
	if defaultLogger != nil {
		return defaultLogger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Package-level helpers for direct access

func Debug(msg string, args ...any) { logger().Debug(msg, args...) }
func Info(msg string, args ...any)  { logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { logger().Warn(msg, args...) }
func Error(msg string, args ...any) { logger().Error(msg, args...) }
