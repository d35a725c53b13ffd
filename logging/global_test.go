package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSetup_CreatesWeeklyLogFile(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")

	logger := Setup(logDir, "info")
	if logger == nil {
		t.Fatal("Setup returned nil")
	}
	logger.Info("hello")

	matches, err := filepath.Glob(filepath.Join(logDir, "app-*-W*.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected one weekly log file, got %v", matches)
	}
	info, err := os.Stat(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("Expected the log line written to the file")
	}
}

// An unwritable log directory degrades to console-only logging instead of
// failing the run.
func TestSetup_DegradesToConsole(t *testing.T) {
	blocked := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(blocked, []byte("a file, not a directory"), 0644); err != nil {
		t.Fatal(err)
	}

	logger := Setup(filepath.Join(blocked, "logs"), "info")
	if logger == nil {
		t.Fatal("Setup must always return a usable logger")
	}
	logger.Info("still alive")
}

func TestPackageHelpersWithoutInit(t *testing.T) {
	saved := defaultLogger
	defaultLogger = nil
	defer func() { defaultLogger = saved }()

	// Must not panic before Init has run.
	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")
}

func TestInit(t *testing.T) {
	saved := defaultLogger
	defer func() { defaultLogger = saved }()

	Init(filepath.Join(t.TempDir(), "logs"), "debug")
	if defaultLogger == nil {
		t.Fatal("Init did not install the global logger")
	}
	if !defaultLogger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Configured debug level not honored")
	}
}
