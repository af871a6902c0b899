package slogutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mftfcheck/internal/config"
)

func TestLoggerFactory_EffectiveLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "error"

	tests := []struct {
		name     string
		cliLevel slog.Level
		cliSet   bool
		want     slog.Level
	}{
		{"config level", 0, false, slog.LevelError},
		{"cli overrides config", slog.LevelDebug, true, slog.LevelDebug},
		{"cli info is honored", slog.LevelInfo, true, slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewLoggerFactory(cfg, tt.cliLevel, tt.cliSet)
			if got := f.effectiveLevel(); got != tt.want {
				t.Errorf("effectiveLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoggerFactory_TeesToFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "mftfcheck.log")

	var console bytes.Buffer
	f := NewLoggerFactory(cfg, slog.LevelInfo, true)
	logger := f.Logger(&console)
	logger.Info("Comparison completed", "operations", 3)
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if !strings.Contains(console.String(), "operations=3") {
		t.Errorf("console output missing record: %s", console.String())
	}
	data, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "Comparison completed") {
		t.Errorf("log file missing record: %s", data)
	}
}
