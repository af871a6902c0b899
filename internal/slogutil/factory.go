package slogutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"mftfcheck/internal/config"
)

// LoggerFactory builds the CLI logger from configuration and flags.
// Precedence for the level: CLI flags > logging.level > info.
type LoggerFactory struct {
	config   config.LoggingConfig
	cliLevel slog.Level
	cliSet   bool
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory. cliSet reports whether the
// user passed -v or --quiet.
func NewLoggerFactory(cfg *config.Config, cliLevel slog.Level, cliSet bool) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{
		config:   cfg.Logging,
		cliLevel: cliLevel,
		cliSet:   cliSet,
	}
}

// Logger returns a logger writing to w in the configured format. When
// logging.file is set, records are also appended to that file in line format.
// A log file that cannot be opened is reported on w and otherwise ignored.
func (f *LoggerFactory) Logger(w io.Writer) *slog.Logger {
	level := f.effectiveLevel()
	console := newHandler(w, f.config.Format, level)
	if f.config.File == "" {
		return slog.New(console)
	}

	file, err := openLogFile(f.config.File)
	if err != nil {
		logger := slog.New(console)
		logger.Warn("Cannot open log file", "path", f.config.File, "error", err)
		return logger
	}
	f.closers = append(f.closers, file)
	return slog.New(teeHandler{console, NewLineHandler(file, &slog.HandlerOptions{Level: level})})
}

// openLogFile opens path for appending, creating it and its directory.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// effectiveLevel returns the level after applying precedence rules.
func (f *LoggerFactory) effectiveLevel() slog.Level {
	if f.cliSet {
		return f.cliLevel
	}
	if f.config.Level != "" {
		return ParseLevel(f.config.Level)
	}
	return slog.LevelInfo
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
