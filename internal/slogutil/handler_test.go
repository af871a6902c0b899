package slogutil

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logTime = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

// handle runs one record through h and returns the written line.
func handle(t *testing.T, h slog.Handler, buf *bytes.Buffer, level slog.Level, msg string, args ...any) string {
	t.Helper()
	buf.Reset()
	r := slog.NewRecord(logTime, level, msg, 0)
	r.Add(args...)
	require.NoError(t, h.Handle(context.Background(), r))
	return buf.String()
}

func TestLineHandler_ScannedCorpus(t *testing.T) {
	var buf bytes.Buffer
	h := NewLineHandler(&buf, nil)

	line := handle(t, h, &buf, slog.LevelInfo, "Scanned corpus",
		"path", "app/code", "modules", 3, "files", 12, "entities", 40)
	assert.Equal(t, "2026-10-01T12:00:00Z INF Scanned corpus | path=app/code modules=3 files=12 entities=40\n", line)
}

func TestLineHandler_AnalyzerScope(t *testing.T) {
	var buf bytes.Buffer
	h := NewLineHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}).
		WithAttrs([]slog.Attr{slog.String(ScopeKey, "page")})

	line := handle(t, h, &buf, slog.LevelWarn, "Entity changed kind, skipping comparison",
		"module", "Magento_Customer", "name", "Login", "after", "section")
	assert.Equal(t, "2026-10-01T12:00:00Z WRN [page] Entity changed kind, skipping comparison | module=Magento_Customer name=Login after=section\n", line)

	line = handle(t, NewLineHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}), &buf,
		slog.LevelDebug, "Analyzer completed", ScopeKey, "suite", "operations", 2)
	assert.Equal(t, "2026-10-01T12:00:00Z DBG [suite] Analyzer completed | operations=2\n", line)
}

func TestLineHandler_QuotesValues(t *testing.T) {
	var buf bytes.Buffer
	h := NewLineHandler(&buf, nil)

	line := handle(t, h, &buf, slog.LevelWarn, "Failed to record run",
		"path", ".mftfcheck/history.db",
		"error", errors.New("database is locked"),
		"reason", "<page> was removed",
		"empty", "")
	assert.Contains(t, line, "path=.mftfcheck/history.db ")
	assert.Contains(t, line, `error="database is locked"`)
	assert.Contains(t, line, `reason="<page> was removed"`)
	assert.Contains(t, line, `empty=""`)
}

func TestLineHandler_GroupsFlatten(t *testing.T) {
	var buf bytes.Buffer
	h := NewLineHandler(&buf, nil).WithGroup("run").WithAttrs([]slog.Attr{slog.String("id", "1b4e28ba")})

	line := handle(t, h, &buf, slog.LevelInfo, "Recorded run",
		slog.Group("counts", "major", 3, "minor", 1), ScopeKey, "not-a-scope")
	assert.Contains(t, line, "INF Recorded run | run.id=1b4e28ba run.counts.major=3 run.counts.minor=1 run.kind=not-a-scope\n")
	assert.NotContains(t, line, "[")
}

func TestLineHandler_WithAttrsDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := NewLineHandler(&buf, nil)
	_ = base.WithAttrs([]slog.Attr{slog.String(ScopeKey, "page"), slog.Int("n", 1)})

	line := handle(t, base, &buf, slog.LevelInfo, "Compare completed")
	assert.Equal(t, "2026-10-01T12:00:00Z INF Compare completed\n", line)
}

func TestLineHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("Loading snapshot")
	logger.Info("Applied suppressions")
	logger.Warn("Duplicate identity values, last declaration wins")
	logger.Error("Cannot open log file")

	out := buf.String()
	assert.NotContains(t, out, "Loading snapshot")
	assert.NotContains(t, out, "Applied suppressions")
	assert.Contains(t, out, "WRN Duplicate identity values")
	assert.Contains(t, out, "ERR Cannot open log file")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, LevelFromVerbosity(0, false))
	assert.Equal(t, slog.LevelInfo, LevelFromVerbosity(1, false))
	assert.Equal(t, slog.LevelDebug, LevelFromVerbosity(3, false))
	assert.Equal(t, LevelSilent, LevelFromVerbosity(2, true), "quiet wins over -v")
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.Warn("Duplicate identity values, last declaration wins", "target", "M1/Page/Login")
}

func TestTeeHandler_PerHandlerLevel(t *testing.T) {
	var console, file bytes.Buffer
	logger := slog.New(teeHandler{
		NewLineHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		NewLineHandler(&file, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}).With(ScopeKey, "section")

	logger.Info("Analyzer completed", "operations", 0)
	logger.Warn("Duplicate identity values, last declaration wins", "target", "M1/Section/Form")

	assert.NotContains(t, console.String(), "Analyzer completed")
	assert.Contains(t, console.String(), "WRN [section] Duplicate identity values")
	assert.Contains(t, file.String(), "INF [section] Analyzer completed | operations=0")
	assert.Contains(t, file.String(), "target=M1/Section/Form")
}

func TestNewHandler_Format(t *testing.T) {
	var jsonBuf, lineBuf bytes.Buffer
	slog.New(newHandler(&jsonBuf, "JSON", slog.LevelInfo)).Info("Recorded run", "id", "1b4e28ba")
	slog.New(newHandler(&lineBuf, FormatHuman, slog.LevelInfo)).Info("Recorded run", "id", "1b4e28ba")

	assert.True(t, strings.HasPrefix(jsonBuf.String(), "{"), jsonBuf.String())
	assert.Contains(t, jsonBuf.String(), `"id":"1b4e28ba"`)
	assert.Contains(t, lineBuf.String(), "INF Recorded run | id=1b4e28ba")
}
