package render

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBuffer_Wraps(t *testing.T) {
	lb := NewLogBuffer(3)
	for i, msg := range []string{"a", "b", "c", "d"} {
		lb.Add(LogEntry{Message: msg, Level: slog.Level(i * 4)})
	}
	assert.Equal(t, 3, lb.Len())

	recent := lb.GetRecent(0, slog.LevelDebug)
	require.Len(t, recent, 3)
	assert.Equal(t, "d", recent[0].Message)
	assert.Equal(t, "b", recent[2].Message)

	assert.Len(t, lb.GetRecent(2, slog.LevelDebug), 2)

	lb.Clear()
	assert.Empty(t, lb.GetRecent(0, slog.LevelDebug))
}

func TestLogBuffer_LevelFilter(t *testing.T) {
	lb := NewLogBuffer(10)
	lb.Add(LogEntry{Message: "debug", Level: slog.LevelDebug})
	lb.Add(LogEntry{Message: "warn", Level: slog.LevelWarn})
	lb.Add(LogEntry{Message: "info", Level: slog.LevelInfo})

	got := lb.GetRecent(0, slog.LevelInfo)
	require.Len(t, got, 2)
	assert.Equal(t, "info", got[0].Message)
	assert.Equal(t, "warn", got[1].Message)
}

func TestLogBufferHandler(t *testing.T) {
	lb := NewLogBuffer(10)
	var level slog.LevelVar
	level.Set(slog.LevelInfo)

	logger := slog.New(NewLogBufferHandler(lb, &level))
	logger.Debug("hidden")
	logger.Info("Timing report", "cycles", 10)
	logger.With("osc", 2).WithGroup("cfg").Warn("changed", "freq", 440.0)

	level.Set(slog.LevelDebug)
	logger.Debug("now visible")

	entries := lb.GetRecent(0, slog.LevelDebug)
	require.Len(t, entries, 3)
	assert.Equal(t, "now visible", entries[0].Message)
	assert.Equal(t, "changed osc=2 cfg.freq=440", entries[1].Message)
	assert.Equal(t, "Timing report cycles=10", entries[2].Message)
}

func TestFormatLogEntry(t *testing.T) {
	entry := LogEntry{
		Time:    time.Date(2026, 1, 1, 12, 30, 45, 0, time.UTC),
		Level:   slog.LevelWarn,
		Message: "Ticks dropped",
	}
	assert.Equal(t, "12:30:45 [WRN] Ticks dropped", FormatLogEntry(entry))
	assert.Equal(t, "???", LevelName(slog.Level(3)))
}
