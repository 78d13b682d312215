package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		want  slog.Level
		valid bool
	}{
		{"debug", slog.LevelDebug, true},
		{" INFO ", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"Error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.valid, ok, tt.in)
	}
}

func TestZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, zapLevel(slog.LevelDebug))
	assert.Equal(t, zapcore.InfoLevel, zapLevel(slog.LevelInfo))
	assert.Equal(t, zapcore.WarnLevel, zapLevel(slog.LevelWarn))
	assert.Equal(t, zapcore.ErrorLevel, zapLevel(slog.LevelError))
}

func TestNewZapLogger(t *testing.T) {
	l, err := NewZapLogger("warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestSlogAdapter_BridgesToZap(t *testing.T) {
	previous := globalLogger
	t.Cleanup(func() {
		if previous != nil {
			SetDefault(previous)
		} else {
			globalLogger = nil
		}
	})

	core, logs := observer.New(zapcore.InfoLevel)
	SetDefault(slog.New(zapslog.NewHandler(core)))

	log := NewSlogAdapter("component", "cache")
	log.Info("slot loaded", "slot", "holders")
	log.Debug("filtered out")
	log.Warn("slot failed", "slot", "tokenInfo")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "slot loaded", entries[0].Message)
	assert.Equal(t, map[string]interface{}{"component": "cache", "slot": "holders"}, entries[0].ContextMap())
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	assert.NotPanics(t, func() {
		log.Info("x")
		log.Debug("x")
		log.Warn("x")
		log.Error("x")
	})
}
