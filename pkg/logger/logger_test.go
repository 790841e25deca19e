package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"chatty", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestWithAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.With("runID", "r-1").Warn("No live data for flight", "flight", "AA1")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "No live data for flight", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "r-1", fields["runID"])
	assert.Equal(t, "AA1", fields["flight"])
}

func TestNopLoggerDiscards(t *testing.T) {
	log := NewNopLogger()
	log.Info("ignored", "k", "v")
	log.With("a", 1).Error("also ignored")
}
