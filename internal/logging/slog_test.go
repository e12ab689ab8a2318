package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/slotwise/types"
)

func TestSlogLogger_ImplementsInterface(t *testing.T) {
	t.Helper()
	var _ types.Logger = (*SlogLogger)(nil)
	var _ types.Logger = (*NopLogger)(nil)
}

func TestNewSlogDefault(t *testing.T) {
	logger := NewSlogDefault()

	require.NotNil(t, logger)
	require.NotNil(t, logger.logger)
}

func TestSlogLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		log   func(l *SlogLogger)
		want  []string
		level slog.Level
	}{
		{
			name:  "debug",
			log:   func(l *SlogLogger) { l.Debug("aggregated slot", "slot_id", "s-1") },
			want:  []string{"aggregated slot", "slot_id=s-1", "level=DEBUG"},
			level: slog.LevelDebug,
		},
		{
			name:  "info",
			log:   func(l *SlogLogger) { l.Info("pipeline run complete", "moves", 2) },
			want:  []string{"pipeline run complete", "moves=2", "level=INFO"},
			level: slog.LevelInfo,
		},
		{
			name:  "warn",
			log:   func(l *SlogLogger) { l.Warn("event source failed", "degraded", true) },
			want:  []string{"event source failed", "degraded=true", "level=WARN"},
			level: slog.LevelWarn,
		},
		{
			name:  "error",
			log:   func(l *SlogLogger) { l.Error("publish failed", "error", "timeout") },
			want:  []string{"publish failed", "error=timeout", "level=ERROR"},
			level: slog.LevelError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewSlogText(buf, tt.level)

			tt.log(logger)

			for _, w := range tt.want {
				require.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewSlogText(buf, slog.LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden too")
	require.Empty(t, buf.String())

	logger.Warn("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestSlogLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewSlogText(buf, slog.LevelInfo).With("store_id", "store-7")

	logger.Info("run")

	require.Contains(t, buf.String(), "store_id=store-7")
}

func TestNopLogger(t *testing.T) {
	logger := NewNop()

	require.NotPanics(t, func() {
		logger.Debug("test message", "key", "value")
		logger.Info("")
		logger.Warn("message", "single")
		logger.Error("message", "k1", "v1", "k2", "v2")
		logger.Fatal("message") // must not exit
	})
}
