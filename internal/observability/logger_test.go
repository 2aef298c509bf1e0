package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/seismic-risk-service/internal/config"
)

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		level   string
		format  string
		enabled slog.Level
		skipped slog.Level
	}{
		{level: "debug", format: "json", enabled: slog.LevelDebug, skipped: slog.LevelDebug - 4},
		{level: "warn", format: "text", enabled: slog.LevelWarn, skipped: slog.LevelInfo},
		{level: "error", format: "json", enabled: slog.LevelError, skipped: slog.LevelWarn},
		{level: "", format: "", enabled: slog.LevelInfo, skipped: slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: tt.format})

			assert.True(t, logger.Enabled(context.Background(), tt.enabled))
			assert.False(t, logger.Enabled(context.Background(), tt.skipped))
			assert.Same(t, logger, slog.Default())
		})
	}
}
