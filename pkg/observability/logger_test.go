package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("json output carries service fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{
			Level:          "info",
			Format:         LogFormatJSON,
			Output:         &buf,
			ServiceName:    "advising",
			ServiceVersion: "1.2.3",
		})

		logger.Info("session booked", zap.String("slot", "09:00"))
		require.NoError(t, logger.Sync())

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "session booked", entry["msg"])
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "advising", entry["service"])
		assert.Equal(t, "1.2.3", entry["version"])
		assert.Equal(t, "09:00", entry["slot"])
	})

	t.Run("level filters lower entries", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "warn", Format: LogFormatJSON, Output: &buf})

		logger.Info("hidden")
		logger.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "loud", Format: LogFormatJSON, Output: &buf})

		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("console format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "debug", Format: LogFormatConsole, Output: &buf})

		logger.Debug("debugging")

		assert.Contains(t, buf.String(), "debugging")
	})
}

func TestLoggerForEnv(t *testing.T) {
	assert.False(t, LoggerForEnv("production", "").Core().Enabled(zapcore.DebugLevel))
	assert.True(t, LoggerForEnv("development", "").Core().Enabled(zapcore.DebugLevel))
	assert.False(t, LoggerForEnv("development", "error").Core().Enabled(zapcore.WarnLevel))
}

func TestLoggerWithContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(LogConfig{Level: "info", Format: LogFormatJSON, Output: &buf})

	ctx := WithCorrelationID(context.Background(), "corr-1")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUserID(ctx, "user-1")

	LoggerWithContext(ctx, base).Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "corr-1", entry[CorrelationIDKey])
	assert.Equal(t, "req-1", entry[RequestIDKey])
	assert.Equal(t, "user-1", entry[UserIDKey])

	assert.Same(t, base, LoggerWithContext(context.Background(), base))
}

func TestNewRequestContext(t *testing.T) {
	ctx := NewRequestContext(context.Background(), "parent")
	assert.Equal(t, "parent", CorrelationIDFromContext(ctx))
	assert.NotEmpty(t, RequestIDFromContext(ctx))

	fresh := NewRequestContext(context.Background(), "")
	assert.NotEmpty(t, CorrelationIDFromContext(fresh))
}
