package observability

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFormat selects the zap encoder.
type LogFormat string

const (
	LogFormatConsole LogFormat = "console"
	LogFormatJSON    LogFormat = "json"
)

// LogConfig configures NewLogger.
type LogConfig struct {
	Level          string
	Format         LogFormat
	Output         io.Writer
	ServiceName    string
	ServiceVersion string
}

// DefaultLogConfig is the development setup: colored console output at debug.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "debug",
		Format:      LogFormatConsole,
		Output:      os.Stderr,
		ServiceName: "advising",
	}
}

// ProductionLogConfig emits JSON at info.
func ProductionLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      LogFormatJSON,
		Output:      os.Stderr,
		ServiceName: "advising",
	}
}

// NewLogger builds a zap logger from cfg. Unknown levels fall back to info.
func NewLogger(cfg LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case LogFormatJSON:
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	default:
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	logger := zap.New(zapcore.NewCore(encoder, zapcore.AddSync(out), level), zap.AddCaller())

	var fields []zap.Field
	if cfg.ServiceName != "" {
		fields = append(fields, zap.String("service", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		fields = append(fields, zap.String("version", cfg.ServiceVersion))
	}
	return logger.With(fields...)
}

// LoggerForEnv returns the production logger for "production" and the
// development logger otherwise. A non-empty level overrides the default.
func LoggerForEnv(env, level string) *zap.Logger {
	cfg := DefaultLogConfig()
	if env == "production" {
		cfg = ProductionLogConfig()
	}
	if level != "" {
		cfg.Level = level
	}
	return NewLogger(cfg)
}

// LoggerWithContext attaches the request-scoped identifiers found in ctx.
func LoggerWithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	var fields []zap.Field
	if id := CorrelationIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String(CorrelationIDKey, id))
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String(RequestIDKey, id))
	}
	if id := UserIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String(UserIDKey, id))
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
