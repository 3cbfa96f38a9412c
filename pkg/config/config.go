package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	// Database. An empty URL or a file path selects local SQLite mode.
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH"`
	DBMaxConns  int    `env:"DB_MAX_CONNS" envDefault:"10"`

	// Redis
	RedisURL        string        `env:"REDIS_URL"`
	SessionCacheTTL time.Duration `env:"SESSION_CACHE_TTL" envDefault:"5m"`

	// RabbitMQ
	RabbitMQURL              string        `env:"RABBITMQ_URL"`
	PublisherBreakerFailures uint32        `env:"PUBLISHER_BREAKER_FAILURES" envDefault:"5"`
	PublisherBreakerTimeout  time.Duration `env:"PUBLISHER_BREAKER_TIMEOUT" envDefault:"30s"`

	// Outbox
	OutboxPollInterval     time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"500ms"`
	OutboxBatchSize        int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	OutboxMaxRetries       int           `env:"OUTBOX_MAX_RETRIES" envDefault:"5"`
	OutboxRetentionDays    int           `env:"OUTBOX_RETENTION_DAYS" envDefault:"14"`
	OutboxCleanupSchedule  string        `env:"OUTBOX_CLEANUP_SCHEDULE" envDefault:"@daily"`
	OutboxStatsSchedule    string        `env:"OUTBOX_STATS_SCHEDULE" envDefault:"@every 30s"`
	OutboxProcessorEnabled bool          `env:"OUTBOX_PROCESSOR_ENABLED" envDefault:"true"`

	// HTTP
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	WorkerHealthAddr string        `env:"WORKER_HEALTH_ADDR" envDefault:"0.0.0.0:8081"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`

	// Identity. The API verifies bearer tokens; the CLI acts as a fixed caller.
	AuthJWTSecret string `env:"AUTH_JWT_SECRET"`
	AuthJWTIssuer string `env:"AUTH_JWT_ISSUER"`
	CallerID      string `env:"ADVISING_CALLER_ID" envDefault:"00000000-0000-0000-0000-000000000001"`
	CallerRole    string `env:"ADVISING_CALLER_ROLE" envDefault:"student"`

	// Tracing
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"advising"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration with every default applied and no
// environment read.
func Default() *Config {
	cfg := &Config{}
	_ = env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsLocalMode reports whether the SQLite backend is selected.
func (c *Config) IsLocalMode() bool {
	return !strings.HasPrefix(c.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(c.DatabaseURL, "postgresql://")
}
