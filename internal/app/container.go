package app

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/application/commands"
	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/felixgeelhaar/advising/internal/advising/application/services"
	"github.com/felixgeelhaar/advising/internal/advising/domain"
	advisingCache "github.com/felixgeelhaar/advising/internal/advising/infrastructure/cache"
	sharedApplication "github.com/felixgeelhaar/advising/internal/shared/application"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/advising/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/advising/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/advising/pkg/config"
	"github.com/felixgeelhaar/advising/pkg/observability"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionCache is the listing cache as the container wires it: read by the
// list query and invalidated by every command.
type SessionCache interface {
	queries.SessionCache
	commands.ViewInvalidator
}

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.PrometheusMetrics
	Health  *observability.HealthRegistry
	Clock   func() time.Time

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis (nil in local mode)
	RedisClient *redis.Client

	// Repositories
	SessionRepo domain.SessionRepository
	PolicyRepo  domain.PolicyRepository
	OutboxRepo  outbox.Repository
	UnitOfWork  sharedApplication.UnitOfWork
	Cache       SessionCache

	// Publishing
	EventPublisher  eventbus.Publisher
	OutboxProcessor *outbox.Processor

	// Services
	Availability *services.AvailabilityPolicyStore
	Conflicts    *services.ConflictChecker

	// Command Handlers
	BookSessionHandler     *commands.BookSessionHandler
	CancelSessionHandler   *commands.CancelSessionHandler
	CompleteSessionHandler *commands.CompleteSessionHandler
	AnnotateSessionHandler *commands.AnnotateSessionHandler
	SetAvailabilityHandler *commands.SetAvailabilityHandler

	// Query Handlers
	ListSessionsHandler    *queries.ListSessionsHandler
	GetSessionHandler      *queries.GetSessionHandler
	GetAvailabilityHandler *queries.GetAvailabilityHandler
}

// Option adjusts a container before its handlers are built.
type Option func(*Container)

// WithClock replaces the wall clock used for timestamps and for deciding
// which sessions are upcoming.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		c.Clock = clock
	}
}

// NewContainer connects to the backend named by cfg.DatabaseURL and wires
// all dependencies. PostgreSQL schemas are managed with the migrate command;
// a SQLite file is migrated on open.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	conn, err := database.Open(ctx, database.Config{
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.DBMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("connected to database", zap.Stringer("driver", conn.Driver()))

	return newContainer(ctx, cfg, logger, conn, opts)
}

// NewLocalContainer creates a container for local mode with SQLite. This
// provides zero-config operation without PostgreSQL, Redis, or RabbitMQ.
func NewLocalContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	conn, err := database.Open(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
	}

	local := *cfg
	local.RedisURL = ""
	local.RabbitMQURL = ""
	return newContainer(ctx, &local, logger, conn, opts)
}

func newContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger, conn database.Connection, opts []Option) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Metrics:  observability.NewPrometheusMetrics(),
		Health:   observability.NewHealthRegistry(2 * time.Second),
		Clock:    time.Now,
		DBConn:   conn,
		DBDriver: conn.Driver(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.init(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) init(ctx context.Context) error {
	if c.DBDriver == database.DriverSQLite {
		if err := migrations.Up(ctx, c.DBConn); err != nil {
			return fmt.Errorf("failed to migrate SQLite database: %w", err)
		}
	}
	c.Health.Register("database", c.DBConn.Ping)

	factory := NewRepositoryFactory(c.DBConn)
	var err error
	if c.SessionRepo, err = factory.SessionRepository(); err != nil {
		return err
	}
	if c.PolicyRepo, err = factory.PolicyRepository(); err != nil {
		return err
	}
	if c.OutboxRepo, err = factory.OutboxRepository(); err != nil {
		return err
	}
	if c.UnitOfWork, err = factory.UnitOfWork(); err != nil {
		return err
	}

	if err := c.initCache(ctx); err != nil {
		return err
	}
	if err := c.initPublisher(); err != nil {
		return err
	}

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     c.Config.OutboxPollInterval,
		BatchSize:        c.Config.OutboxBatchSize,
		MaxRetries:       c.Config.OutboxMaxRetries,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
	}, c.Logger, c.Metrics)

	c.Availability = services.NewAvailabilityPolicyStore(c.PolicyRepo)
	c.Conflicts = services.NewConflictChecker(c.SessionRepo)

	deps := commands.Deps{
		UnitOfWork:  c.UnitOfWork,
		Outbox:      c.OutboxRepo,
		Invalidator: c.Cache,
		Logger:      c.Logger,
		Metrics:     c.Metrics,
		Clock:       c.Clock,
	}

	// Create command handlers
	c.BookSessionHandler = commands.NewBookSessionHandler(c.SessionRepo, c.Availability, c.Conflicts, deps)
	c.CancelSessionHandler = commands.NewCancelSessionHandler(c.SessionRepo, deps)
	c.CompleteSessionHandler = commands.NewCompleteSessionHandler(c.SessionRepo, deps)
	c.AnnotateSessionHandler = commands.NewAnnotateSessionHandler(c.SessionRepo, deps)
	c.SetAvailabilityHandler = commands.NewSetAvailabilityHandler(c.PolicyRepo, deps)

	// Create query handlers
	c.ListSessionsHandler = queries.NewListSessionsHandler(c.SessionRepo, c.Cache, c.Clock, c.Logger)
	c.GetSessionHandler = queries.NewGetSessionHandler(c.SessionRepo)
	c.GetAvailabilityHandler = queries.NewGetAvailabilityHandler(c.Availability)

	return nil
}

// initCache connects to Redis when configured. Development falls back to
// the in-process cache when Redis is unreachable.
func (c *Container) initCache(ctx context.Context) error {
	if c.Config.RedisURL == "" {
		c.Cache = advisingCache.NewMemorySessionCache(c.Config.SessionCacheTTL)
		return nil
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, session cache will use in-memory fallback", zap.Error(err))
		c.Cache = advisingCache.NewMemorySessionCache(c.Config.SessionCacheTTL)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, session cache will use in-memory fallback", zap.Error(err))
		c.Cache = advisingCache.NewMemorySessionCache(c.Config.SessionCacheTTL)
		return nil
	}

	c.RedisClient = client
	redisCache := advisingCache.NewRedisSessionCache(client, c.Config.SessionCacheTTL)
	c.Cache = redisCache
	c.Health.Register("redis", redisCache.Health)
	c.Logger.Info("connected to Redis")
	return nil
}

// initPublisher connects to RabbitMQ behind a circuit breaker. Without a
// broker URL, or in development when the broker is down, events are logged
// and dropped.
func (c *Container) initPublisher() error {
	if c.Config.RabbitMQURL == "" {
		c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
		return nil
	}

	rabbit, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using noop publisher", zap.Error(err))
		c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
		return nil
	}

	breaker := eventbus.NewBreakerPublisher(rabbit, eventbus.BreakerConfig{
		FailureThreshold: c.Config.PublisherBreakerFailures,
		Timeout:          c.Config.PublisherBreakerTimeout,
	}, c.Logger, c.Metrics)
	c.EventPublisher = breaker
	c.Health.Register("rabbitmq", rabbit.Health)
	c.Health.Register("publisher", breaker.Health)
	return nil
}

// Migrate applies pending schema migrations and returns their versions.
func (c *Container) Migrate(ctx context.Context) ([]int64, error) {
	m, err := migrations.NewMigrator(c.DBConn)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	return m.Up(ctx)
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", zap.Error(err))
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", zap.Error(err))
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", zap.Error(err))
		} else {
			c.Logger.Info("database connection closed", zap.Stringer("driver", c.DBDriver))
		}
	}
}
