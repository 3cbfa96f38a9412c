package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/felixgeelhaar/advising/adapter/cli"
	"github.com/felixgeelhaar/advising/adapter/cli/availability"
	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/felixgeelhaar/advising/internal/app"
	"github.com/felixgeelhaar/advising/pkg/config"
	"github.com/felixgeelhaar/advising/pkg/observability"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	logger := observability.LoggerForEnv(cfg.AppEnv, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	if err != nil {
		logger.Warn("failed to load config, using development mode", zap.Error(err))
	}
	cli.SetLogger(logger)

	caller, err := cliCaller(cfg)
	if err != nil {
		logger.Error("invalid CLI caller", zap.Error(err))
		os.Exit(1)
	}

	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", zap.Error(err))
			os.Exit(1)
		}
		// Commands that need the engine report errNoApp.
		logger.Warn("failed to initialize container, running in limited mode", zap.Error(err))
	} else {
		defer container.Close()

		if cfg.OutboxProcessorEnabled {
			if err := container.OutboxProcessor.Start(ctx); err != nil {
				logger.Warn("failed to start outbox processor", zap.Error(err))
			}
		} else {
			logger.Debug("outbox processor disabled in CLI")
		}

		cliApp = cli.NewApp(
			container.BookSessionHandler,
			container.CancelSessionHandler,
			container.CompleteSessionHandler,
			container.AnnotateSessionHandler,
			container.SetAvailabilityHandler,
			container.ListSessionsHandler,
			container.GetSessionHandler,
			container.GetAvailabilityHandler,
		)
		cliApp.SetCaller(caller)
		cliApp.SetMigrator(container)
	}

	cli.SetApp(cliApp)
	cli.AddCommand(availability.Cmd)

	cli.Execute(ctx)
}

func cliCaller(cfg *config.Config) (domain.Caller, error) {
	id, err := uuid.Parse(cfg.CallerID)
	if err != nil {
		return domain.Caller{}, err
	}
	role, err := domain.ParseRole(cfg.CallerRole)
	if err != nil {
		return domain.Caller{}, err
	}
	return domain.NewCaller(id, role)
}
