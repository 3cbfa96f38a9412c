package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/advising/adapter/api"
	"github.com/felixgeelhaar/advising/internal/app"
	"github.com/felixgeelhaar/advising/pkg/config"
	"github.com/felixgeelhaar/advising/pkg/observability"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return err
	}

	logger := observability.LoggerForEnv(cfg.AppEnv, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		logger.Error("failed to set up tracing", zap.Error(err))
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown error", zap.Error(err))
		}
	}()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", zap.Error(err))
		return err
	}
	defer container.Close()

	auth, err := api.NewAuthenticator(cfg.AuthJWTSecret, cfg.AuthJWTIssuer)
	if err != nil {
		logger.Error("failed to configure authentication", zap.Error(err))
		return err
	}

	sessions := api.NewSessionHandler(api.SessionHandlerConfig{
		Book:            container.BookSessionHandler,
		Cancel:          container.CancelSessionHandler,
		Complete:        container.CompleteSessionHandler,
		Annotate:        container.AnnotateSessionHandler,
		SetAvailability: container.SetAvailabilityHandler,
		ListSessions:    container.ListSessionsHandler,
		GetSession:      container.GetSessionHandler,
		GetAvailability: container.GetAvailabilityHandler,
		Logger:          logger,
	})

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.HTTPAddr
	serverCfg.RequestTimeout = cfg.RequestTimeout
	server := api.NewServer(serverCfg, api.ServerDeps{
		Sessions: sessions,
		Auth:     auth,
		Health:   container.Health,
		Metrics:  container.Metrics.Handler(),
		Logger:   logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	// A separate worker usually drains the outbox; the flag lets a single
	// process do both.
	if cfg.OutboxProcessorEnabled {
		g.Go(func() error {
			if err := container.OutboxProcessor.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			container.OutboxProcessor.Stop()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
