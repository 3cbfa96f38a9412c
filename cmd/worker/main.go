package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/advising/internal/app"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/outbox"
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

	logger := observability.LoggerForEnv(cfg.AppEnv, cfg.LogLevel).With(zap.String("component", "worker"))
	defer func() { _ = logger.Sync() }()
	logger.Info("starting advising worker")

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", zap.Error(err))
		return err
	}
	defer container.Close()

	processor := container.OutboxProcessor

	scheduler, err := newScheduler(ctx, cfg, processor, logger)
	if err != nil {
		logger.Error("invalid outbox schedule", zap.Error(err))
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	if err := processor.Start(ctx); err != nil {
		logger.Error("failed to start outbox processor", zap.Error(err))
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.WorkerHealthAddr != "" {
		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthMux(container, processor),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("health server starting", zap.String("addr", cfg.WorkerHealthAddr))
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return healthSrv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		processor.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped with error", zap.Error(err))
		return err
	}

	stats := processor.GetStats()
	logger.Info("worker stopped",
		zap.Uint64("published", stats.PublishedCount),
		zap.Uint64("failed", stats.FailedCount),
		zap.Uint64("dead", stats.DeadCount),
	)
	return nil
}

// newScheduler registers the outbox maintenance jobs.
func newScheduler(ctx context.Context, cfg *config.Config, processor *outbox.Processor, logger *zap.Logger) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := scheduler.AddFunc(cfg.OutboxCleanupSchedule, func() {
		if _, err := processor.Cleanup(ctx, cfg.OutboxRetentionDays); err != nil {
			logger.Error("outbox cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("cleanup schedule %q: %w", cfg.OutboxCleanupSchedule, err)
	}

	if _, err := scheduler.AddFunc(cfg.OutboxStatsSchedule, func() {
		pending, err := processor.ReportBacklog(ctx)
		if err != nil {
			logger.Error("outbox backlog check failed", zap.Error(err))
			return
		}
		stats := processor.GetStats()
		fields := []zap.Field{
			zap.Bool("running", stats.IsRunning),
			zap.Int64("pending", pending.Count),
			zap.Uint64("published", stats.PublishedCount),
			zap.Uint64("failed", stats.FailedCount),
			zap.Uint64("dead", stats.DeadCount),
		}
		if pending.Oldest != nil {
			fields = append(fields, zap.Time("oldest_message_at", *pending.Oldest))
		}
		logger.Info("outbox stats", fields...)
	}); err != nil {
		return nil, fmt.Errorf("stats schedule %q: %w", cfg.OutboxStatsSchedule, err)
	}

	return scheduler, nil
}

func healthMux(container *app.Container, processor *outbox.Processor) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := processor.GetStats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})
	mux.Handle("GET /readyz", container.Health.Handler())
	mux.Handle("GET /metrics", container.Metrics.Handler())

	return mux
}
