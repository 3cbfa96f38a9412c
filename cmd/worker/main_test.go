package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/advising/pkg/config"
	"github.com/felixgeelhaar/advising/pkg/observability"
)

func testProcessor() *outbox.Processor {
	return outbox.NewProcessor(
		outbox.NewInMemoryRepository(),
		eventbus.NewNoopPublisher(zap.NewNop()),
		outbox.DefaultProcessorConfig(),
		zap.NewNop(),
		observability.NoopMetrics{},
	)
}

func TestNewScheduler(t *testing.T) {
	cfg := config.Default()

	scheduler, err := newScheduler(context.Background(), cfg, testProcessor(), zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, scheduler.Entries(), 2)
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	tests := []struct {
		name    string
		cleanup string
		stats   string
	}{
		{"cleanup", "every day", "@every 30s"},
		{"stats", "@daily", "@every nonsense"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.OutboxCleanupSchedule = tc.cleanup
			cfg.OutboxStatsSchedule = tc.stats

			_, err := newScheduler(context.Background(), cfg, testProcessor(), zap.NewNop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.name+" schedule")
		})
	}
}
