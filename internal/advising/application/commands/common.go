package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	sharedApplication "github.com/felixgeelhaar/advising/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/advising/internal/shared/domain"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/advising/pkg/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ViewInvalidator drops cached session listings. Invalidation happens after
// commit and is best effort.
type ViewInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...uuid.UUID) error
}

// Deps bundles the collaborators every command handler needs.
type Deps struct {
	UnitOfWork  sharedApplication.UnitOfWork
	Outbox      outbox.Repository
	Invalidator ViewInvalidator
	Logger      *zap.Logger
	Metrics     observability.Metrics
	Clock       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = observability.NoopMetrics{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

// saveEvents moves the aggregate's pending events into the outbox inside the
// caller's transaction.
func (d Deps) saveEvents(ctx context.Context, aggregate sharedDomain.AggregateRoot, actorID uuid.UUID) error {
	events := aggregate.DomainEvents()
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx, actorID))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return domain.StoreFailure("encode events", err)
	}
	if err := d.Outbox.SaveBatch(ctx, msgs); err != nil {
		return domain.StoreFailure("save events", err)
	}
	aggregate.ClearDomainEvents()
	return nil
}

func (d Deps) invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if d.Invalidator == nil {
		return
	}
	if err := d.Invalidator.Invalidate(ctx, userIDs...); err != nil {
		d.Metrics.Counter(observability.MetricCacheInvalidation, 1)
		observability.LoggerWithContext(ctx, d.Logger).Warn("session view invalidation failed", zap.Error(err))
	}
}

func (d Deps) observe(command string, start time.Time) {
	d.Metrics.Timing(observability.MetricCommandDuration, time.Since(start), observability.T("command", command))
}

// outcome labels a result for metrics and logs.
func outcome(err error, success string) string {
	if err == nil {
		return success
	}
	return string(domain.KindOf(err))
}
