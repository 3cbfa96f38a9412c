package outbox

import (
	"context"
	"time"
)

// Repository persists outbox messages. SaveBatch joins the transaction in
// ctx when there is one so events commit together with the aggregate.
type Repository interface {
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished returns live messages whose retry time has come,
	// oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string) error

	// DeleteOld removes published messages older than the retention period.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)

	// Pending counts unpublished, live messages and reports the oldest one's
	// creation time.
	Pending(ctx context.Context) (PendingStats, error)
}

// PendingStats summarizes the backlog.
type PendingStats struct {
	Count  int64
	Oldest *time.Time
}
