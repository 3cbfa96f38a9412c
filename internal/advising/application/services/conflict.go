package services

import (
	"context"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/google/uuid"
)

// ConflictChecker answers whether an advisor slot is occupied. Only
// scheduled sessions occupy a slot, so a cancelled or completed session
// leaves it free for rebooking.
//
// The check is advisory. The live-slot unique index is what prevents two
// concurrent bookings from both succeeding.
type ConflictChecker struct {
	repo domain.SessionRepository
}

// NewConflictChecker creates a new ConflictChecker.
func NewConflictChecker(repo domain.SessionRepository) *ConflictChecker {
	return &ConflictChecker{repo: repo}
}

func (c *ConflictChecker) HasConflict(ctx context.Context, advisorID uuid.UUID, date domain.Date, slot domain.Slot) (bool, error) {
	taken, err := c.repo.ExistsScheduled(ctx, advisorID, date, slot.Start)
	if err != nil {
		return false, domain.StoreFailure("check slot", err)
	}
	return taken, nil
}
