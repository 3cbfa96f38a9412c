package domain

import (
	"context"

	"github.com/google/uuid"
)

// SessionRepository persists advising sessions. Implementations join the
// transaction carried by ctx.
type SessionRepository interface {
	// Create inserts a new session. A live session already holding the
	// same advisor slot yields ErrSlotTaken.
	Create(ctx context.Context, session *Session) error

	// Update writes a transition, conditional on the version the session
	// was loaded with. A lost race yields ErrConcurrentUpdate.
	Update(ctx context.Context, session *Session) error

	// FindByID returns nil, nil when no session has the id.
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// ExistsScheduled reports whether a scheduled session occupies the slot.
	ExistsScheduled(ctx context.Context, advisorID uuid.UUID, date Date, start TimeOfDay) (bool, error)

	// FindByStudentID and FindByAdvisorID return sessions ordered by date
	// and start time.
	FindByStudentID(ctx context.Context, studentID uuid.UUID) ([]*Session, error)
	FindByAdvisorID(ctx context.Context, advisorID uuid.UUID) ([]*Session, error)
}

// PolicyRepository persists one availability policy per scope.
type PolicyRepository interface {
	// FindGlobal returns nil, nil when no global policy was ever written.
	FindGlobal(ctx context.Context) (*AvailabilityPolicy, error)

	// FindByAdvisorID returns nil, nil when the advisor has no override.
	FindByAdvisorID(ctx context.Context, advisorID uuid.UUID) (*AvailabilityPolicy, error)

	// Save upserts the policy for its scope and bumps the stored version.
	Save(ctx context.Context, policy *AvailabilityPolicy) error
}
