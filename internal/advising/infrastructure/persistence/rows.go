package persistence

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/google/uuid"
)

const sessionColumns = `
	id, student_id, advisor_id, session_date, start_time, end_time, location,
	status, notes, cancellation_reason, cancelled_by, version, created_at, updated_at`

// sessionRow holds the driver-neutral parts of a session row. Dates and
// instants are decoded per driver before toDomain is called.
type sessionRow struct {
	ID                 uuid.UUID
	StudentID          uuid.UUID
	AdvisorID          uuid.UUID
	Date               domain.Date
	StartTime          string
	EndTime            string
	Location           string
	Status             string
	Notes              string
	CancellationReason *string
	CancelledBy        *uuid.UUID
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (r sessionRow) toDomain() (*domain.Session, error) {
	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", r.ID, err)
	}
	start, err := domain.ParseTimeOfDay(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("session %s start_time: %w", r.ID, err)
	}
	end, err := domain.ParseTimeOfDay(r.EndTime)
	if err != nil {
		return nil, fmt.Errorf("session %s end_time: %w", r.ID, err)
	}

	var reason string
	if r.CancellationReason != nil {
		reason = *r.CancellationReason
	}

	return domain.RehydrateSession(domain.SessionSnapshot{
		ID:                 r.ID,
		StudentID:          r.StudentID,
		AdvisorID:          r.AdvisorID,
		Date:               r.Date,
		StartTime:          start,
		EndTime:            end,
		Location:           r.Location,
		Status:             status,
		Notes:              r.Notes,
		CancellationReason: reason,
		CancelledBy:        r.CancelledBy,
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}), nil
}

// nullableReason stores an empty reason as NULL.
func nullableReason(s *domain.Session) *string {
	if s.CancellationReason() == "" {
		return nil
	}
	reason := s.CancellationReason()
	return &reason
}

const policyColumns = `
	id, scope, advisor_id, enabled, version, updated_by, created_at, updated_at`
