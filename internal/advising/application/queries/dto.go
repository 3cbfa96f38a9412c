package queries

import (
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/google/uuid"
)

// SessionDTO is a data transfer object for advising sessions. It is also
// the cached form of a session listing.
type SessionDTO struct {
	ID                 uuid.UUID  `json:"id"`
	StudentID          uuid.UUID  `json:"student_id"`
	AdvisorID          uuid.UUID  `json:"advisor_id"`
	Date               string     `json:"date"`
	StartTime          string     `json:"start_time"`
	EndTime            string     `json:"end_time"`
	Location           string     `json:"location"`
	Status             string     `json:"status"`
	Notes              string     `json:"notes"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledBy        *uuid.UUID `json:"cancelled_by,omitempty"`
	Version            int        `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewSessionDTO converts a session for callers outside the domain.
func NewSessionDTO(s *domain.Session) SessionDTO {
	return SessionDTO{
		ID:                 s.ID(),
		StudentID:          s.StudentID(),
		AdvisorID:          s.AdvisorID(),
		Date:               s.Date().String(),
		StartTime:          s.StartTime().String(),
		EndTime:            s.EndTime().String(),
		Location:           s.Location(),
		Status:             string(s.Status()),
		Notes:              s.Notes(),
		CancellationReason: s.CancellationReason(),
		CancelledBy:        s.CancelledBy(),
		Version:            s.Version(),
		CreatedAt:          s.CreatedAt(),
		UpdatedAt:          s.UpdatedAt(),
	}
}

// IsUpcoming applies the listing partition to a DTO. Dates are zero-padded
// so lexical order is calendar order.
func (d SessionDTO) IsUpcoming(today domain.Date) bool {
	return d.Status == string(domain.StatusScheduled) && d.Date >= today.String()
}

// SessionBuckets is a caller's sessions split for display. Upcoming runs
// soonest first, past runs most recent first.
type SessionBuckets struct {
	Upcoming []SessionDTO `json:"upcoming"`
	Past     []SessionDTO `json:"past"`
}

// AvailabilityDTO is a resolved availability value.
type AvailabilityDTO struct {
	AdvisorID *uuid.UUID `json:"advisor_id,omitempty"`
	Enabled   bool       `json:"enabled"`
	DecidedBy string     `json:"decided_by"`
	Version   int        `json:"version,omitempty"`
	UpdatedBy *uuid.UUID `json:"updated_by,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// NewAvailabilityDTO converts a resolution for advisorID.
func NewAvailabilityDTO(advisorID *uuid.UUID, eff domain.Effective) AvailabilityDTO {
	dto := AvailabilityDTO{
		AdvisorID: advisorID,
		Enabled:   eff.Enabled,
		DecidedBy: string(eff.DecidedBy),
	}
	if p := eff.Policy; p != nil {
		updatedBy := p.UpdatedBy()
		updatedAt := p.UpdatedAt()
		dto.Version = p.Version()
		dto.UpdatedBy = &updatedBy
		dto.UpdatedAt = &updatedAt
	}
	return dto
}

// SlotDTO is one bookable slot.
type SlotDTO struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ListSlots returns the slot catalogue.
func ListSlots() []SlotDTO {
	slots := domain.Slots()
	dtos := make([]SlotDTO, len(slots))
	for i, s := range slots {
		dtos[i] = SlotDTO{StartTime: s.Start.String(), EndTime: s.End.String()}
	}
	return dtos
}
