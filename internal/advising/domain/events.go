package domain

import (
	sharedDomain "github.com/felixgeelhaar/advising/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	sessionAggregateType = "AdvisingSession"
	policyAggregateType  = "AvailabilityPolicy"
)

// Routing keys published on the domain events exchange.
const (
	RoutingKeySessionBooked       = "advising.session.booked"
	RoutingKeySessionCancelled    = "advising.session.cancelled"
	RoutingKeySessionCompleted    = "advising.session.completed"
	RoutingKeySessionAnnotated    = "advising.session.annotated"
	RoutingKeyAvailabilityChanged = "advising.availability.changed"
)

// SessionBooked is emitted when a session is created.
type SessionBooked struct {
	sharedDomain.BaseEvent
	SessionID uuid.UUID `json:"session_id"`
	StudentID uuid.UUID `json:"student_id"`
	AdvisorID uuid.UUID `json:"advisor_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Location  string    `json:"location"`
	BookedBy  uuid.UUID `json:"booked_by"`
}

func NewSessionBooked(s *Session, bookedBy uuid.UUID) *SessionBooked {
	return &SessionBooked{
		BaseEvent: sharedDomain.NewBaseEvent(s.ID(), sessionAggregateType, RoutingKeySessionBooked, s.UpdatedAt()),
		SessionID: s.ID(),
		StudentID: s.StudentID(),
		AdvisorID: s.AdvisorID(),
		Date:      s.Date().String(),
		StartTime: s.StartTime().String(),
		EndTime:   s.EndTime().String(),
		Location:  s.Location(),
		BookedBy:  bookedBy,
	}
}

// SessionCancelled is emitted when a session is cancelled.
type SessionCancelled struct {
	sharedDomain.BaseEvent
	SessionID   uuid.UUID `json:"session_id"`
	StudentID   uuid.UUID `json:"student_id"`
	AdvisorID   uuid.UUID `json:"advisor_id"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	Reason      string    `json:"reason"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
}

func NewSessionCancelled(s *Session) *SessionCancelled {
	e := &SessionCancelled{
		BaseEvent: sharedDomain.NewBaseEvent(s.ID(), sessionAggregateType, RoutingKeySessionCancelled, s.UpdatedAt()),
		SessionID: s.ID(),
		StudentID: s.StudentID(),
		AdvisorID: s.AdvisorID(),
		Date:      s.Date().String(),
		StartTime: s.StartTime().String(),
		Reason:    s.CancellationReason(),
	}
	if by := s.CancelledBy(); by != nil {
		e.CancelledBy = *by
	}
	return e
}

// SessionCompleted is emitted when a session is completed.
type SessionCompleted struct {
	sharedDomain.BaseEvent
	SessionID   uuid.UUID `json:"session_id"`
	StudentID   uuid.UUID `json:"student_id"`
	AdvisorID   uuid.UUID `json:"advisor_id"`
	CompletedBy uuid.UUID `json:"completed_by"`
}

func NewSessionCompleted(s *Session, completedBy uuid.UUID) *SessionCompleted {
	return &SessionCompleted{
		BaseEvent:   sharedDomain.NewBaseEvent(s.ID(), sessionAggregateType, RoutingKeySessionCompleted, s.UpdatedAt()),
		SessionID:   s.ID(),
		StudentID:   s.StudentID(),
		AdvisorID:   s.AdvisorID(),
		CompletedBy: completedBy,
	}
}

// SessionAnnotated is emitted when notes change.
type SessionAnnotated struct {
	sharedDomain.BaseEvent
	SessionID   uuid.UUID `json:"session_id"`
	AnnotatedBy uuid.UUID `json:"annotated_by"`
}

func NewSessionAnnotated(s *Session, annotatedBy uuid.UUID) *SessionAnnotated {
	return &SessionAnnotated{
		BaseEvent:   sharedDomain.NewBaseEvent(s.ID(), sessionAggregateType, RoutingKeySessionAnnotated, s.UpdatedAt()),
		SessionID:   s.ID(),
		AnnotatedBy: annotatedBy,
	}
}

// AvailabilityChanged is emitted whenever a policy is written.
type AvailabilityChanged struct {
	sharedDomain.BaseEvent
	PolicyID  uuid.UUID  `json:"policy_id"`
	Scope     Scope      `json:"scope"`
	AdvisorID *uuid.UUID `json:"advisor_id,omitempty"`
	Enabled   bool       `json:"enabled"`
	ChangedBy uuid.UUID  `json:"changed_by"`
}

func NewAvailabilityChanged(p *AvailabilityPolicy) *AvailabilityChanged {
	return &AvailabilityChanged{
		BaseEvent: sharedDomain.NewBaseEvent(p.ID(), policyAggregateType, RoutingKeyAvailabilityChanged, p.UpdatedAt()),
		PolicyID:  p.ID(),
		Scope:     p.Scope(),
		AdvisorID: p.AdvisorID(),
		Enabled:   p.Enabled(),
		ChangedBy: p.UpdatedBy(),
	}
}
