package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/advising/internal/shared/domain"
	"github.com/google/uuid"
)

// maxNotesLength bounds session notes.
const maxNotesLength = 4000

// Session is a one-on-one advising appointment.
type Session struct {
	sharedDomain.BaseAggregateRoot
	studentID          uuid.UUID
	advisorID          uuid.UUID
	date               Date
	slot               Slot
	location           string
	status             Status
	notes              string
	cancellationReason string
	cancelledBy        *uuid.UUID
}

// NewSession creates a scheduled session. It checks the slot and the
// participants only; availability and conflicts are the booking
// coordinator's concern.
func NewSession(studentID, advisorID uuid.UUID, date Date, startTime, location string, bookedBy uuid.UUID, now time.Time) (*Session, error) {
	slot, err := ParseSlot(startTime)
	if err != nil {
		return nil, err
	}

	var invalid []string
	if studentID == uuid.Nil {
		invalid = append(invalid, "student_id")
	}
	if advisorID == uuid.Nil {
		invalid = append(invalid, "advisor_id")
	}
	if date.IsZero() {
		invalid = append(invalid, "date")
	}
	if len(invalid) > 0 {
		return nil, InvalidRequest(invalid...)
	}

	location, err = NormalizeLocation(location)
	if err != nil {
		return nil, err
	}

	s := &Session{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(now),
		studentID:         studentID,
		advisorID:         advisorID,
		date:              date,
		slot:              slot,
		location:          location,
		status:            StatusScheduled,
	}
	s.Record(NewSessionBooked(s, bookedBy))
	return s, nil
}

func (s *Session) StudentID() uuid.UUID       { return s.studentID }
func (s *Session) AdvisorID() uuid.UUID       { return s.advisorID }
func (s *Session) Date() Date                 { return s.date }
func (s *Session) Slot() Slot                 { return s.slot }
func (s *Session) StartTime() TimeOfDay       { return s.slot.Start }
func (s *Session) EndTime() TimeOfDay         { return s.slot.End }
func (s *Session) Location() string           { return s.location }
func (s *Session) Status() Status             { return s.status }
func (s *Session) Notes() string              { return s.notes }
func (s *Session) CancellationReason() string { return s.cancellationReason }
func (s *Session) CancelledBy() *uuid.UUID    { return s.cancelledBy }

// IsParticipant reports whether id is the session's student or advisor.
func (s *Session) IsParticipant(id uuid.UUID) bool {
	return id == s.studentID || id == s.advisorID
}

// CanView reports whether the caller may read the session.
func (s *Session) CanView(actor Caller) bool {
	return actor.IsAdministrator() || s.IsParticipant(actor.ID)
}

// IsUpcoming reports whether the session belongs in the upcoming bucket on
// the given day. A scheduled session whose date has passed is not upcoming.
func (s *Session) IsUpcoming(today Date) bool {
	return s.status == StatusScheduled && !s.date.Before(today)
}

// Complete closes a scheduled session with the advisor's notes.
func (s *Session) Complete(actor Caller, notes string, now time.Time) error {
	if !actor.IsStaff() {
		return ErrUnauthorized
	}
	if !s.status.CanTransitionTo(StatusCompleted) {
		return ErrInvalidTransition
	}
	notes, err := normalizeNotes(notes)
	if err != nil {
		return err
	}

	s.status = StatusCompleted
	s.notes = notes
	s.Touch(now)
	s.Record(NewSessionCompleted(s, actor.ID))
	return nil
}

// Cancel frees the slot. Either participant may cancel, as may an
// administrator.
func (s *Session) Cancel(actor Caller, reason string, now time.Time) error {
	if !s.IsParticipant(actor.ID) && !actor.IsAdministrator() {
		return ErrUnauthorized
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrMissingReason
	}
	if !s.status.CanTransitionTo(StatusCancelled) {
		return ErrInvalidTransition
	}

	cancelledBy := actor.ID
	s.status = StatusCancelled
	s.cancellationReason = reason
	s.cancelledBy = &cancelledBy
	s.Touch(now)
	s.Record(NewSessionCancelled(s))
	return nil
}

// Annotate replaces the notes of a scheduled or completed session.
func (s *Session) Annotate(actor Caller, notes string, now time.Time) error {
	if !actor.IsStaff() {
		return ErrUnauthorized
	}
	if s.status == StatusCancelled {
		return ErrInvalidTransition
	}
	notes, err := normalizeNotes(notes)
	if err != nil {
		return err
	}

	s.notes = notes
	s.Touch(now)
	s.Record(NewSessionAnnotated(s, actor.ID))
	return nil
}

func normalizeNotes(notes string) (string, error) {
	notes = strings.TrimSpace(notes)
	if len(notes) > maxNotesLength {
		return "", InvalidRequest("notes")
	}
	return notes, nil
}

// SessionSnapshot is the persisted form of a Session.
type SessionSnapshot struct {
	ID                 uuid.UUID
	StudentID          uuid.UUID
	AdvisorID          uuid.UUID
	Date               Date
	StartTime          TimeOfDay
	EndTime            TimeOfDay
	Location           string
	Status             Status
	Notes              string
	CancellationReason string
	CancelledBy        *uuid.UUID
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RehydrateSession recreates a session from persisted state.
func RehydrateSession(snap SessionSnapshot) *Session {
	return &Session{
		BaseAggregateRoot:  sharedDomain.RehydrateBaseAggregateRoot(snap.ID, snap.CreatedAt, snap.UpdatedAt, snap.Version),
		studentID:          snap.StudentID,
		advisorID:          snap.AdvisorID,
		date:               snap.Date,
		slot:               Slot{Start: snap.StartTime, End: snap.EndTime},
		location:           snap.Location,
		status:             snap.Status,
		notes:              snap.Notes,
		cancellationReason: snap.CancellationReason,
		cancelledBy:        snap.CancelledBy,
	}
}

// Snapshot returns the persisted form of s.
func (s *Session) Snapshot() SessionSnapshot {
	return SessionSnapshot{
		ID:                 s.ID(),
		StudentID:          s.studentID,
		AdvisorID:          s.advisorID,
		Date:               s.date,
		StartTime:          s.slot.Start,
		EndTime:            s.slot.End,
		Location:           s.location,
		Status:             s.status,
		Notes:              s.notes,
		CancellationReason: s.cancellationReason,
		CancelledBy:        s.cancelledBy,
		Version:            s.Version(),
		CreatedAt:          s.CreatedAt(),
		UpdatedAt:          s.UpdatedAt(),
	}
}
