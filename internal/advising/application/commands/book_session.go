package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/application"
	"github.com/felixgeelhaar/advising/internal/advising/application/services"
	"github.com/felixgeelhaar/advising/internal/advising/domain"
	sharedApplication "github.com/felixgeelhaar/advising/internal/shared/application"
	"github.com/felixgeelhaar/advising/pkg/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// BookSessionCommand books a slot with an advisor. Students book for
// themselves; advisors and administrators may book on behalf of any student.
type BookSessionCommand struct {
	Caller    domain.Caller `json:"-" validate:"-"`
	StudentID uuid.UUID     `json:"student_id" validate:"required"`
	AdvisorID uuid.UUID     `json:"advisor_id" validate:"required"`
	Date      string        `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string        `json:"start_time" validate:"required"`
	Location  string        `json:"location" validate:"max=200"`
}

// BookSessionHandler coordinates availability, conflict detection and
// session creation in one transaction.
type BookSessionHandler struct {
	sessions     domain.SessionRepository
	availability *services.AvailabilityPolicyStore
	conflicts    *services.ConflictChecker
	deps         Deps
}

// NewBookSessionHandler creates a new BookSessionHandler.
func NewBookSessionHandler(
	sessions domain.SessionRepository,
	availability *services.AvailabilityPolicyStore,
	conflicts *services.ConflictChecker,
	deps Deps,
) *BookSessionHandler {
	return &BookSessionHandler{
		sessions:     sessions,
		availability: availability,
		conflicts:    conflicts,
		deps:         deps.withDefaults(),
	}
}

// Handle executes the BookSessionCommand. The checks run in a fixed order
// and the first failure wins: request shape, slot, caller, global
// availability, advisor availability, slot conflict.
func (h *BookSessionHandler) Handle(ctx context.Context, cmd BookSessionCommand) (session *domain.Session, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "advising.book_session",
		attribute.String("advisor_id", cmd.AdvisorID.String()),
		attribute.String("date", cmd.Date),
		attribute.String("start_time", cmd.StartTime),
	)
	defer func() {
		observability.EndSpan(span, err)
		h.deps.observe("book_session", start)
		h.deps.Metrics.Counter(observability.MetricBookings, 1, observability.T("outcome", outcome(err, "booked")))
	}()

	date, slot, err := h.validate(cmd)
	if err != nil {
		return nil, err
	}

	logger := observability.LoggerWithContext(ctx, h.deps.Logger).With(
		zap.Stringer("student_id", cmd.StudentID),
		zap.Stringer("advisor_id", cmd.AdvisorID),
		zap.Stringer("date", date),
		zap.Stringer("slot", slot),
	)

	err = sharedApplication.WithUnitOfWork(ctx, h.deps.UnitOfWork, func(txCtx context.Context) error {
		global, err := h.availability.GetEffective(txCtx, nil)
		if err != nil {
			return err
		}
		if !global {
			return domain.ErrBookingDisabled
		}

		advisorOpen, err := h.availability.GetEffective(txCtx, &cmd.AdvisorID)
		if err != nil {
			return err
		}
		if !advisorOpen {
			return domain.ErrAdvisorUnavailable
		}

		taken, err := h.conflicts.HasConflict(txCtx, cmd.AdvisorID, date, slot)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrSlotTaken
		}

		s, err := domain.NewSession(cmd.StudentID, cmd.AdvisorID, date, cmd.StartTime, cmd.Location, cmd.Caller.ID, h.deps.Clock())
		if err != nil {
			return err
		}
		if err := h.sessions.Create(txCtx, s); err != nil {
			return domain.StoreFailure("create session", err)
		}
		if err := h.deps.saveEvents(txCtx, s, cmd.Caller.ID); err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		logger.Info("booking rejected", zap.String("kind", string(domain.KindOf(err))), zap.Error(err))
		return nil, err
	}

	h.deps.invalidate(ctx, session.StudentID(), session.AdvisorID())
	logger.Info("session booked", zap.Stringer("session_id", session.ID()))
	return session, nil
}

func (h *BookSessionHandler) validate(cmd BookSessionCommand) (domain.Date, domain.Slot, error) {
	if err := application.Validate(cmd); err != nil {
		return domain.Date{}, domain.Slot{}, err
	}
	if cmd.StudentID == cmd.AdvisorID {
		return domain.Date{}, domain.Slot{}, domain.InvalidRequest("advisor_id")
	}
	date, err := domain.ParseDate(cmd.Date)
	if err != nil {
		return domain.Date{}, domain.Slot{}, domain.InvalidRequest("date")
	}
	slot, err := domain.ParseSlot(cmd.StartTime)
	if err != nil {
		return domain.Date{}, domain.Slot{}, err
	}

	if err := application.Authenticate(cmd.Caller); err != nil {
		return domain.Date{}, domain.Slot{}, err
	}
	if !cmd.Caller.IsStaff() && cmd.Caller.ID != cmd.StudentID {
		return domain.Date{}, domain.Slot{}, domain.ErrUnauthorized
	}
	return date, slot, nil
}
