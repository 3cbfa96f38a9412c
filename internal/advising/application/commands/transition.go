package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/application"
	"github.com/felixgeelhaar/advising/internal/advising/domain"
	sharedApplication "github.com/felixgeelhaar/advising/internal/shared/application"
	"github.com/felixgeelhaar/advising/pkg/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// transitioner loads a session, applies one lifecycle operation and writes
// it back with its events.
type transitioner struct {
	sessions domain.SessionRepository
	deps     Deps
}

func (t transitioner) run(
	ctx context.Context,
	name, done string,
	sessionID uuid.UUID,
	caller domain.Caller,
	apply func(s *domain.Session, now time.Time) error,
) (session *domain.Session, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "advising."+name+"_session",
		attribute.String("session_id", sessionID.String()),
	)
	defer func() {
		observability.EndSpan(span, err)
		t.deps.observe(name+"_session", start)
		t.deps.Metrics.Counter(observability.MetricTransitions, 1,
			observability.T("transition", name),
			observability.T("outcome", outcome(err, "ok")),
		)
	}()

	logger := observability.LoggerWithContext(ctx, t.deps.Logger).With(
		zap.String("transition", name),
		zap.Stringer("session_id", sessionID),
		zap.Stringer("actor_id", caller.ID),
	)

	err = sharedApplication.WithUnitOfWork(ctx, t.deps.UnitOfWork, func(txCtx context.Context) error {
		s, err := t.sessions.FindByID(txCtx, sessionID)
		if err != nil {
			return domain.StoreFailure("find session", err)
		}
		if s == nil {
			return domain.ErrNotFound
		}

		if err := apply(s, t.deps.Clock()); err != nil {
			return err
		}
		if err := t.sessions.Update(txCtx, s); err != nil {
			return domain.StoreFailure("update session", err)
		}
		if err := t.deps.saveEvents(txCtx, s, caller.ID); err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		logger.Info("transition rejected", zap.String("kind", string(domain.KindOf(err))), zap.Error(err))
		return nil, err
	}

	t.deps.invalidate(ctx, session.StudentID(), session.AdvisorID())
	logger.Info(done, zap.String("status", string(session.Status())))
	return session, nil
}

// CancelSessionCommand cancels a scheduled session. The reason is checked
// by the lifecycle, after the caller, so a stranger always sees
// ErrUnauthorized.
type CancelSessionCommand struct {
	Caller    domain.Caller `json:"-" validate:"-"`
	SessionID uuid.UUID     `json:"session_id" validate:"required"`
	Reason    string        `json:"reason" validate:"max=1000"`
}

// CancelSessionHandler handles the CancelSessionCommand.
type CancelSessionHandler struct {
	transitioner
}

// NewCancelSessionHandler creates a new CancelSessionHandler.
func NewCancelSessionHandler(sessions domain.SessionRepository, deps Deps) *CancelSessionHandler {
	return &CancelSessionHandler{transitioner{sessions: sessions, deps: deps.withDefaults()}}
}

// Handle executes the CancelSessionCommand.
func (h *CancelSessionHandler) Handle(ctx context.Context, cmd CancelSessionCommand) (*domain.Session, error) {
	if err := validateTransition(cmd, cmd.Caller); err != nil {
		return nil, err
	}
	return h.run(ctx, "cancel", "session cancelled", cmd.SessionID, cmd.Caller, func(s *domain.Session, now time.Time) error {
		return s.Cancel(cmd.Caller, cmd.Reason, now)
	})
}

// CompleteSessionCommand closes a scheduled session with optional notes.
type CompleteSessionCommand struct {
	Caller    domain.Caller `json:"-" validate:"-"`
	SessionID uuid.UUID     `json:"session_id" validate:"required"`
	Notes     string        `json:"notes" validate:"max=4000"`
}

// CompleteSessionHandler handles the CompleteSessionCommand.
type CompleteSessionHandler struct {
	transitioner
}

// NewCompleteSessionHandler creates a new CompleteSessionHandler.
func NewCompleteSessionHandler(sessions domain.SessionRepository, deps Deps) *CompleteSessionHandler {
	return &CompleteSessionHandler{transitioner{sessions: sessions, deps: deps.withDefaults()}}
}

// Handle executes the CompleteSessionCommand.
func (h *CompleteSessionHandler) Handle(ctx context.Context, cmd CompleteSessionCommand) (*domain.Session, error) {
	if err := validateStaffTransition(cmd, cmd.Caller); err != nil {
		return nil, err
	}
	return h.run(ctx, "complete", "session completed", cmd.SessionID, cmd.Caller, func(s *domain.Session, now time.Time) error {
		return s.Complete(cmd.Caller, cmd.Notes, now)
	})
}

// AnnotateSessionCommand replaces the notes of a session that was not
// cancelled.
type AnnotateSessionCommand struct {
	Caller    domain.Caller `json:"-" validate:"-"`
	SessionID uuid.UUID     `json:"session_id" validate:"required"`
	Notes     string        `json:"notes" validate:"max=4000"`
}

// AnnotateSessionHandler handles the AnnotateSessionCommand.
type AnnotateSessionHandler struct {
	transitioner
}

// NewAnnotateSessionHandler creates a new AnnotateSessionHandler.
func NewAnnotateSessionHandler(sessions domain.SessionRepository, deps Deps) *AnnotateSessionHandler {
	return &AnnotateSessionHandler{transitioner{sessions: sessions, deps: deps.withDefaults()}}
}

// Handle executes the AnnotateSessionCommand.
func (h *AnnotateSessionHandler) Handle(ctx context.Context, cmd AnnotateSessionCommand) (*domain.Session, error) {
	if err := validateStaffTransition(cmd, cmd.Caller); err != nil {
		return nil, err
	}
	return h.run(ctx, "annotate", "session annotated", cmd.SessionID, cmd.Caller, func(s *domain.Session, now time.Time) error {
		return s.Annotate(cmd.Caller, cmd.Notes, now)
	})
}

func validateTransition(cmd any, caller domain.Caller) error {
	if err := application.Validate(cmd); err != nil {
		return err
	}
	return application.Authenticate(caller)
}

// validateStaffTransition rejects non-staff callers before the session is
// loaded.
func validateStaffTransition(cmd any, caller domain.Caller) error {
	if err := validateTransition(cmd, caller); err != nil {
		return err
	}
	if !caller.IsStaff() {
		return domain.ErrUnauthorized
	}
	return nil
}
