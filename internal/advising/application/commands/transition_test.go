package commands

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/felixgeelhaar/advising/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type transitionFixture struct {
	sessions    *mockSessionRepo
	outbox      *mockOutboxRepo
	uow         *mockUnitOfWork
	invalidator *mockInvalidator
	metrics     *observability.InMemoryMetrics
	deps        Deps
}

func newTransitionFixture() *transitionFixture {
	f := &transitionFixture{
		sessions:    new(mockSessionRepo),
		outbox:      new(mockOutboxRepo),
		uow:         new(mockUnitOfWork),
		invalidator: new(mockInvalidator),
		metrics:     observability.NewInMemoryMetrics(),
	}
	f.deps = Deps{
		UnitOfWork:  f.uow,
		Outbox:      f.outbox,
		Invalidator: f.invalidator,
		Metrics:     f.metrics,
		Clock:       func() time.Time { return fixedNow },
	}
	return f
}

// expectWrite sets up a successful load, update and event write.
func (f *transitionFixture) expectWrite(session *domain.Session, routingKey string) {
	f.uow.expectCommit()
	f.sessions.On("FindByID", txContext, session.ID()).Return(session, nil)
	f.sessions.On("Update", txContext, session).Return(nil)
	f.outbox.On("SaveBatch", txContext, eventsWith(routingKey)).Return(nil)
	f.invalidator.On("Invalidate", mock.Anything, []uuid.UUID{session.StudentID(), session.AdvisorID()}).Return(nil)
}

func scheduledSession(t *testing.T) *domain.Session {
	t.Helper()
	studentID := uuid.New()
	s, err := domain.NewSession(studentID, uuid.New(), domain.NewDate(2025, time.April, 1), "09:00", "", studentID, fixedNow.Add(-time.Hour))
	require.NoError(t, err)
	s.ClearDomainEvents()
	return s
}

func TestCancelSessionHandler_Handle(t *testing.T) {
	t.Run("advisor cancels with a reason", func(t *testing.T) {
		f := newTransitionFixture()
		session := scheduledSession(t)
		f.expectWrite(session, domain.RoutingKeySessionCancelled)

		got, err := NewCancelSessionHandler(f.sessions, f.deps).Handle(context.Background(), CancelSessionCommand{
			Caller:    domain.Caller{ID: session.AdvisorID(), Role: domain.RoleAdvisor},
			SessionID: session.ID(),
			Reason:    "conflict",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, got.Status())
		assert.Equal(t, "conflict", got.CancellationReason())
		assert.Equal(t, fixedNow, got.UpdatedAt())
		assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricTransitions,
			observability.T("transition", "cancel"), observability.T("outcome", "ok")))
		f.uow.AssertExpectations(t)
		f.sessions.AssertExpectations(t)
		f.outbox.AssertExpectations(t)
		f.invalidator.AssertExpectations(t)
	})

	t.Run("missing session", func(t *testing.T) {
		f := newTransitionFixture()
		id := uuid.New()
		f.uow.expectRollback()
		f.sessions.On("FindByID", txContext, id).Return(nil, nil)

		_, err := NewCancelSessionHandler(f.sessions, f.deps).Handle(context.Background(), CancelSessionCommand{
			Caller:    domain.Caller{ID: uuid.New(), Role: domain.RoleStudent},
			SessionID: id,
			Reason:    "x",
		})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("stranger is unauthorized even without a reason", func(t *testing.T) {
		f := newTransitionFixture()
		session := scheduledSession(t)
		f.uow.expectRollback()
		f.sessions.On("FindByID", txContext, session.ID()).Return(session, nil)

		_, err := NewCancelSessionHandler(f.sessions, f.deps).Handle(context.Background(), CancelSessionCommand{
			Caller:    domain.Caller{ID: uuid.New(), Role: domain.RoleStudent},
			SessionID: session.ID(),
		})

		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		f.sessions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("participant without a reason", func(t *testing.T) {
		f := newTransitionFixture()
		session := scheduledSession(t)
		f.uow.expectRollback()
		f.sessions.On("FindByID", txContext, session.ID()).Return(session, nil)

		_, err := NewCancelSessionHandler(f.sessions, f.deps).Handle(context.Background(), CancelSessionCommand{
			Caller:    domain.Caller{ID: session.StudentID(), Role: domain.RoleStudent},
			SessionID: session.ID(),
			Reason:    " ",
		})

		assert.ErrorIs(t, err, domain.ErrMissingReason)
	})

	t.Run("lost race reports concurrent update", func(t *testing.T) {
		f := newTransitionFixture()
		session := scheduledSession(t)
		f.uow.expectRollback()
		f.sessions.On("FindByID", txContext, session.ID()).Return(session, nil)
		f.sessions.On("Update", txContext, session).Return(domain.ErrConcurrentUpdate)

		_, err := NewCancelSessionHandler(f.sessions, f.deps).Handle(context.Background(), CancelSessionCommand{
			Caller:    domain.Caller{ID: session.StudentID(), Role: domain.RoleStudent},
			SessionID: session.ID(),
			Reason:    "sick",
		})

		assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
		f.outbox.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	})
}

func TestCompleteSessionHandler_Handle(t *testing.T) {
	t.Run("administrator completes with notes", func(t *testing.T) {
		f := newTransitionFixture()
		session := scheduledSession(t)
		f.expectWrite(session, domain.RoutingKeySessionCompleted)

		got, err := NewCompleteSessionHandler(f.sessions, f.deps).Handle(context.Background(), CompleteSessionCommand{
			Caller:    domain.Caller{ID: uuid.New(), Role: domain.RoleAdministrator},
			SessionID: session.ID(),
			Notes:     "resume reviewed",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, got.Status())
		assert.Equal(t, "resume reviewed", got.Notes())
	})

	t.Run("student is rejected before the store", func(t *testing.T) {
		f := newTransitionFixture()

		_, err := NewCompleteSessionHandler(f.sessions, f.deps).Handle(context.Background(), CompleteSessionCommand{
			Caller:    domain.Caller{ID: uuid.New(), Role: domain.RoleStudent},
			SessionID: uuid.New(),
		})

		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		f.uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("cancelled session cannot be completed", func(t *testing.T) {
		f := newTransitionFixture()
		session := scheduledSession(t)
		require.NoError(t, session.Cancel(domain.Caller{ID: session.StudentID(), Role: domain.RoleStudent}, "sick", fixedNow))
		f.uow.expectRollback()
		f.sessions.On("FindByID", txContext, session.ID()).Return(session, nil)

		_, err := NewCompleteSessionHandler(f.sessions, f.deps).Handle(context.Background(), CompleteSessionCommand{
			Caller:    domain.Caller{ID: uuid.New(), Role: domain.RoleAdministrator},
			SessionID: session.ID(),
		})

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, domain.StatusCancelled, session.Status())
	})

	t.Run("missing session id", func(t *testing.T) {
		f := newTransitionFixture()

		_, err := NewCompleteSessionHandler(f.sessions, f.deps).Handle(context.Background(), CompleteSessionCommand{
			Caller: domain.Caller{ID: uuid.New(), Role: domain.RoleAdvisor},
		})

		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}

func TestAnnotateSessionHandler_Handle(t *testing.T) {
	t.Run("advisor annotates a completed session", func(t *testing.T) {
		f := newTransitionFixture()
		session := scheduledSession(t)
		advisor := domain.Caller{ID: session.AdvisorID(), Role: domain.RoleAdvisor}
		require.NoError(t, session.Complete(advisor, "", fixedNow))
		session.ClearDomainEvents()
		f.expectWrite(session, domain.RoutingKeySessionAnnotated)

		got, err := NewAnnotateSessionHandler(f.sessions, f.deps).Handle(context.Background(), AnnotateSessionCommand{
			Caller:    advisor,
			SessionID: session.ID(),
			Notes:     "send internship list",
		})

		require.NoError(t, err)
		assert.Equal(t, "send internship list", got.Notes())
		assert.Equal(t, domain.StatusCompleted, got.Status())
	})

	t.Run("notes over the limit", func(t *testing.T) {
		f := newTransitionFixture()
		long := make([]byte, 4001)
		for i := range long {
			long[i] = 'n'
		}

		_, err := NewAnnotateSessionHandler(f.sessions, f.deps).Handle(context.Background(), AnnotateSessionCommand{
			Caller:    domain.Caller{ID: uuid.New(), Role: domain.RoleAdvisor},
			SessionID: uuid.New(),
			Notes:     string(long),
		})

		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}
