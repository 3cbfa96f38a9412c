package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSetAvailabilityHandler_Handle(t *testing.T) {
	admin := domain.Caller{ID: uuid.New(), Role: domain.RoleAdministrator}

	newHandler := func() (*SetAvailabilityHandler, *mockPolicyRepo, *mockOutboxRepo, *mockUnitOfWork) {
		policies := new(mockPolicyRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		h := NewSetAvailabilityHandler(policies, Deps{
			UnitOfWork: uow,
			Outbox:     outboxRepo,
			Clock:      func() time.Time { return fixedNow },
		})
		return h, policies, outboxRepo, uow
	}

	t.Run("first global write creates the policy", func(t *testing.T) {
		h, policies, outboxRepo, uow := newHandler()
		uow.expectCommit()
		policies.On("FindGlobal", txContext).Return(nil, nil)
		policies.On("Save", txContext, mock.AnythingOfType("*domain.AvailabilityPolicy")).Return(nil)
		outboxRepo.On("SaveBatch", txContext, eventsWith(domain.RoutingKeyAvailabilityChanged)).Return(nil)

		p, err := h.Handle(context.Background(), SetAvailabilityCommand{Caller: admin, Enabled: false})

		require.NoError(t, err)
		assert.Equal(t, domain.ScopeGlobal, p.Scope())
		assert.False(t, p.Enabled())
		assert.Equal(t, admin.ID, p.UpdatedBy())
		policies.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
		uow.AssertExpectations(t)
	})

	t.Run("advisor write replaces the existing override", func(t *testing.T) {
		h, policies, outboxRepo, uow := newHandler()
		advisorID := uuid.New()
		existing := policyFor(t, &advisorID, true)
		advisor := domain.Caller{ID: advisorID, Role: domain.RoleAdvisor}

		uow.expectCommit()
		policies.On("FindByAdvisorID", txContext, advisorID).Return(existing, nil)
		policies.On("Save", txContext, existing).Return(nil)
		outboxRepo.On("SaveBatch", txContext, eventsWith(domain.RoutingKeyAvailabilityChanged)).Return(nil)

		p, err := h.Handle(context.Background(), SetAvailabilityCommand{Caller: advisor, AdvisorID: &advisorID, Enabled: false})

		require.NoError(t, err)
		assert.Same(t, existing, p)
		assert.False(t, p.Enabled())
		assert.Equal(t, existing.ID(), p.ID())
	})

	t.Run("students never write availability", func(t *testing.T) {
		h, _, _, uow := newHandler()

		_, err := h.Handle(context.Background(), SetAvailabilityCommand{
			Caller:  domain.Caller{ID: uuid.New(), Role: domain.RoleStudent},
			Enabled: true,
		})

		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("nil advisor id", func(t *testing.T) {
		h, _, _, _ := newHandler()
		nilID := uuid.Nil

		_, err := h.Handle(context.Background(), SetAvailabilityCommand{Caller: admin, AdvisorID: &nilID})

		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("save failure rolls back", func(t *testing.T) {
		h, policies, _, uow := newHandler()
		uow.expectRollback()
		policies.On("FindGlobal", txContext).Return(nil, nil)
		policies.On("Save", txContext, mock.Anything).Return(errors.New("read-only transaction"))

		_, err := h.Handle(context.Background(), SetAvailabilityCommand{Caller: admin, Enabled: true})

		assert.ErrorIs(t, err, domain.ErrStoreFailure)
		uow.AssertExpectations(t)
	})
}
