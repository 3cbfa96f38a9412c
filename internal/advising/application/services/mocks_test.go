package services

import (
	"context"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockPolicyRepo struct {
	mock.Mock
}

func (m *mockPolicyRepo) FindGlobal(ctx context.Context) (*domain.AvailabilityPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AvailabilityPolicy), args.Error(1)
}

func (m *mockPolicyRepo) FindByAdvisorID(ctx context.Context, advisorID uuid.UUID) (*domain.AvailabilityPolicy, error) {
	args := m.Called(ctx, advisorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AvailabilityPolicy), args.Error(1)
}

func (m *mockPolicyRepo) Save(ctx context.Context, policy *domain.AvailabilityPolicy) error {
	return m.Called(ctx, policy).Error(0)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, session *domain.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionRepo) Update(ctx context.Context, session *domain.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepo) ExistsScheduled(ctx context.Context, advisorID uuid.UUID, date domain.Date, start domain.TimeOfDay) (bool, error) {
	args := m.Called(ctx, advisorID, date, start)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionRepo) FindByStudentID(ctx context.Context, studentID uuid.UUID) ([]*domain.Session, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Session), args.Error(1)
}

func (m *mockSessionRepo) FindByAdvisorID(ctx context.Context, advisorID uuid.UUID) ([]*domain.Session, error) {
	args := m.Called(ctx, advisorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Session), args.Error(1)
}
