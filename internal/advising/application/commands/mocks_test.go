package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type txKey struct{}

// txContext is what the mock unit of work hands to the repositories.
var txContext = context.WithValue(context.Background(), txKey{}, "transaction")

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

type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	return m.Called(ctx, id, errMsg, nextRetryAt).Error(0)
}

func (m *mockOutboxRepo) MarkDead(ctx context.Context, id int64, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOutboxRepo) Pending(ctx context.Context) (outbox.PendingStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(outbox.PendingStats), args.Error(1)
}

// mockUnitOfWork is a mock implementation of UnitOfWork. Handlers begin the
// unit of work with a span context, so Begin is matched with mock.Anything.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) expectCommit() {
	m.On("Begin", mock.Anything).Return(txContext, nil)
	m.On("Commit", txContext).Return(nil)
}

func (m *mockUnitOfWork) expectRollback() {
	m.On("Begin", mock.Anything).Return(txContext, nil)
	m.On("Rollback", txContext).Return(nil)
}

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) Invalidate(ctx context.Context, userIDs ...uuid.UUID) error {
	return m.Called(ctx, userIDs).Error(0)
}

// eventsWith matches an outbox batch carrying exactly the given routing keys.
func eventsWith(keys ...string) any {
	return mock.MatchedBy(func(msgs []*outbox.Message) bool {
		if len(msgs) != len(keys) {
			return false
		}
		for i, msg := range msgs {
			if msg.RoutingKey != keys[i] {
				return false
			}
		}
		return true
	})
}
