package persistence

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/migrations"
	sharedPersistence "github.com/felixgeelhaar/advising/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "advising.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrations.Up(ctx, conn))

	return conn.(*sqlite.Connection).DB()
}

var testDay = domain.NewDate(2025, time.April, 1)

func newSession(t *testing.T, advisorID uuid.UUID, start string) *domain.Session {
	t.Helper()
	studentID := uuid.New()
	s, err := domain.NewSession(studentID, advisorID, testDay, start, "Virtual", studentID, time.Now())
	require.NoError(t, err)
	return s
}

func TestSQLiteSessionRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteSessionRepository(setupTestDB(t))
	s := newSession(t, uuid.New(), "09:00")

	require.NoError(t, repo.Create(ctx, s))
	assert.Equal(t, 1, s.Version())

	found, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, s.StudentID(), found.StudentID())
	assert.Equal(t, s.AdvisorID(), found.AdvisorID())
	assert.Equal(t, "2025-04-01", found.Date().String())
	assert.Equal(t, "09:00", found.StartTime().String())
	assert.Equal(t, "10:00", found.EndTime().String())
	assert.Equal(t, "Virtual", found.Location())
	assert.Equal(t, domain.StatusScheduled, found.Status())
	assert.Nil(t, found.CancelledBy())
	assert.Equal(t, 1, found.Version())
	assert.WithinDuration(t, s.CreatedAt(), found.CreatedAt(), time.Millisecond)

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteSessionRepository_LiveSlotExclusivity(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteSessionRepository(setupTestDB(t))
	advisorID := uuid.New()

	first := newSession(t, advisorID, "09:00")
	require.NoError(t, repo.Create(ctx, first))

	taken, err := repo.ExistsScheduled(ctx, advisorID, testDay, first.StartTime())
	require.NoError(t, err)
	assert.True(t, taken)

	second := newSession(t, advisorID, "09:00")
	assert.ErrorIs(t, repo.Create(ctx, second), domain.ErrSlotTaken)

	// another advisor, same time
	require.NoError(t, repo.Create(ctx, newSession(t, uuid.New(), "09:00")))

	// freeing the slot allows a new booking
	require.NoError(t, first.Cancel(domain.Caller{ID: first.StudentID(), Role: domain.RoleStudent}, "conflict", time.Now()))
	require.NoError(t, repo.Update(ctx, first))

	taken, err = repo.ExistsScheduled(ctx, advisorID, testDay, first.StartTime())
	require.NoError(t, err)
	assert.False(t, taken)

	third := newSession(t, advisorID, "09:00")
	require.NoError(t, repo.Create(ctx, third))
}

func TestSQLiteSessionRepository_UpdateIsConditional(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteSessionRepository(setupTestDB(t))
	s := newSession(t, uuid.New(), "13:00")
	require.NoError(t, repo.Create(ctx, s))

	first, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)

	advisor := domain.Caller{ID: s.AdvisorID(), Role: domain.RoleAdvisor}
	require.NoError(t, first.Complete(advisor, "done", time.Now()))
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, 2, first.Version())

	require.NoError(t, second.Cancel(advisor, "too late", time.Now()))
	assert.ErrorIs(t, repo.Update(ctx, second), domain.ErrConcurrentUpdate)

	stored, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status())
	assert.Equal(t, "done", stored.Notes())
	assert.Empty(t, stored.CancellationReason())
}

func TestSQLiteSessionRepository_CancelledRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteSessionRepository(setupTestDB(t))
	s := newSession(t, uuid.New(), "11:00")
	require.NoError(t, repo.Create(ctx, s))

	admin := domain.Caller{ID: uuid.New(), Role: domain.RoleAdministrator}
	require.NoError(t, s.Cancel(admin, "building closed", time.Now()))
	require.NoError(t, repo.Update(ctx, s))

	stored, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status())
	assert.Equal(t, "building closed", stored.CancellationReason())
	require.NotNil(t, stored.CancelledBy())
	assert.Equal(t, admin.ID, *stored.CancelledBy())
}

func TestSQLiteSessionRepository_ListsInOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteSessionRepository(setupTestDB(t))
	studentID := uuid.New()
	advisorID := uuid.New()

	book := func(date domain.Date, start string) *domain.Session {
		s, err := domain.NewSession(studentID, advisorID, date, start, "", studentID, time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, s))
		return s
	}
	later := book(testDay.AddDays(1), "09:00")
	afternoon := book(testDay, "15:00")
	morning := book(testDay, "10:00")

	byStudent, err := repo.FindByStudentID(ctx, studentID)
	require.NoError(t, err)
	require.Len(t, byStudent, 3)
	assert.Equal(t, []uuid.UUID{morning.ID(), afternoon.ID(), later.ID()},
		[]uuid.UUID{byStudent[0].ID(), byStudent[1].ID(), byStudent[2].ID()})

	byAdvisor, err := repo.FindByAdvisorID(ctx, advisorID)
	require.NoError(t, err)
	assert.Len(t, byAdvisor, 3)

	none, err := repo.FindByStudentID(ctx, advisorID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteSessionRepository_JoinsUnitOfWork(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewSQLiteSessionRepository(db)
	uow := sharedPersistence.NewSQLiteUnitOfWork(db)
	s := newSession(t, uuid.New(), "16:00")

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Create(txCtx, s))

	inside, err := repo.FindByID(txCtx, s.ID())
	require.NoError(t, err)
	assert.NotNil(t, inside)

	require.NoError(t, uow.Rollback(txCtx))

	after, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)
	assert.Nil(t, after)
}

func TestSQLitePolicyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLitePolicyRepository(setupTestDB(t))
	staff := domain.Caller{ID: uuid.New(), Role: domain.RoleAdministrator}
	advisorID := uuid.New()

	global, err := repo.FindGlobal(ctx)
	require.NoError(t, err)
	assert.Nil(t, global)

	created, err := domain.NewAvailabilityPolicy(nil, false, staff, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, created))

	global, err = repo.FindGlobal(ctx)
	require.NoError(t, err)
	require.NotNil(t, global)
	assert.False(t, global.Enabled())
	assert.Equal(t, 1, global.Version())
	assert.Nil(t, global.AdvisorID())

	other := domain.Caller{ID: uuid.New(), Role: domain.RoleAdvisor}
	require.NoError(t, global.Set(true, other, time.Now()))
	require.NoError(t, repo.Save(ctx, global))

	global, err = repo.FindGlobal(ctx)
	require.NoError(t, err)
	assert.True(t, global.Enabled())
	assert.Equal(t, 2, global.Version())
	assert.Equal(t, other.ID, global.UpdatedBy())
	assert.Equal(t, created.ID(), global.ID())

	override, err := repo.FindByAdvisorID(ctx, advisorID)
	require.NoError(t, err)
	assert.Nil(t, override)

	p, err := domain.NewAvailabilityPolicy(&advisorID, false, other, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))

	override, err = repo.FindByAdvisorID(ctx, advisorID)
	require.NoError(t, err)
	require.NotNil(t, override)
	assert.Equal(t, domain.ScopeAdvisor, override.Scope())
	require.NotNil(t, override.AdvisorID())
	assert.Equal(t, advisorID, *override.AdvisorID())

	// a second first-write for the same scope replaces the row in place
	again, err := domain.NewAvailabilityPolicy(&advisorID, true, other, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, again))

	override, err = repo.FindByAdvisorID(ctx, advisorID)
	require.NoError(t, err)
	assert.True(t, override.Enabled())
	assert.Equal(t, p.ID(), override.ID())
	assert.Equal(t, 2, override.Version())
}
