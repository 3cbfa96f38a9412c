package persistence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database/postgres"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/migrations"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupPostgres connects to TEST_DATABASE_URL and skips without it.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	conn, err := postgres.NewConnection(ctx, database.Config{URL: url, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrations.Up(ctx, conn))

	pool := conn.(*postgres.Connection).Pool()
	_, err = pool.Exec(ctx, `TRUNCATE advising_sessions, availability_policies`)
	require.NoError(t, err)
	return pool
}

func TestPostgresSessionRepository(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repo := NewPostgresSessionRepository(pool)
	advisorID := uuid.New()

	s := newSession(t, advisorID, "09:00")
	require.NoError(t, repo.Create(ctx, s))
	assert.ErrorIs(t, repo.Create(ctx, newSession(t, advisorID, "09:00")), domain.ErrSlotTaken)

	found, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "2025-04-01", found.Date().String())
	assert.Equal(t, "10:00", found.EndTime().String())

	require.NoError(t, found.Cancel(domain.Caller{ID: advisorID, Role: domain.RoleAdvisor}, "conflict", time.Now()))
	require.NoError(t, repo.Update(ctx, found))
	assert.ErrorIs(t, repo.Update(ctx, s), domain.ErrConcurrentUpdate)

	taken, err := repo.ExistsScheduled(ctx, advisorID, testDay, s.StartTime())
	require.NoError(t, err)
	assert.False(t, taken)
	require.NoError(t, repo.Create(ctx, newSession(t, advisorID, "09:00")))

	byAdvisor, err := repo.FindByAdvisorID(ctx, advisorID)
	require.NoError(t, err)
	assert.Len(t, byAdvisor, 2)
}

func TestPostgresPolicyRepository(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repo := NewPostgresPolicyRepository(pool)
	staff := domain.Caller{ID: uuid.New(), Role: domain.RoleAdministrator}

	p, err := domain.NewAvailabilityPolicy(nil, false, staff, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))
	require.NoError(t, p.Set(true, staff, time.Now()))
	require.NoError(t, repo.Save(ctx, p))

	global, err := repo.FindGlobal(ctx)
	require.NoError(t, err)
	require.NotNil(t, global)
	assert.True(t, global.Enabled())
	assert.Equal(t, 2, global.Version())

	override, err := repo.FindByAdvisorID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, override)
}
