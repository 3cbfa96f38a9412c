package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unknownConnection reports a driver no factory method supports.
type unknownConnection struct{}

func (unknownConnection) Ping(context.Context) error { return nil }
func (unknownConnection) Close() error               { return nil }
func (unknownConnection) Driver() database.Driver    { return "oracle" }

// setupTestConnection opens a migrated SQLite database in a temp dir.
func setupTestConnection(t *testing.T) database.Connection {
	t.Helper()

	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{
		SQLitePath: filepath.Join(t.TempDir(), "factory.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, migrations.Up(ctx, conn))
	return conn
}

func TestRepositoryFactory_SQLite(t *testing.T) {
	conn := setupTestConnection(t)
	factory := NewRepositoryFactory(conn)

	sessions, err := factory.SessionRepository()
	require.NoError(t, err)
	policies, err := factory.PolicyRepository()
	require.NoError(t, err)
	outboxRepo, err := factory.OutboxRepository()
	require.NoError(t, err)
	uow, err := factory.UnitOfWork()
	require.NoError(t, err)
	require.NotNil(t, outboxRepo)
	require.NotNil(t, uow)

	ctx := context.Background()
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	student, advisor := uuid.New(), uuid.New()

	session, err := domain.NewSession(student, advisor, domain.NewDate(2025, time.April, 1), "09:00", "", student, now)
	require.NoError(t, err)
	require.NoError(t, sessions.Create(ctx, session))

	found, err := sessions.FindByID(ctx, session.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "10:00", found.EndTime().String())

	admin := domain.Caller{ID: uuid.New(), Role: domain.RoleAdministrator}
	policy, err := domain.NewAvailabilityPolicy(nil, false, admin, now)
	require.NoError(t, err)
	require.NoError(t, policies.Save(ctx, policy))

	global, err := policies.FindGlobal(ctx)
	require.NoError(t, err)
	require.NotNil(t, global)
	assert.False(t, global.Enabled())
}

func TestRepositoryFactory_UnsupportedDriver(t *testing.T) {
	factory := NewRepositoryFactory(unknownConnection{})

	_, err := factory.SessionRepository()
	assert.Error(t, err)
	_, err = factory.PolicyRepository()
	assert.Error(t, err)
	_, err = factory.OutboxRepository()
	assert.Error(t, err)
	_, err = factory.UnitOfWork()
	assert.Error(t, err)
}

func TestRepositoryFactory_Driver(t *testing.T) {
	conn := setupTestConnection(t)
	factory := NewRepositoryFactory(conn)

	assert.Equal(t, database.DriverSQLite, factory.Driver())
	assert.Equal(t, conn, factory.Connection())
}
