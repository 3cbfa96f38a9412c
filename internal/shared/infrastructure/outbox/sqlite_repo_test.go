package outbox

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/migrations"
	sharedPersistence "github.com/felixgeelhaar/advising/internal/shared/infrastructure/persistence"
)

func newSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "outbox.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrations.Up(ctx, conn))

	return conn.(*sqlite.Connection).DB()
}

func TestSQLiteRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(newSQLiteDB(t))
	msgs := seed(t, repo, 3)

	assert.NotZero(t, msgs[0].ID)
	assert.Less(t, msgs[0].ID, msgs[1].ID)

	unpublished, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unpublished, 3)
	assert.Equal(t, msgs[0].EventID, unpublished[0].EventID)
	assert.Equal(t, msgs[0].AggregateID, unpublished[0].AggregateID)
	assert.JSONEq(t, string(msgs[0].Payload), string(unpublished[0].Payload))
	assert.Equal(t, msgs[0].EventMetadata(), unpublished[0].EventMetadata())
	assert.True(t, msgs[0].CreatedAt.Equal(unpublished[0].CreatedAt))

	require.NoError(t, repo.MarkPublished(ctx, msgs[0].ID))
	require.NoError(t, repo.MarkFailed(ctx, msgs[1].ID, "broker down", time.Now().Add(time.Hour)))
	require.NoError(t, repo.MarkDead(ctx, msgs[2].ID, "rejected"))

	unpublished, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, unpublished)

	pending, err := repo.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)
	require.NotNil(t, pending.Oldest)

	// A failed message becomes eligible again once its retry time passes.
	repo.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	unpublished, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unpublished, 1)
	assert.Equal(t, 1, unpublished[0].RetryCount)
	require.NotNil(t, unpublished[0].LastError)
	assert.Equal(t, "broker down", *unpublished[0].LastError)
}

func TestSQLiteRepository_SaveBatchJoinsTransaction(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewSQLiteRepository(db)
	uow := sharedPersistence.NewSQLiteUnitOfWork(db)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	seed(t, &txRepo{repo: repo, ctx: txCtx}, 2)
	require.NoError(t, uow.Rollback(txCtx))

	pending, err := repo.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestSQLiteRepository_DeleteOld(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(newSQLiteDB(t))
	msgs := seed(t, repo, 2)

	repo.now = func() time.Time { return time.Now().AddDate(0, 0, -30) }
	require.NoError(t, repo.MarkPublished(ctx, msgs[0].ID))
	repo.now = time.Now
	require.NoError(t, repo.MarkPublished(ctx, msgs[1].ID))

	deleted, err := repo.DeleteOld(ctx, 14)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

// txRepo pins SaveBatch to a transaction context so seed can be reused.
type txRepo struct {
	Repository
	repo *SQLiteRepository
	ctx  context.Context
}

func (r *txRepo) SaveBatch(_ context.Context, msgs []*Message) error {
	return r.repo.SaveBatch(r.ctx, msgs)
}
