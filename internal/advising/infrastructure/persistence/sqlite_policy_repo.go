package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	sharedPersistence "github.com/felixgeelhaar/advising/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLitePolicyRepository implements domain.PolicyRepository for local mode.
type SQLitePolicyRepository struct {
	db *sql.DB
}

// NewSQLitePolicyRepository creates a new SQLite policy repository.
func NewSQLitePolicyRepository(db *sql.DB) *SQLitePolicyRepository {
	return &SQLitePolicyRepository{db: db}
}

func (r *SQLitePolicyRepository) FindGlobal(ctx context.Context) (*domain.AvailabilityPolicy, error) {
	return r.findByScopeKey(ctx, domain.ScopeKey(nil))
}

func (r *SQLitePolicyRepository) FindByAdvisorID(ctx context.Context, advisorID uuid.UUID) (*domain.AvailabilityPolicy, error) {
	return r.findByScopeKey(ctx, domain.ScopeKey(&advisorID))
}

// Save upserts on the scope key. The stored id stays that of the first
// write for the scope.
func (r *SQLitePolicyRepository) Save(ctx context.Context, p *domain.AvailabilityPolicy) error {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO availability_policies (
			id, scope, advisor_id, scope_key, enabled, version, updated_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)
		ON CONFLICT (scope_key) DO UPDATE SET
			enabled = excluded.enabled,
			updated_by = excluded.updated_by,
			updated_at = excluded.updated_at,
			version = availability_policies.version + 1`,
		p.ID().String(),
		string(p.Scope()),
		nullUUID(p.AdvisorID()),
		p.ScopeKey(),
		p.Enabled(),
		p.UpdatedBy().String(),
		sharedPersistence.FormatSQLiteTime(p.CreatedAt()),
		sharedPersistence.FormatSQLiteTime(p.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("upsert policy %s: %w", p.ScopeKey(), err)
	}
	p.IncrementVersion()
	return nil
}

func (r *SQLitePolicyRepository) findByScopeKey(ctx context.Context, key string) (*domain.AvailabilityPolicy, error) {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	var (
		snap             domain.PolicySnapshot
		id, scope        string
		updatedBy        string
		created, updated string
		advisorID        sql.NullString
	)
	err := exec.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM availability_policies WHERE scope_key = ?`, key,
	).Scan(&id, &scope, &advisorID, &snap.Enabled, &snap.Version, &updatedBy, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap.Scope = domain.Scope(scope)
	if snap.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("policy %s id: %w", key, err)
	}
	if snap.AdvisorID, err = parseNullUUID(advisorID); err != nil {
		return nil, fmt.Errorf("policy %s advisor_id: %w", key, err)
	}
	if snap.UpdatedBy, err = uuid.Parse(updatedBy); err != nil {
		return nil, fmt.Errorf("policy %s updated_by: %w", key, err)
	}
	if snap.CreatedAt, err = sharedPersistence.ParseSQLiteTime(created); err != nil {
		return nil, err
	}
	if snap.UpdatedAt, err = sharedPersistence.ParseSQLiteTime(updated); err != nil {
		return nil, err
	}
	return domain.RehydrateAvailabilityPolicy(snap), nil
}
