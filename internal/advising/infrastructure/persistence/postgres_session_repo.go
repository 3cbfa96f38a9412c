package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database"
	sharedPersistence "github.com/felixgeelhaar/advising/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSessionRepository implements domain.SessionRepository using
// PostgreSQL.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionRepository creates a new PostgreSQL session repository.
func NewPostgresSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// Create inserts the session. The live-slot index turns a concurrent
// booking of the same advisor slot into ErrSlotTaken.
func (r *PostgresSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	exec := sharedPersistence.Executor(ctx, r.pool)
	_, err := exec.Exec(ctx, `
		INSERT INTO advising_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13)`,
		s.ID(),
		s.StudentID(),
		s.AdvisorID(),
		s.Date().Time(),
		s.StartTime().String(),
		s.EndTime().String(),
		s.Location(),
		string(s.Status()),
		s.Notes(),
		nullableReason(s),
		s.CancelledBy(),
		s.CreatedAt(),
		s.UpdatedAt(),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrSlotTaken
		}
		return fmt.Errorf("insert session: %w", err)
	}
	s.IncrementVersion()
	return nil
}

// Update writes the session if nobody else did since it was loaded.
func (r *PostgresSessionRepository) Update(ctx context.Context, s *domain.Session) error {
	exec := sharedPersistence.Executor(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
		UPDATE advising_sessions
		SET status = $1, notes = $2, cancellation_reason = $3, cancelled_by = $4,
		    updated_at = $5, version = version + 1
		WHERE id = $6 AND version = $7`,
		string(s.Status()),
		s.Notes(),
		nullableReason(s),
		s.CancelledBy(),
		s.UpdatedAt(),
		s.ID(),
		s.Version(),
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentUpdate
	}
	s.IncrementVersion()
	return nil
}

// FindByID retrieves a session by its ID.
func (r *PostgresSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	rows, err := exec.Query(ctx, `SELECT `+sessionColumns+` FROM advising_sessions WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	sessions, err := scanPostgresSessions(rows)
	if err != nil || len(sessions) == 0 {
		return nil, err
	}
	return sessions[0], nil
}

func (r *PostgresSessionRepository) ExistsScheduled(ctx context.Context, advisorID uuid.UUID, date domain.Date, start domain.TimeOfDay) (bool, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	var exists bool
	err := exec.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM advising_sessions
			WHERE advisor_id = $1 AND session_date = $2 AND start_time = $3 AND status = 'scheduled'
		)`,
		advisorID, date.Time(), start.String(),
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresSessionRepository) FindByStudentID(ctx context.Context, studentID uuid.UUID) ([]*domain.Session, error) {
	return r.list(ctx, "student_id", studentID)
}

func (r *PostgresSessionRepository) FindByAdvisorID(ctx context.Context, advisorID uuid.UUID) ([]*domain.Session, error) {
	return r.list(ctx, "advisor_id", advisorID)
}

func (r *PostgresSessionRepository) list(ctx context.Context, column string, id uuid.UUID) ([]*domain.Session, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	rows, err := exec.Query(ctx, `
		SELECT `+sessionColumns+` FROM advising_sessions
		WHERE `+column+` = $1
		ORDER BY session_date, start_time`,
		id,
	)
	if err != nil {
		return nil, err
	}
	return scanPostgresSessions(rows)
}

func scanPostgresSessions(rows pgx.Rows) ([]*domain.Session, error) {
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		var (
			row  sessionRow
			date time.Time
		)
		if err := rows.Scan(
			&row.ID, &row.StudentID, &row.AdvisorID, &date, &row.StartTime, &row.EndTime, &row.Location,
			&row.Status, &row.Notes, &row.CancellationReason, &row.CancelledBy, &row.Version,
			&row.CreatedAt, &row.UpdatedAt,
		); err != nil {
			return nil, err
		}
		row.Date = domain.DateOf(date)

		session, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// PostgresPolicyRepository implements domain.PolicyRepository using
// PostgreSQL.
type PostgresPolicyRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPolicyRepository creates a new PostgreSQL policy repository.
func NewPostgresPolicyRepository(pool *pgxpool.Pool) *PostgresPolicyRepository {
	return &PostgresPolicyRepository{pool: pool}
}

func (r *PostgresPolicyRepository) FindGlobal(ctx context.Context) (*domain.AvailabilityPolicy, error) {
	return r.findByScopeKey(ctx, domain.ScopeKey(nil))
}

func (r *PostgresPolicyRepository) FindByAdvisorID(ctx context.Context, advisorID uuid.UUID) (*domain.AvailabilityPolicy, error) {
	return r.findByScopeKey(ctx, domain.ScopeKey(&advisorID))
}

// Save upserts on the scope key and bumps the stored version.
func (r *PostgresPolicyRepository) Save(ctx context.Context, p *domain.AvailabilityPolicy) error {
	exec := sharedPersistence.Executor(ctx, r.pool)
	_, err := exec.Exec(ctx, `
		INSERT INTO availability_policies (
			id, scope, advisor_id, scope_key, enabled, version, updated_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, 1, $6, $7, $8)
		ON CONFLICT (scope_key) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at,
			version = availability_policies.version + 1`,
		p.ID(),
		string(p.Scope()),
		p.AdvisorID(),
		p.ScopeKey(),
		p.Enabled(),
		p.UpdatedBy(),
		p.CreatedAt(),
		p.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("upsert policy %s: %w", p.ScopeKey(), err)
	}
	p.IncrementVersion()
	return nil
}

func (r *PostgresPolicyRepository) findByScopeKey(ctx context.Context, key string) (*domain.AvailabilityPolicy, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	var (
		snap  domain.PolicySnapshot
		scope string
	)
	err := exec.QueryRow(ctx,
		`SELECT `+policyColumns+` FROM availability_policies WHERE scope_key = $1`, key,
	).Scan(&snap.ID, &scope, &snap.AdvisorID, &snap.Enabled, &snap.Version, &snap.UpdatedBy, &snap.CreatedAt, &snap.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap.Scope = domain.Scope(scope)
	return domain.RehydrateAvailabilityPolicy(snap), nil
}
