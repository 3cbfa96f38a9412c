package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database"
	sharedPersistence "github.com/felixgeelhaar/advising/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLiteSessionRepository implements domain.SessionRepository for local
// mode. Dates are stored as YYYY-MM-DD and instants in
// persistence.SQLiteTimeLayout.
type SQLiteSessionRepository struct {
	db *sql.DB
}

// NewSQLiteSessionRepository creates a new SQLite session repository.
func NewSQLiteSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

func (r *SQLiteSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO advising_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		s.ID().String(),
		s.StudentID().String(),
		s.AdvisorID().String(),
		s.Date().String(),
		s.StartTime().String(),
		s.EndTime().String(),
		s.Location(),
		string(s.Status()),
		s.Notes(),
		nullableReason(s),
		nullUUID(s.CancelledBy()),
		sharedPersistence.FormatSQLiteTime(s.CreatedAt()),
		sharedPersistence.FormatSQLiteTime(s.UpdatedAt()),
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

func (r *SQLiteSessionRepository) Update(ctx context.Context, s *domain.Session) error {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE advising_sessions
		SET status = ?, notes = ?, cancellation_reason = ?, cancelled_by = ?,
		    updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		string(s.Status()),
		s.Notes(),
		nullableReason(s),
		nullUUID(s.CancelledBy()),
		sharedPersistence.FormatSQLiteTime(s.UpdatedAt()),
		s.ID().String(),
		s.Version(),
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrConcurrentUpdate
	}
	s.IncrementVersion()
	return nil
}

func (r *SQLiteSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `SELECT `+sessionColumns+` FROM advising_sessions WHERE id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	sessions, err := scanSQLiteSessions(rows)
	if err != nil || len(sessions) == 0 {
		return nil, err
	}
	return sessions[0], nil
}

func (r *SQLiteSessionRepository) ExistsScheduled(ctx context.Context, advisorID uuid.UUID, date domain.Date, start domain.TimeOfDay) (bool, error) {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)
	var one int
	err := exec.QueryRowContext(ctx, `
		SELECT 1 FROM advising_sessions
		WHERE advisor_id = ? AND session_date = ? AND start_time = ? AND status = 'scheduled'
		LIMIT 1`,
		advisorID.String(), date.String(), start.String(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *SQLiteSessionRepository) FindByStudentID(ctx context.Context, studentID uuid.UUID) ([]*domain.Session, error) {
	return r.list(ctx, "student_id", studentID)
}

func (r *SQLiteSessionRepository) FindByAdvisorID(ctx context.Context, advisorID uuid.UUID) ([]*domain.Session, error) {
	return r.list(ctx, "advisor_id", advisorID)
}

// list filters on a fixed column name, never on caller input.
func (r *SQLiteSessionRepository) list(ctx context.Context, column string, id uuid.UUID) ([]*domain.Session, error) {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM advising_sessions
		WHERE `+column+` = ?
		ORDER BY session_date, start_time`,
		id.String(),
	)
	if err != nil {
		return nil, err
	}
	return scanSQLiteSessions(rows)
}

func scanSQLiteSessions(rows *sql.Rows) ([]*domain.Session, error) {
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		var (
			row                            sessionRow
			id, studentID, advisorID, date string
			created, updated               string
			reason, cancelledBy            sql.NullString
		)
		if err := rows.Scan(
			&id, &studentID, &advisorID, &date, &row.StartTime, &row.EndTime, &row.Location,
			&row.Status, &row.Notes, &reason, &cancelledBy, &row.Version, &created, &updated,
		); err != nil {
			return nil, err
		}

		var err error
		if row.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("session id: %w", err)
		}
		if row.StudentID, err = uuid.Parse(studentID); err != nil {
			return nil, fmt.Errorf("session %s student_id: %w", id, err)
		}
		if row.AdvisorID, err = uuid.Parse(advisorID); err != nil {
			return nil, fmt.Errorf("session %s advisor_id: %w", id, err)
		}
		if row.Date, err = domain.ParseDate(date); err != nil {
			return nil, fmt.Errorf("session %s: %w", id, err)
		}
		if row.CancelledBy, err = parseNullUUID(cancelledBy); err != nil {
			return nil, fmt.Errorf("session %s cancelled_by: %w", id, err)
		}
		if reason.Valid {
			row.CancellationReason = &reason.String
		}
		if row.CreatedAt, err = sharedPersistence.ParseSQLiteTime(created); err != nil {
			return nil, err
		}
		if row.UpdatedAt, err = sharedPersistence.ParseSQLiteTime(updated); err != nil {
			return nil, err
		}

		session, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func nullUUID(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func parseNullUUID(s sql.NullString) (*uuid.UUID, error) {
	if !s.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
