package app

import (
	"database/sql"
	"fmt"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	advisingPersistence "github.com/felixgeelhaar/advising/internal/advising/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/advising/internal/shared/application"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/advising/internal/shared/infrastructure/persistence"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// SessionRepository creates a session repository for the configured driver.
func (f *RepositoryFactory) SessionRepository() (domain.SessionRepository, error) {
	return forDriver(f,
		func(pool *pgxpool.Pool) domain.SessionRepository {
			return advisingPersistence.NewPostgresSessionRepository(pool)
		},
		func(db *sql.DB) domain.SessionRepository {
			return advisingPersistence.NewSQLiteSessionRepository(db)
		},
	)
}

// PolicyRepository creates an availability policy repository for the
// configured driver.
func (f *RepositoryFactory) PolicyRepository() (domain.PolicyRepository, error) {
	return forDriver(f,
		func(pool *pgxpool.Pool) domain.PolicyRepository {
			return advisingPersistence.NewPostgresPolicyRepository(pool)
		},
		func(db *sql.DB) domain.PolicyRepository {
			return advisingPersistence.NewSQLitePolicyRepository(db)
		},
	)
}

// OutboxRepository creates an outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	return forDriver(f,
		func(pool *pgxpool.Pool) outbox.Repository { return outbox.NewPostgresRepository(pool) },
		func(db *sql.DB) outbox.Repository { return outbox.NewSQLiteRepository(db) },
	)
}

// UnitOfWork creates the transaction boundary the repositories join.
func (f *RepositoryFactory) UnitOfWork() (sharedApplication.UnitOfWork, error) {
	return forDriver(f,
		func(pool *pgxpool.Pool) sharedApplication.UnitOfWork {
			return sharedPersistence.NewPostgresUnitOfWork(pool)
		},
		func(db *sql.DB) sharedApplication.UnitOfWork {
			return sharedPersistence.NewSQLiteUnitOfWork(db)
		},
	)
}

// forDriver picks the constructor matching the connection's driver and
// hands it the driver's native handle.
func forDriver[T any](f *RepositoryFactory, postgres func(*pgxpool.Pool) T, sqlite func(*sql.DB) T) (T, error) {
	var zero T

	switch f.driver {
	case database.DriverPostgres:
		conn, ok := f.conn.(interface{ Pool() *pgxpool.Pool })
		if !ok {
			return zero, fmt.Errorf("%s connection does not expose a pool", f.driver)
		}
		return postgres(conn.Pool()), nil

	case database.DriverSQLite:
		conn, ok := f.conn.(interface{ DB() *sql.DB })
		if !ok {
			return zero, fmt.Errorf("%s connection does not expose a database handle", f.driver)
		}
		return sqlite(conn.DB()), nil

	default:
		return zero, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
