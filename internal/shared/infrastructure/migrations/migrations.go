// Package migrations applies the embedded schema with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database/postgres"
	"github.com/felixgeelhaar/advising/internal/shared/infrastructure/database/sqlite"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedded embed.FS

// Migrator runs the migration set matching a connection's driver.
type Migrator struct {
	provider *goose.Provider
	db       *sql.DB
	ownsDB   bool
}

// NewMigrator prepares a goose provider for conn.
func NewMigrator(conn database.Connection) (*Migrator, error) {
	var (
		db      *sql.DB
		ownsDB  bool
		dialect goose.Dialect
		dir     string
	)

	switch c := conn.(type) {
	case *postgres.Connection:
		// goose needs database/sql; this handle borrows the pgx pool.
		db, ownsDB, dialect, dir = stdlib.OpenDBFromPool(c.Pool()), true, goose.DialectPostgres, "postgres"
	case *sqlite.Connection:
		db, dialect, dir = c.DB(), goose.DialectSQLite3, "sqlite"
	default:
		return nil, fmt.Errorf("migrations: unsupported connection %T", conn)
	}

	fsys, err := fs.Sub(embedded, dir)
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		if ownsDB {
			_ = db.Close()
		}
		return nil, fmt.Errorf("create goose provider: %w", err)
	}

	return &Migrator{provider: provider, db: db, ownsDB: ownsDB}, nil
}

// Up applies pending migrations and returns the versions applied.
func (m *Migrator) Up(ctx context.Context) ([]int64, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	versions := make([]int64, 0, len(results))
	for _, r := range results {
		versions = append(versions, r.Source.Version)
	}
	return versions, nil
}

// Version returns the highest applied migration.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// MigrationStatus describes one migration file.
type MigrationStatus struct {
	Version int64
	Name    string
	Applied bool
}

// Status lists every known migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version: s.Source.Version,
			Name:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

// Close releases the database/sql handle when the migrator opened it.
func (m *Migrator) Close() error {
	if m.ownsDB {
		return m.db.Close()
	}
	return nil
}

// Up migrates conn to the latest schema.
func Up(ctx context.Context, conn database.Connection) error {
	m, err := NewMigrator(conn)
	if err != nil {
		return err
	}
	defer m.Close()

	_, err = m.Up(ctx)
	return err
}
