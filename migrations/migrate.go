package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

const (
	migrationsTable = "schema_migrations"

	pgOverlapConstraint = "booked_appointments_no_overlap"
	sqliteStartIndex    = "booked_appointments_active_start_uniq"
)

var errGuardMissing = errors.New("double-booking guard missing")

type migrator interface {
	ensureTable(ctx context.Context) error
	isApplied(ctx context.Context, name string) (bool, error)
	apply(ctx context.Context, name, script string) error
	// verify checks that the double-booking guard is in place.
	verify(ctx context.Context) error
}

// UpPostgres applies the embedded Postgres migrations that have not run yet.
func UpPostgres(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("pool is required")
	}
	return up(ctx, pgMigrator{pool: pool}, "postgres")
}

// UpSQLite applies the embedded SQLite migrations that have not run yet.
func UpSQLite(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("db is required")
	}
	return up(ctx, sqliteMigrator{db: db}, "sqlite")
}

// Names lists the embedded migration files for a dialect, in apply order.
func Names(dialect string) ([]string, error) {
	names, err := fs.Glob(files, dialect+"/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list embedded migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func up(ctx context.Context, m migrator, dialect string) error {
	if err := m.ensureTable(ctx); err != nil {
		return fmt.Errorf("ensure migration table %s: %w", migrationsTable, err)
	}

	names, err := Names(dialect)
	if err != nil {
		return err
	}

	for _, name := range names {
		applied, err := m.isApplied(ctx, name)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied {
			continue
		}

		script, err := files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := m.apply(ctx, name, string(script)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	if err := m.verify(ctx); err != nil {
		return fmt.Errorf("verify %s schema: %w", dialect, err)
	}
	return nil
}

type pgMigrator struct {
	pool *pgxpool.Pool
}

func (m pgMigrator) ensureTable(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	filename text PRIMARY KEY,
	applied_at timestamptz NOT NULL DEFAULT now()
)
`
	_, err := m.pool.Exec(ctx, query)
	return err
}

func (m pgMigrator) isApplied(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := m.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename = $1)`,
		name,
	).Scan(&exists)
	return exists, err
}

func (m pgMigrator) apply(ctx context.Context, name, script string) error {
	const record = `INSERT INTO schema_migrations (filename) VALUES ($1) ON CONFLICT (filename) DO NOTHING`

	err := pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, script); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, record, name)
		return err
	})
	if isDuplicateObject(err) {
		return fmt.Errorf("schema object already exists outside %s, reconcile it by hand: %w", migrationsTable, err)
	}
	return err
}

func (m pgMigrator) verify(ctx context.Context) error {
	var exists bool
	err := m.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = $1 AND contype = 'x')`,
		pgOverlapConstraint,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: exclusion constraint %s", errGuardMissing, pgOverlapConstraint)
	}
	return nil
}

// isDuplicateObject reports errors raised when a migration creates an object
// that an untracked schema already has.
func isDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case "42P07", // duplicate_table
		"42710", // duplicate_object
		"42701": // duplicate_column
		return true
	default:
		return false
	}
}

type sqliteMigrator struct {
	db *sql.DB
}

func (m sqliteMigrator) ensureTable(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	filename TEXT PRIMARY KEY,
	applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)
`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

func (m sqliteMigrator) isApplied(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename = ?)`,
		name,
	).Scan(&exists)
	return exists, err
}

func (m sqliteMigrator) apply(ctx context.Context, name, script string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES (?)`, name); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (m sqliteMigrator) verify(ctx context.Context) error {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'index' AND name = ?)`,
		sqliteStartIndex,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: index %s", errGuardMissing, sqliteStartIndex)
	}
	return nil
}
