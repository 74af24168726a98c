// Package sqlitestore implements the availability store on an embedded
// SQLite file for single-instance deployments and local development.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"goldenpaws-scheduler/internal/app"
)

const timestampLayout = time.RFC3339Nano

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type Store struct {
	db    *sql.DB
	repos app.Repositories
	now   func() time.Time
}

var _ app.Store = (*Store)(nil)

// Open opens (creating if needed) the database file at path. All access goes
// through a single connection and write transactions take the database lock
// on BEGIN, so WithinDateLock calls serialize.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return newStore(db), nil
}

func newStore(db *sql.DB) *Store {
	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	s.repos = s.reposFor(db)
	return s
}

func (s *Store) reposFor(e execer) app.Repositories {
	return app.Repositories{
		Types:        &typeRepo{e: e, now: s.now},
		Rules:        &ruleRepo{e: e, now: s.now},
		Overrides:    &overrideRepo{e: e, now: s.now},
		Appointments: &appointmentRepo{e: e, now: s.now},
	}
}

// DB exposes the handle for migrations.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Repos() app.Repositories { return s.repos }

func (s *Store) WithinDateLock(ctx context.Context, date app.Date, fn func(ctx context.Context, repos app.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for %s: %w", date, err)
	}

	if err := fn(ctx, s.reposFor(tx)); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return rollbackErr
		}
		return err
	}
	return tx.Commit()
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return app.ErrNotFound
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_CHECK:
			return fmt.Errorf("%w: %s", app.ErrInvalidInput, sqliteErr.Error())
		}
	}
	return err
}

func isOverlapViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func notFoundIfNone(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return app.ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string { return t.UTC().Format(timestampLayout) }

func parseTime(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}

func parseTimes(created, updated string, createdAt, updatedAt *time.Time) error {
	var err error
	if *createdAt, err = parseTime(created); err != nil {
		return fmt.Errorf("parse created_at %q: %w", created, err)
	}
	if *updatedAt, err = parseTime(updated); err != nil {
		return fmt.Errorf("parse updated_at %q: %w", updated, err)
	}
	return nil
}
