// Package pgstore implements the availability store on PostgreSQL via pgx.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"goldenpaws-scheduler/internal/app"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type Store struct {
	pool  *pgxpool.Pool
	repos app.Repositories
}

var _ app.Store = (*Store)(nil)

// New connects a pool and verifies it with a ping.
func New(ctx context.Context, databaseURL string, maxConns, minConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewFromPool(pool), nil
}

func NewFromPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, repos: reposFor(pool)}
}

func reposFor(q querier) app.Repositories {
	return app.Repositories{
		Types:        &typeRepo{q: q},
		Rules:        &ruleRepo{q: q},
		Overrides:    &overrideRepo{q: q},
		Appointments: &appointmentRepo{q: q},
	}
}

// Pool exposes the underlying pool for migrations.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Repos() app.Repositories { return s.repos }

// WithinDateLock runs fn in a transaction holding a transaction-scoped
// advisory lock keyed on the date. Concurrent bookings for the same day
// serialize here; the exclusion constraint on booked_appointments backs it
// up.
func (s *Store) WithinDateLock(ctx context.Context, date app.Date, fn func(ctx context.Context, repos app.Repositories) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "booking:"+date.String()); err != nil {
			return fmt.Errorf("lock date %s: %w", date, err)
		}
		return fn(ctx, reposFor(tx))
	})
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// mapError translates driver errors into app sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return app.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", app.ErrInvalidInput, pgErr.Detail)
		case "23514", "22P02": // check_violation, invalid_text_representation
			return fmt.Errorf("%w: %s", app.ErrInvalidInput, pgErr.Message)
		}
	}
	return err
}

// isOverlapViolation reports exclusion or unique violations on bookings.
func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23P01" || pgErr.Code == "23505"
}

func notFoundIfNone(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return app.ErrNotFound
	}
	return nil
}
