package pgstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"goldenpaws-scheduler/internal/app"
)

type overrideRepo struct {
	q querier
}

const overrideCols = `id, date, start_minute, end_minute, kind, reason, created_at, updated_at`

func scanOverride(row rowScanner) (app.DateOverride, error) {
	var (
		o          app.DateOverride
		date       time.Time
		start, end int
	)
	if err := row.Scan(&o.ID, &date, &start, &end, &o.Kind, &o.Reason, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return o, err
	}
	o.Date = app.DateOf(date)
	o.StartTime, o.EndTime = app.Clock(start), app.Clock(end)
	return o, nil
}

func (r *overrideRepo) ListRange(ctx context.Context, from, to app.Date) ([]app.DateOverride, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		args = append(args, from.Time)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !to.IsZero() {
		args = append(args, to.Time)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
	}
	query := `SELECT ` + overrideCols + ` FROM date_overrides`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY date, start_minute, id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []app.DateOverride{}
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *overrideRepo) Get(ctx context.Context, id uuid.UUID) (app.DateOverride, error) {
	o, err := scanOverride(r.q.QueryRow(ctx, `SELECT `+overrideCols+` FROM date_overrides WHERE id = $1`, id))
	return o, mapError(err)
}

func (r *overrideRepo) Create(ctx context.Context, o *app.DateOverride) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO date_overrides (id, date, start_minute, end_minute, kind, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		o.ID, o.Date.Time, int(o.StartTime), int(o.EndTime), o.Kind, o.Reason,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	return mapError(err)
}

func (r *overrideRepo) Update(ctx context.Context, o *app.DateOverride) error {
	err := r.q.QueryRow(ctx, `
		UPDATE date_overrides SET
			date=$2, start_minute=$3, end_minute=$4, kind=$5, reason=$6, updated_at=now()
		WHERE id = $1
		RETURNING updated_at`,
		o.ID, o.Date.Time, int(o.StartTime), int(o.EndTime), o.Kind, o.Reason,
	).Scan(&o.UpdatedAt)
	return mapError(err)
}

func (r *overrideRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM date_overrides WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return notFoundIfNone(tag)
}
