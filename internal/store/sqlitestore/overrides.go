package sqlitestore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"goldenpaws-scheduler/internal/app"
)

type overrideRepo struct {
	e   execer
	now func() time.Time
}

const overrideCols = `id, date, start_minute, end_minute, kind, reason, created_at, updated_at`

func scanOverride(row rowScanner) (app.DateOverride, error) {
	var (
		o                app.DateOverride
		date             string
		start, end       int
		created, updated string
	)
	if err := row.Scan(&o.ID, &date, &start, &end, &o.Kind, &o.Reason, &created, &updated); err != nil {
		return o, err
	}
	d, err := app.ParseDate(date)
	if err != nil {
		return o, err
	}
	o.Date = d
	o.StartTime, o.EndTime = app.Clock(start), app.Clock(end)
	return o, parseTimes(created, updated, &o.CreatedAt, &o.UpdatedAt)
}

func (r *overrideRepo) ListRange(ctx context.Context, from, to app.Date) ([]app.DateOverride, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, from.String())
	}
	if !to.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, to.String())
	}
	query := `SELECT ` + overrideCols + ` FROM date_overrides`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY date, start_minute, id`

	rows, err := r.e.QueryContext(ctx, query, args...)
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
	o, err := scanOverride(r.e.QueryRowContext(ctx, `SELECT `+overrideCols+` FROM date_overrides WHERE id = ?`, id))
	return o, mapError(err)
}

func (r *overrideRepo) Create(ctx context.Context, o *app.DateOverride) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := r.now()
	_, err := r.e.ExecContext(ctx, `
		INSERT INTO date_overrides (id, date, start_minute, end_minute, kind, reason, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		o.ID, o.Date.String(), int(o.StartTime), int(o.EndTime), string(o.Kind), o.Reason,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return mapError(err)
	}
	o.CreatedAt, o.UpdatedAt = now, now
	return nil
}

func (r *overrideRepo) Update(ctx context.Context, o *app.DateOverride) error {
	now := r.now()
	res, err := r.e.ExecContext(ctx, `
		UPDATE date_overrides SET
			date=?, start_minute=?, end_minute=?, kind=?, reason=?, updated_at=?
		WHERE id = ?`,
		o.Date.String(), int(o.StartTime), int(o.EndTime), string(o.Kind), o.Reason,
		formatTime(now), o.ID,
	)
	if err != nil {
		return mapError(err)
	}
	if err := notFoundIfNone(res); err != nil {
		return err
	}
	o.UpdatedAt = now
	return nil
}

func (r *overrideRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.e.ExecContext(ctx, `DELETE FROM date_overrides WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return notFoundIfNone(res)
}
