package sqlitestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goldenpaws-scheduler/internal/app"
)

type ruleRepo struct {
	e   execer
	now func() time.Time
}

const ruleCols = `id, name, day_of_week, start_minute, end_minute,
	appointment_type_ids, active, created_at, updated_at`

func scanRule(row rowScanner) (app.RecurringAvailabilityRule, error) {
	var (
		r                app.RecurringAvailabilityRule
		start, end       int
		typeIDs          string
		created, updated string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.DayOfWeek, &start, &end, &typeIDs, &r.Active, &created, &updated); err != nil {
		return r, err
	}
	r.StartTime, r.EndTime = app.Clock(start), app.Clock(end)
	r.AppointmentTypeIDs = []uuid.UUID{}
	if err := json.Unmarshal([]byte(typeIDs), &r.AppointmentTypeIDs); err != nil {
		return r, fmt.Errorf("rule %s: decode appointment_type_ids: %w", r.ID, err)
	}
	return r, parseTimes(created, updated, &r.CreatedAt, &r.UpdatedAt)
}

func encodeTypeIDs(ids []uuid.UUID) (string, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	b, err := json.Marshal(ids)
	return string(b), err
}

func (r *ruleRepo) list(ctx context.Context, where string, args ...any) ([]app.RecurringAvailabilityRule, error) {
	rows, err := r.e.QueryContext(ctx, `SELECT `+ruleCols+` FROM availability_rules `+where+` ORDER BY day_of_week, start_minute, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []app.RecurringAvailabilityRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *ruleRepo) List(ctx context.Context) ([]app.RecurringAvailabilityRule, error) {
	return r.list(ctx, "")
}

func (r *ruleRepo) ListByWeekday(ctx context.Context, dayOfWeek int) ([]app.RecurringAvailabilityRule, error) {
	return r.list(ctx, "WHERE day_of_week = ?", dayOfWeek)
}

func (r *ruleRepo) Get(ctx context.Context, id uuid.UUID) (app.RecurringAvailabilityRule, error) {
	rule, err := scanRule(r.e.QueryRowContext(ctx, `SELECT `+ruleCols+` FROM availability_rules WHERE id = ?`, id))
	return rule, mapError(err)
}

func (r *ruleRepo) Create(ctx context.Context, rule *app.RecurringAvailabilityRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	typeIDs, err := encodeTypeIDs(rule.AppointmentTypeIDs)
	if err != nil {
		return err
	}
	now := r.now()
	_, err = r.e.ExecContext(ctx, `
		INSERT INTO availability_rules (
			id, name, day_of_week, start_minute, end_minute, appointment_type_ids, active, created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?)`,
		rule.ID, rule.Name, rule.DayOfWeek, int(rule.StartTime), int(rule.EndTime),
		typeIDs, rule.Active, formatTime(now), formatTime(now),
	)
	if err != nil {
		return mapError(err)
	}
	rule.CreatedAt, rule.UpdatedAt = now, now
	return nil
}

func (r *ruleRepo) Update(ctx context.Context, rule *app.RecurringAvailabilityRule) error {
	typeIDs, err := encodeTypeIDs(rule.AppointmentTypeIDs)
	if err != nil {
		return err
	}
	now := r.now()
	res, err := r.e.ExecContext(ctx, `
		UPDATE availability_rules SET
			name=?, day_of_week=?, start_minute=?, end_minute=?, appointment_type_ids=?, active=?, updated_at=?
		WHERE id = ?`,
		rule.Name, rule.DayOfWeek, int(rule.StartTime), int(rule.EndTime),
		typeIDs, rule.Active, formatTime(now), rule.ID,
	)
	if err != nil {
		return mapError(err)
	}
	if err := notFoundIfNone(res); err != nil {
		return err
	}
	rule.UpdatedAt = now
	return nil
}

func (r *ruleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.e.ExecContext(ctx, `DELETE FROM availability_rules WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return notFoundIfNone(res)
}
