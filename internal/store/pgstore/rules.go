package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"goldenpaws-scheduler/internal/app"
)

type ruleRepo struct {
	q querier
}

const ruleCols = `id, name, day_of_week, start_minute, end_minute,
	appointment_type_ids::text[], active, created_at, updated_at`

func scanRule(row rowScanner) (app.RecurringAvailabilityRule, error) {
	var (
		r          app.RecurringAvailabilityRule
		start, end int
		typeIDs    []string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.DayOfWeek, &start, &end, &typeIDs, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return r, err
	}
	r.StartTime, r.EndTime = app.Clock(start), app.Clock(end)
	r.AppointmentTypeIDs = make([]uuid.UUID, 0, len(typeIDs))
	for _, s := range typeIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return r, fmt.Errorf("rule %s: bad appointment type id %q: %w", r.ID, s, err)
		}
		r.AppointmentTypeIDs = append(r.AppointmentTypeIDs, id)
	}
	return r, nil
}

// typeIDStrings never returns nil; pgx encodes a nil slice as NULL.
func typeIDStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func (r *ruleRepo) list(ctx context.Context, where string, args ...any) ([]app.RecurringAvailabilityRule, error) {
	rows, err := r.q.Query(ctx, `SELECT `+ruleCols+` FROM availability_rules `+where+` ORDER BY day_of_week, start_minute, id`, args...)
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
	return r.list(ctx, "WHERE day_of_week = $1", dayOfWeek)
}

func (r *ruleRepo) Get(ctx context.Context, id uuid.UUID) (app.RecurringAvailabilityRule, error) {
	rule, err := scanRule(r.q.QueryRow(ctx, `SELECT `+ruleCols+` FROM availability_rules WHERE id = $1`, id))
	return rule, mapError(err)
}

func (r *ruleRepo) Create(ctx context.Context, rule *app.RecurringAvailabilityRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO availability_rules (id, name, day_of_week, start_minute, end_minute, appointment_type_ids, active)
		VALUES ($1, $2, $3, $4, $5, $6::text[]::uuid[], $7)
		RETURNING created_at, updated_at`,
		rule.ID, rule.Name, rule.DayOfWeek, int(rule.StartTime), int(rule.EndTime),
		typeIDStrings(rule.AppointmentTypeIDs), rule.Active,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)
	return mapError(err)
}

func (r *ruleRepo) Update(ctx context.Context, rule *app.RecurringAvailabilityRule) error {
	err := r.q.QueryRow(ctx, `
		UPDATE availability_rules SET
			name=$2, day_of_week=$3, start_minute=$4, end_minute=$5,
			appointment_type_ids=$6::text[]::uuid[], active=$7, updated_at=now()
		WHERE id = $1
		RETURNING updated_at`,
		rule.ID, rule.Name, rule.DayOfWeek, int(rule.StartTime), int(rule.EndTime),
		typeIDStrings(rule.AppointmentTypeIDs), rule.Active,
	).Scan(&rule.UpdatedAt)
	return mapError(err)
}

func (r *ruleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM availability_rules WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return notFoundIfNone(tag)
}
