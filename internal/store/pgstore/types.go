package pgstore

import (
	"context"

	"github.com/google/uuid"

	"goldenpaws-scheduler/internal/app"
)

type typeRepo struct {
	q querier
}

const typeCols = `id, name, description, duration_minutes, price_cents, buffer_minutes,
	min_notice_hours, max_advance_days, active, required_applicant_status, created_at, updated_at`

func scanType(row rowScanner) (app.AppointmentType, error) {
	var t app.AppointmentType
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.DurationMins, &t.PriceCents, &t.BufferMins,
		&t.MinNoticeHours, &t.MaxAdvanceDays, &t.Active, &t.RequiredApplicantStatus,
		&t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *typeRepo) List(ctx context.Context, activeOnly bool) ([]app.AppointmentType, error) {
	query := `SELECT ` + typeCols + ` FROM appointment_types`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name, id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []app.AppointmentType{}
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *typeRepo) Get(ctx context.Context, id uuid.UUID) (app.AppointmentType, error) {
	t, err := scanType(r.q.QueryRow(ctx, `SELECT `+typeCols+` FROM appointment_types WHERE id = $1`, id))
	return t, mapError(err)
}

func (r *typeRepo) Create(ctx context.Context, t *app.AppointmentType) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO appointment_types (
			id, name, description, duration_minutes, price_cents, buffer_minutes,
			min_notice_hours, max_advance_days, active, required_applicant_status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		t.ID, t.Name, t.Description, t.DurationMins, t.PriceCents, t.BufferMins,
		t.MinNoticeHours, t.MaxAdvanceDays, t.Active, t.RequiredApplicantStatus,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	return mapError(err)
}

func (r *typeRepo) Update(ctx context.Context, t *app.AppointmentType) error {
	err := r.q.QueryRow(ctx, `
		UPDATE appointment_types SET
			name=$2, description=$3, duration_minutes=$4, price_cents=$5, buffer_minutes=$6,
			min_notice_hours=$7, max_advance_days=$8, active=$9, required_applicant_status=$10,
			updated_at=now()
		WHERE id = $1
		RETURNING updated_at`,
		t.ID, t.Name, t.Description, t.DurationMins, t.PriceCents, t.BufferMins,
		t.MinNoticeHours, t.MaxAdvanceDays, t.Active, t.RequiredApplicantStatus,
	).Scan(&t.UpdatedAt)
	return mapError(err)
}

func (r *typeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM appointment_types WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return notFoundIfNone(tag)
}

