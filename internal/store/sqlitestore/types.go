package sqlitestore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"goldenpaws-scheduler/internal/app"
)

type typeRepo struct {
	e   execer
	now func() time.Time
}

const typeCols = `id, name, description, duration_minutes, price_cents, buffer_minutes,
	min_notice_hours, max_advance_days, active, required_applicant_status, created_at, updated_at`

func scanType(row rowScanner) (app.AppointmentType, error) {
	var (
		t                app.AppointmentType
		created, updated string
	)
	if err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.DurationMins, &t.PriceCents, &t.BufferMins,
		&t.MinNoticeHours, &t.MaxAdvanceDays, &t.Active, &t.RequiredApplicantStatus,
		&created, &updated,
	); err != nil {
		return t, err
	}
	return t, parseTimes(created, updated, &t.CreatedAt, &t.UpdatedAt)
}

func (r *typeRepo) List(ctx context.Context, activeOnly bool) ([]app.AppointmentType, error) {
	query := `SELECT ` + typeCols + ` FROM appointment_types`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name, id`

	rows, err := r.e.QueryContext(ctx, query)
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
	t, err := scanType(r.e.QueryRowContext(ctx, `SELECT `+typeCols+` FROM appointment_types WHERE id = ?`, id))
	return t, mapError(err)
}

func (r *typeRepo) Create(ctx context.Context, t *app.AppointmentType) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := r.now()
	_, err := r.e.ExecContext(ctx, `
		INSERT INTO appointment_types (
			id, name, description, duration_minutes, price_cents, buffer_minutes,
			min_notice_hours, max_advance_days, active, required_applicant_status,
			created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Name, t.Description, t.DurationMins, t.PriceCents, t.BufferMins,
		t.MinNoticeHours, t.MaxAdvanceDays, t.Active, string(t.RequiredApplicantStatus),
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return mapError(err)
	}
	t.CreatedAt, t.UpdatedAt = now, now
	return nil
}

func (r *typeRepo) Update(ctx context.Context, t *app.AppointmentType) error {
	now := r.now()
	res, err := r.e.ExecContext(ctx, `
		UPDATE appointment_types SET
			name=?, description=?, duration_minutes=?, price_cents=?, buffer_minutes=?,
			min_notice_hours=?, max_advance_days=?, active=?, required_applicant_status=?,
			updated_at=?
		WHERE id = ?`,
		t.Name, t.Description, t.DurationMins, t.PriceCents, t.BufferMins,
		t.MinNoticeHours, t.MaxAdvanceDays, t.Active, string(t.RequiredApplicantStatus),
		formatTime(now), t.ID,
	)
	if err != nil {
		return mapError(err)
	}
	if err := notFoundIfNone(res); err != nil {
		return err
	}
	t.UpdatedAt = now
	return nil
}

func (r *typeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.e.ExecContext(ctx, `DELETE FROM appointment_types WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return notFoundIfNone(res)
}
