package pgstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"goldenpaws-scheduler/internal/app"
)

type appointmentRepo struct {
	q querier
}

const appointmentCols = `id, appointment_type_id, date, start_minute, end_minute,
	customer_name, customer_email, customer_phone, purpose, notes,
	status, calendar_event_id, created_at, updated_at`

func scanAppointment(row rowScanner) (app.BookedAppointment, error) {
	var (
		b          app.BookedAppointment
		typeID     uuid.NullUUID
		date       time.Time
		start, end int
	)
	if err := row.Scan(
		&b.ID, &typeID, &date, &start, &end,
		&b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.Purpose, &b.Notes,
		&b.Status, &b.CalendarEventID, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return b, err
	}
	if typeID.Valid {
		id := typeID.UUID
		b.AppointmentTypeID = &id
	}
	b.Date = app.DateOf(date)
	b.StartTime, b.EndTime = app.Clock(start), app.Clock(end)
	return b, nil
}

func (r *appointmentRepo) List(ctx context.Context, f app.AppointmentFilter) ([]app.BookedAppointment, error) {
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		args = append(args, f.From.Time)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To.Time)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + appointmentCols + ` FROM booked_appointments`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY date, start_minute, created_at`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []app.BookedAppointment{}
	for rows.Next() {
		b, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *appointmentRepo) Get(ctx context.Context, id uuid.UUID) (app.BookedAppointment, error) {
	b, err := scanAppointment(r.q.QueryRow(ctx, `SELECT `+appointmentCols+` FROM booked_appointments WHERE id = $1`, id))
	return b, mapError(err)
}

func (r *appointmentRepo) Create(ctx context.Context, b *app.BookedAppointment) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO booked_appointments (
			id, appointment_type_id, date, start_minute, end_minute,
			customer_name, customer_email, customer_phone, purpose, notes,
			status, calendar_event_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		b.ID, b.AppointmentTypeID, b.Date.Time, int(b.StartTime), int(b.EndTime),
		b.CustomerName, b.CustomerEmail, b.CustomerPhone, b.Purpose, b.Notes,
		b.Status, b.CalendarEventID,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if isOverlapViolation(err) {
		return fmt.Errorf("%w: %s %s overlaps an existing booking", app.ErrSlotUnavailable, b.Date, b.Interval())
	}
	return mapError(err)
}

func (r *appointmentRepo) Update(ctx context.Context, b *app.BookedAppointment) error {
	err := r.q.QueryRow(ctx, `
		UPDATE booked_appointments SET
			appointment_type_id=$2, date=$3, start_minute=$4, end_minute=$5,
			customer_name=$6, customer_email=$7, customer_phone=$8, purpose=$9, notes=$10,
			status=$11, calendar_event_id=$12, updated_at=now()
		WHERE id = $1
		RETURNING updated_at`,
		b.ID, b.AppointmentTypeID, b.Date.Time, int(b.StartTime), int(b.EndTime),
		b.CustomerName, b.CustomerEmail, b.CustomerPhone, b.Purpose, b.Notes,
		b.Status, b.CalendarEventID,
	).Scan(&b.UpdatedAt)
	if isOverlapViolation(err) {
		return fmt.Errorf("%w: %s %s overlaps an existing booking", app.ErrSlotUnavailable, b.Date, b.Interval())
	}
	return mapError(err)
}

func (r *appointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM booked_appointments WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return notFoundIfNone(tag)
}
