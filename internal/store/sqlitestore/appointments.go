package sqlitestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"goldenpaws-scheduler/internal/app"
)

type appointmentRepo struct {
	e   execer
	now func() time.Time
}

const appointmentCols = `id, appointment_type_id, date, start_minute, end_minute,
	customer_name, customer_email, customer_phone, purpose, notes,
	status, calendar_event_id, created_at, updated_at`

func scanAppointment(row rowScanner) (app.BookedAppointment, error) {
	var (
		b                app.BookedAppointment
		typeID           uuid.NullUUID
		date             string
		start, end       int
		created, updated string
	)
	if err := row.Scan(
		&b.ID, &typeID, &date, &start, &end,
		&b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.Purpose, &b.Notes,
		&b.Status, &b.CalendarEventID, &created, &updated,
	); err != nil {
		return b, err
	}
	if typeID.Valid {
		id := typeID.UUID
		b.AppointmentTypeID = &id
	}
	d, err := app.ParseDate(date)
	if err != nil {
		return b, err
	}
	b.Date = d
	b.StartTime, b.EndTime = app.Clock(start), app.Clock(end)
	return b, parseTimes(created, updated, &b.CreatedAt, &b.UpdatedAt)
}

// typeIDArg converts an optional type id to a driver value; a nil pointer
// becomes NULL.
func typeIDArg(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func (r *appointmentRepo) List(ctx context.Context, f app.AppointmentFilter) ([]app.BookedAppointment, error) {
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, f.To.String())
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}

	query := `SELECT ` + appointmentCols + ` FROM booked_appointments`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY date, start_minute, created_at`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.e.QueryContext(ctx, query, args...)
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
	b, err := scanAppointment(r.e.QueryRowContext(ctx, `SELECT `+appointmentCols+` FROM booked_appointments WHERE id = ?`, id))
	return b, mapError(err)
}

func (r *appointmentRepo) Create(ctx context.Context, b *app.BookedAppointment) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := r.now()
	_, err := r.e.ExecContext(ctx, `
		INSERT INTO booked_appointments (
			id, appointment_type_id, date, start_minute, end_minute,
			customer_name, customer_email, customer_phone, purpose, notes,
			status, calendar_event_id, created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.ID, typeIDArg(b.AppointmentTypeID), b.Date.String(), int(b.StartTime), int(b.EndTime),
		b.CustomerName, b.CustomerEmail, b.CustomerPhone, b.Purpose, b.Notes,
		string(b.Status), b.CalendarEventID, formatTime(now), formatTime(now),
	)
	if isOverlapViolation(err) {
		return fmt.Errorf("%w: %s %s overlaps an existing booking", app.ErrSlotUnavailable, b.Date, b.Interval())
	}
	if err != nil {
		return mapError(err)
	}
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

func (r *appointmentRepo) Update(ctx context.Context, b *app.BookedAppointment) error {
	now := r.now()
	res, err := r.e.ExecContext(ctx, `
		UPDATE booked_appointments SET
			appointment_type_id=?, date=?, start_minute=?, end_minute=?,
			customer_name=?, customer_email=?, customer_phone=?, purpose=?, notes=?,
			status=?, calendar_event_id=?, updated_at=?
		WHERE id = ?`,
		typeIDArg(b.AppointmentTypeID), b.Date.String(), int(b.StartTime), int(b.EndTime),
		b.CustomerName, b.CustomerEmail, b.CustomerPhone, b.Purpose, b.Notes,
		string(b.Status), b.CalendarEventID, formatTime(now), b.ID,
	)
	if isOverlapViolation(err) {
		return fmt.Errorf("%w: %s %s overlaps an existing booking", app.ErrSlotUnavailable, b.Date, b.Interval())
	}
	if err != nil {
		return mapError(err)
	}
	if err := notFoundIfNone(res); err != nil {
		return err
	}
	b.UpdatedAt = now
	return nil
}

func (r *appointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.e.ExecContext(ctx, `DELETE FROM booked_appointments WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return notFoundIfNone(res)
}
