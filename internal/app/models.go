package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ApplicantStatus string

const (
	ApplicantNone               ApplicantStatus = "none"
	ApplicantPending            ApplicantStatus = "pending"
	ApplicantApproved           ApplicantStatus = "approved"
	ApplicantInterviewScheduled ApplicantStatus = "interview_scheduled"
)

func (s ApplicantStatus) Valid() bool {
	switch s {
	case ApplicantNone, ApplicantPending, ApplicantApproved, ApplicantInterviewScheduled:
		return true
	default:
		return false
	}
}

type AppointmentType struct {
	ID                      uuid.UUID       `json:"id"`
	Name                    string          `json:"name"`
	Description             string          `json:"description,omitempty"`
	DurationMins            int             `json:"duration_minutes"`
	PriceCents              int64           `json:"price_cents"`
	BufferMins              int             `json:"buffer_minutes"`
	MinNoticeHours          int             `json:"min_notice_hours"`
	MaxAdvanceDays          int             `json:"max_advance_days"`
	Active                  bool            `json:"active"`
	RequiredApplicantStatus ApplicantStatus `json:"required_applicant_status"`
	CreatedAt               time.Time       `json:"created_at,omitempty"`
	UpdatedAt               time.Time       `json:"updated_at,omitempty"`
}

func (t *AppointmentType) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if t.DurationMins <= 0 || t.DurationMins > minutesPerDay {
		return fmt.Errorf("%w: duration_minutes must be between 1 and %d", ErrInvalidInput, minutesPerDay)
	}
	if t.BufferMins < 0 || t.PriceCents < 0 || t.MinNoticeHours < 0 || t.MaxAdvanceDays < 0 {
		return fmt.Errorf("%w: buffer, price, notice and advance must not be negative", ErrInvalidInput)
	}
	if t.RequiredApplicantStatus == "" {
		t.RequiredApplicantStatus = ApplicantNone
	}
	if !t.RequiredApplicantStatus.Valid() {
		return fmt.Errorf("%w: unknown required_applicant_status %q", ErrInvalidInput, t.RequiredApplicantStatus)
	}
	return nil
}

// RequiresApproval reports whether bookings of this type start out pending.
func (t AppointmentType) RequiresApproval() bool {
	return t.RequiredApplicantStatus != "" && t.RequiredApplicantStatus != ApplicantNone
}

type RecurringAvailabilityRule struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	DayOfWeek          int         `json:"day_of_week"`
	StartTime          Clock       `json:"start_time"`
	EndTime            Clock       `json:"end_time"`
	AppointmentTypeIDs []uuid.UUID `json:"appointment_type_ids"`
	Active             bool        `json:"active"`
	CreatedAt          time.Time   `json:"created_at,omitempty"`
	UpdatedAt          time.Time   `json:"updated_at,omitempty"`
}

func (r RecurringAvailabilityRule) Interval() Interval {
	return Interval{Start: r.StartTime, End: r.EndTime}
}

func (r RecurringAvailabilityRule) Validate() error {
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return fmt.Errorf("%w: day_of_week must be 0-6", ErrInvalidInput)
	}
	if !r.Interval().Valid() {
		return ErrInvalidInterval
	}
	return nil
}

// AppliesTo reports whether the rule opens time for the given type. An empty
// type set applies to every type; uuid.Nil asks for any type.
func (r RecurringAvailabilityRule) AppliesTo(typeID uuid.UUID) bool {
	if typeID == uuid.Nil || len(r.AppointmentTypeIDs) == 0 {
		return true
	}
	for _, id := range r.AppointmentTypeIDs {
		if id == typeID {
			return true
		}
	}
	return false
}

type OverrideKind string

const (
	OverrideBlock OverrideKind = "block"
	OverrideAdd   OverrideKind = "add"
)

type DateOverride struct {
	ID        uuid.UUID    `json:"id"`
	Date      Date         `json:"date"`
	StartTime Clock        `json:"start_time"`
	EndTime   Clock        `json:"end_time"`
	Kind      OverrideKind `json:"kind"`
	Reason    string       `json:"reason,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
	UpdatedAt time.Time    `json:"updated_at,omitempty"`
}

func (o DateOverride) Interval() Interval {
	return Interval{Start: o.StartTime, End: o.EndTime}
}

func (o DateOverride) Validate() error {
	if o.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if o.Kind != OverrideBlock && o.Kind != OverrideAdd {
		return fmt.Errorf("%w: kind must be %q or %q", ErrInvalidInput, OverrideBlock, OverrideAdd)
	}
	if !o.Interval().Valid() {
		return ErrInvalidInterval
	}
	return nil
}

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

func (s AppointmentStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func (s AppointmentStatus) CanTransition(to AppointmentStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

type BookedAppointment struct {
	ID                uuid.UUID         `json:"id"`
	AppointmentTypeID *uuid.UUID        `json:"appointment_type_id,omitempty"`
	Date              Date              `json:"date"`
	StartTime         Clock             `json:"start_time"`
	EndTime           Clock             `json:"end_time"`
	CustomerName      string            `json:"customer_name"`
	CustomerEmail     string            `json:"customer_email"`
	CustomerPhone     string            `json:"customer_phone,omitempty"`
	Purpose           string            `json:"purpose,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	Status            AppointmentStatus `json:"status"`
	CalendarEventID   string            `json:"-"`
	CreatedAt         time.Time         `json:"created_at,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at,omitempty"`
}

func (b BookedAppointment) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// Occupies reports whether the booking still holds its time.
func (b BookedAppointment) Occupies() bool {
	return b.Status != StatusCancelled
}

func (b BookedAppointment) Validate() error {
	if b.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if !b.Interval().Valid() {
		return ErrInvalidInterval
	}
	if strings.TrimSpace(b.CustomerName) == "" || strings.TrimSpace(b.CustomerEmail) == "" {
		return fmt.Errorf("%w: customer name and email are required", ErrInvalidInput)
	}
	if !b.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, b.Status)
	}
	return nil
}
