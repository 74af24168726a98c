package app

import "github.com/google/uuid"

// Patch types carry partial updates; nil fields are left untouched.

type AppointmentTypePatch struct {
	Name                    *string          `json:"name"`
	Description             *string          `json:"description"`
	DurationMins            *int             `json:"duration_minutes"`
	PriceCents              *int64           `json:"price_cents"`
	BufferMins              *int             `json:"buffer_minutes"`
	MinNoticeHours          *int             `json:"min_notice_hours"`
	MaxAdvanceDays          *int             `json:"max_advance_days"`
	Active                  *bool            `json:"active"`
	RequiredApplicantStatus *ApplicantStatus `json:"required_applicant_status"`
}

func (p AppointmentTypePatch) Apply(t *AppointmentType) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DurationMins != nil {
		t.DurationMins = *p.DurationMins
	}
	if p.PriceCents != nil {
		t.PriceCents = *p.PriceCents
	}
	if p.BufferMins != nil {
		t.BufferMins = *p.BufferMins
	}
	if p.MinNoticeHours != nil {
		t.MinNoticeHours = *p.MinNoticeHours
	}
	if p.MaxAdvanceDays != nil {
		t.MaxAdvanceDays = *p.MaxAdvanceDays
	}
	if p.Active != nil {
		t.Active = *p.Active
	}
	if p.RequiredApplicantStatus != nil {
		t.RequiredApplicantStatus = *p.RequiredApplicantStatus
	}
}

type RulePatch struct {
	Name               *string      `json:"name"`
	DayOfWeek          *int         `json:"day_of_week"`
	StartTime          *Clock       `json:"start_time"`
	EndTime            *Clock       `json:"end_time"`
	AppointmentTypeIDs *[]uuid.UUID `json:"appointment_type_ids"`
	Active             *bool        `json:"active"`
}

func (p RulePatch) Apply(r *RecurringAvailabilityRule) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.DayOfWeek != nil {
		r.DayOfWeek = *p.DayOfWeek
	}
	if p.StartTime != nil {
		r.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		r.EndTime = *p.EndTime
	}
	if p.AppointmentTypeIDs != nil {
		r.AppointmentTypeIDs = *p.AppointmentTypeIDs
	}
	if p.Active != nil {
		r.Active = *p.Active
	}
}

type OverridePatch struct {
	Date      *Date         `json:"date"`
	StartTime *Clock        `json:"start_time"`
	EndTime   *Clock        `json:"end_time"`
	Kind      *OverrideKind `json:"kind"`
	Reason    *string       `json:"reason"`
}

func (p OverridePatch) Apply(o *DateOverride) {
	if p.Date != nil {
		o.Date = *p.Date
	}
	if p.StartTime != nil {
		o.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		o.EndTime = *p.EndTime
	}
	if p.Kind != nil {
		o.Kind = *p.Kind
	}
	if p.Reason != nil {
		o.Reason = *p.Reason
	}
}
