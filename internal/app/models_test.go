package app

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestAppointmentStatus_CanTransition(t *testing.T) {
	all := []AppointmentStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}
	allowed := map[[2]AppointmentStatus]bool{
		{StatusPending, StatusConfirmed}:   true,
		{StatusPending, StatusCancelled}:   true,
		{StatusConfirmed, StatusCompleted}: true,
		{StatusConfirmed, StatusCancelled}: true,
	}
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]AppointmentStatus{from, to}]
			if got := from.CanTransition(to); got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
	if !StatusCancelled.Terminal() || !StatusCompleted.Terminal() || StatusPending.Terminal() {
		t.Error("terminal mismatch")
	}
}

func TestAppointmentType_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppointmentType)
		wantErr bool
	}{
		{"ok", func(*AppointmentType) {}, false},
		{"blank name", func(t *AppointmentType) { t.Name = "  " }, true},
		{"zero duration", func(t *AppointmentType) { t.DurationMins = 0 }, true},
		{"longer than a day", func(t *AppointmentType) { t.DurationMins = minutesPerDay + 1 }, true},
		{"negative buffer", func(t *AppointmentType) { t.BufferMins = -5 }, true},
		{"negative notice", func(t *AppointmentType) { t.MinNoticeHours = -1 }, true},
		{"unknown applicant status", func(t *AppointmentType) { t.RequiredApplicantStatus = "vip" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := meetAndGreet()
			tt.mutate(&typ)
			err := typ.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAppointmentType_ValidateDefaultsApplicantStatus(t *testing.T) {
	typ := meetAndGreet()
	if err := typ.Validate(); err != nil {
		t.Fatal(err)
	}
	if typ.RequiredApplicantStatus != ApplicantNone || typ.RequiresApproval() {
		t.Errorf("expected default none, got %q", typ.RequiredApplicantStatus)
	}
	typ.RequiredApplicantStatus = ApplicantApproved
	if !typ.RequiresApproval() {
		t.Error("approved applicants only should require approval")
	}
}

func TestRule_Validate(t *testing.T) {
	if err := weekdayRule(7, "09:00", "10:00").Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("day 7: %v", err)
	}
	if err := weekdayRule(3, "10:00", "10:00").Validate(); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("empty interval: %v", err)
	}
	if err := weekdayRule(6, "00:00", "24:00").Validate(); err != nil {
		t.Errorf("whole day: %v", err)
	}
}

func TestRule_AppliesTo(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	open := weekdayRule(1, "09:00", "10:00")
	scoped := weekdayRule(1, "09:00", "10:00", a)

	if !open.AppliesTo(a) || !open.AppliesTo(uuid.Nil) {
		t.Error("rule with no types should apply to every type")
	}
	if !scoped.AppliesTo(a) || scoped.AppliesTo(b) {
		t.Error("scoped rule mismatch")
	}
	if !scoped.AppliesTo(uuid.Nil) {
		t.Error("any-type query should include scoped rules")
	}
}

func TestOverride_Validate(t *testing.T) {
	if err := override(testMonday, OverrideBlock, "09:00", "10:00").Validate(); err != nil {
		t.Errorf("valid block: %v", err)
	}
	if err := override(Date{}, OverrideAdd, "09:00", "10:00").Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing date: %v", err)
	}
	if err := override(testMonday, "close", "09:00", "10:00").Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad kind: %v", err)
	}
}

func TestBookedAppointment_Validate(t *testing.T) {
	b := booking(testMonday, StatusConfirmed, "09:00", "10:00", nil)
	b.CustomerName, b.CustomerEmail = "Ada", "ada@example.com"
	if err := b.Validate(); err != nil {
		t.Fatalf("valid booking: %v", err)
	}
	b.CustomerEmail = ""
	if err := b.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing email: %v", err)
	}
	b.CustomerEmail = "ada@example.com"
	b.Status = "tentative"
	if err := b.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad status: %v", err)
	}
}
