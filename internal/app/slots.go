package app

import (
	"time"

	"github.com/google/uuid"
)

// DayInput is everything the resolver needs for one date. Collections may
// be wider than the date; records for other dates or weekdays are ignored.
type DayInput struct {
	Date     Date
	Now      time.Time
	Location *time.Location

	// Type narrows the result to one appointment type and turns on slot
	// discretization and the notice/advance policy. Nil resolves for any type.
	Type *AppointmentType

	// Types is used to look up the buffer of each booked appointment.
	Types        map[uuid.UUID]AppointmentType
	Rules        []RecurringAvailabilityRule
	Overrides    []DateOverride
	Appointments []BookedAppointment
}

type DayAvailability struct {
	Date    Date       `json:"date"`
	TypeID  *uuid.UUID `json:"appointment_type_id,omitempty"`
	Windows []Interval `json:"windows"`
	Slots   []Interval `json:"slots,omitempty"`

	// Skipped counts malformed records that were ignored.
	Skipped int `json:"-"`
}

// ResolveDay computes the open windows for in.Date and, when a type is
// requested, the bookable slots within them. It is a pure function of its
// input.
func ResolveDay(in DayInput) DayAvailability {
	out := DayAvailability{Date: in.Date, Windows: []Interval{}}
	typeID := uuid.Nil
	if in.Type != nil {
		typeID = in.Type.ID
		id := in.Type.ID
		out.TypeID = &id
	}

	raw, skipped := rawWindows(in, typeID)
	out.Skipped += skipped

	busy, skipped := busyIntervals(in)
	out.Skipped += skipped

	open := subtractIntervals(raw, busy)
	if in.Type == nil {
		out.Windows = nonNil(open)
		return out
	}

	if !withinAdvanceLimit(in) {
		return out
	}
	out.Windows = nonNil(open)

	step := in.Type.DurationMins + in.Type.BufferMins
	earliest := in.Now.Add(time.Duration(in.Type.MinNoticeHours) * time.Hour)
	loc := location(in)
	slots := make([]Interval, 0)
	for _, s := range discretize(open, in.Type.DurationMins, step) {
		if in.Date.At(s.Start, loc).Before(earliest) {
			continue
		}
		slots = append(slots, s)
	}
	out.Slots = slots
	return out
}

// rawWindows builds the day's open time before bookings are removed.
func rawWindows(in DayInput, typeID uuid.UUID) ([]Interval, int) {
	var base, blocks []Interval
	skipped := 0
	weekday := in.Date.DayOfWeek()

	for _, r := range in.Rules {
		if !r.Active || r.DayOfWeek != weekday || !r.AppliesTo(typeID) {
			continue
		}
		if r.Validate() != nil {
			skipped++
			continue
		}
		base = append(base, r.Interval())
	}

	for _, o := range in.Overrides {
		if !o.Date.Equal(in.Date) {
			continue
		}
		if o.Validate() != nil {
			skipped++
			continue
		}
		switch o.Kind {
		case OverrideAdd:
			base = append(base, o.Interval())
		case OverrideBlock:
			blocks = append(blocks, o.Interval())
		}
	}

	return mergeIntervals(subtractIntervals(base, blocks)), skipped
}

// busyIntervals returns the buffered intervals of every booking on the date
// that still occupies its time.
func busyIntervals(in DayInput) ([]Interval, int) {
	var busy []Interval
	skipped := 0
	for _, b := range in.Appointments {
		if !b.Date.Equal(in.Date) || !b.Occupies() {
			continue
		}
		iv := b.Interval()
		if !iv.Valid() {
			skipped++
			continue
		}
		busy = append(busy, iv.Pad(bufferFor(in.Types, b.AppointmentTypeID)))
	}
	return busy, skipped
}

func bufferFor(types map[uuid.UUID]AppointmentType, id *uuid.UUID) int {
	if id == nil || types == nil {
		return 0
	}
	if t, ok := types[*id]; ok {
		return t.BufferMins
	}
	return 0
}

// withinAdvanceLimit rejects dates in the past and dates beyond the type's
// maximum advance booking horizon.
func withinAdvanceLimit(in DayInput) bool {
	today := DateOf(in.Now.In(location(in)))
	if in.Date.Before(today) {
		return false
	}
	if in.Type.MaxAdvanceDays > 0 && today.DaysUntil(in.Date) > in.Type.MaxAdvanceDays {
		return false
	}
	return true
}

func location(in DayInput) *time.Location {
	if in.Location == nil {
		return time.UTC
	}
	return in.Location
}

func nonNil(s []Interval) []Interval {
	if s == nil {
		return []Interval{}
	}
	return s
}

// fitsWindow reports whether iv lies entirely inside one of windows.
func fitsWindow(windows []Interval, iv Interval) bool {
	for _, w := range windows {
		if w.Contains(iv) {
			return true
		}
	}
	return false
}
