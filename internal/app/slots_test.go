package app

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

var (
	// Saturday morning; the resolved date below is the following Monday.
	testNow    = time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	testMonday = mustDate("2026-10-19")
)

func weekdayRule(day int, start, end string, typeIDs ...uuid.UUID) RecurringAvailabilityRule {
	return RecurringAvailabilityRule{
		ID:                 uuid.New(),
		DayOfWeek:          day,
		StartTime:          clock(start),
		EndTime:            clock(end),
		AppointmentTypeIDs: typeIDs,
		Active:             true,
	}
}

func override(d Date, kind OverrideKind, start, end string) DateOverride {
	return DateOverride{ID: uuid.New(), Date: d, Kind: kind, StartTime: clock(start), EndTime: clock(end)}
}

func booking(d Date, status AppointmentStatus, start, end string, typeID *uuid.UUID) BookedAppointment {
	return BookedAppointment{
		ID:                uuid.New(),
		AppointmentTypeID: typeID,
		Date:              d,
		StartTime:         clock(start),
		EndTime:           clock(end),
		Status:            status,
	}
}

func meetAndGreet() AppointmentType {
	return AppointmentType{
		ID:             uuid.New(),
		Name:           "Meet & Greet",
		DurationMins:   60,
		MaxAdvanceDays: 60,
		Active:         true,
	}
}

func baseInput() DayInput {
	return DayInput{
		Date:     testMonday,
		Now:      testNow,
		Location: time.UTC,
		Rules:    []RecurringAvailabilityRule{weekdayRule(1, "09:00", "12:00")},
	}
}

func TestResolveDay_SingleWindow(t *testing.T) {
	got := ResolveDay(baseInput())
	want := []Interval{iv("09:00", "12:00")}
	if !reflect.DeepEqual(got.Windows, want) {
		t.Errorf("windows: got %v, want %v", got.Windows, want)
	}
	if got.Slots != nil || got.TypeID != nil {
		t.Errorf("no type requested, expected no slots: %+v", got)
	}
}

func TestResolveDay_OtherWeekdayClosed(t *testing.T) {
	in := baseInput()
	in.Date = testMonday.AddDays(1)
	if got := ResolveDay(in); len(got.Windows) != 0 || got.Windows == nil {
		t.Errorf("expected empty non-nil windows, got %#v", got.Windows)
	}
}

func TestResolveDay_BlockSplitsWindow(t *testing.T) {
	in := baseInput()
	in.Overrides = []DateOverride{override(testMonday, OverrideBlock, "10:00", "10:30")}
	got := ResolveDay(in)
	want := []Interval{iv("09:00", "10:00"), iv("10:30", "12:00")}
	if !reflect.DeepEqual(got.Windows, want) {
		t.Errorf("got %v, want %v", got.Windows, want)
	}
}

func TestResolveDay_AddOverrideOpensTime(t *testing.T) {
	in := baseInput()
	in.Overrides = []DateOverride{
		override(testMonday, OverrideAdd, "11:00", "14:00"),
		override(testMonday.AddDays(1), OverrideAdd, "06:00", "07:00"),
	}
	got := ResolveDay(in)
	want := []Interval{iv("09:00", "14:00")}
	if !reflect.DeepEqual(got.Windows, want) {
		t.Errorf("got %v, want %v", got.Windows, want)
	}
}

func TestResolveDay_AddOnClosedDay(t *testing.T) {
	in := baseInput()
	in.Rules = nil
	in.Overrides = []DateOverride{override(testMonday, OverrideAdd, "13:00", "15:00")}
	got := ResolveDay(in)
	if !reflect.DeepEqual(got.Windows, []Interval{iv("13:00", "15:00")}) {
		t.Errorf("got %v", got.Windows)
	}
}

func TestResolveDay_BlockWinsOverAdd(t *testing.T) {
	in := baseInput()
	in.Overrides = []DateOverride{
		override(testMonday, OverrideAdd, "13:00", "15:00"),
		override(testMonday, OverrideBlock, "08:00", "18:00"),
	}
	if got := ResolveDay(in); len(got.Windows) != 0 {
		t.Errorf("expected whole day blocked, got %v", got.Windows)
	}
}

func TestResolveDay_Bookings(t *testing.T) {
	tests := []struct {
		name   string
		status AppointmentStatus
		want   []Interval
	}{
		{"confirmed occupies", StatusConfirmed, []Interval{iv("09:00", "10:00"), iv("11:00", "12:00")}},
		{"pending occupies", StatusPending, []Interval{iv("09:00", "10:00"), iv("11:00", "12:00")}},
		{"completed occupies", StatusCompleted, []Interval{iv("09:00", "10:00"), iv("11:00", "12:00")}},
		{"cancelled frees", StatusCancelled, []Interval{iv("09:00", "12:00")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.Appointments = []BookedAppointment{booking(testMonday, tt.status, "10:00", "11:00", nil)}
			got := ResolveDay(in)
			if !reflect.DeepEqual(got.Windows, tt.want) {
				t.Errorf("got %v, want %v", got.Windows, tt.want)
			}
		})
	}
}

func TestResolveDay_BookingOnOtherDateIgnored(t *testing.T) {
	in := baseInput()
	in.Appointments = []BookedAppointment{booking(testMonday.AddDays(7), StatusConfirmed, "09:00", "12:00", nil)}
	if got := ResolveDay(in); !reflect.DeepEqual(got.Windows, []Interval{iv("09:00", "12:00")}) {
		t.Errorf("got %v", got.Windows)
	}
}

func TestResolveDay_Slots(t *testing.T) {
	typ := meetAndGreet()
	in := baseInput()
	in.Type = &typ
	got := ResolveDay(in)
	want := []Interval{iv("09:00", "10:00"), iv("10:00", "11:00"), iv("11:00", "12:00")}
	if !reflect.DeepEqual(got.Slots, want) {
		t.Errorf("slots: got %v, want %v", got.Slots, want)
	}
	if got.TypeID == nil || *got.TypeID != typ.ID {
		t.Errorf("type id not echoed: %v", got.TypeID)
	}
}

func TestResolveDay_BufferPadsBookingsAndSteps(t *testing.T) {
	typ := meetAndGreet()
	typ.DurationMins = 30
	typ.BufferMins = 15
	in := baseInput()
	in.Type = &typ
	in.Types = map[uuid.UUID]AppointmentType{typ.ID: typ}
	in.Appointments = []BookedAppointment{booking(testMonday, StatusConfirmed, "10:30", "11:00", &typ.ID)}

	got := ResolveDay(in)
	wantWindows := []Interval{iv("09:00", "10:15"), iv("11:15", "12:00")}
	if !reflect.DeepEqual(got.Windows, wantWindows) {
		t.Errorf("windows: got %v, want %v", got.Windows, wantWindows)
	}
	wantSlots := []Interval{iv("09:00", "09:30"), iv("09:45", "10:15"), iv("11:15", "11:45")}
	if !reflect.DeepEqual(got.Slots, wantSlots) {
		t.Errorf("slots: got %v, want %v", got.Slots, wantSlots)
	}
}

func TestResolveDay_MinNoticeBoundary(t *testing.T) {
	typ := meetAndGreet()
	typ.MinNoticeHours = 24
	in := baseInput()
	in.Type = &typ
	in.Date = mustDate("2026-10-18")
	in.Rules = []RecurringAvailabilityRule{weekdayRule(0, "07:00", "10:00")}

	// Exactly now+24h is bookable; one minute earlier is not.
	in.Now = time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	got := ResolveDay(in)
	want := []Interval{iv("08:00", "09:00"), iv("09:00", "10:00")}
	if !reflect.DeepEqual(got.Slots, want) {
		t.Errorf("at boundary: got %v, want %v", got.Slots, want)
	}

	in.Now = in.Now.Add(time.Minute)
	got = ResolveDay(in)
	want = []Interval{iv("09:00", "10:00")}
	if !reflect.DeepEqual(got.Slots, want) {
		t.Errorf("one minute late: got %v, want %v", got.Slots, want)
	}
}

func TestResolveDay_MinNoticeUsesLocation(t *testing.T) {
	loc := time.FixedZone("CDT", -5*60*60)
	typ := meetAndGreet()
	typ.MinNoticeHours = 1
	in := baseInput()
	in.Type = &typ
	in.Location = loc
	// 14:30 UTC is 09:30 local, so the 09:00 and 10:00 local slots are too soon.
	in.Now = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)
	got := ResolveDay(in)
	want := []Interval{iv("11:00", "12:00")}
	if !reflect.DeepEqual(got.Slots, want) {
		t.Errorf("got %v, want %v", got.Slots, want)
	}
}

func TestResolveDay_AdvanceLimitAndPast(t *testing.T) {
	typ := meetAndGreet()
	typ.MaxAdvanceDays = 2
	in := baseInput()
	in.Type = &typ

	if got := ResolveDay(in); len(got.Slots) == 0 {
		t.Fatal("date inside the horizon should have slots")
	}

	typ.MaxAdvanceDays = 1
	got := ResolveDay(in)
	if len(got.Windows) != 0 || len(got.Slots) != 0 {
		t.Errorf("beyond horizon: %+v", got)
	}

	typ.MaxAdvanceDays = 0
	in.Date = testMonday.AddDays(-7)
	got = ResolveDay(in)
	if len(got.Windows) != 0 || len(got.Slots) != 0 {
		t.Errorf("past date: %+v", got)
	}
}

func TestResolveDay_InactiveAndTypeScopedRules(t *testing.T) {
	typ := meetAndGreet()
	other := uuid.New()

	inactive := weekdayRule(1, "13:00", "14:00")
	inactive.Active = false
	in := baseInput()
	in.Type = &typ
	in.Rules = append(in.Rules,
		inactive,
		weekdayRule(1, "14:00", "15:00", other),
		weekdayRule(1, "16:00", "17:00", typ.ID),
	)

	got := ResolveDay(in)
	want := []Interval{iv("09:00", "12:00"), iv("16:00", "17:00")}
	if !reflect.DeepEqual(got.Windows, want) {
		t.Errorf("typed: got %v, want %v", got.Windows, want)
	}

	in.Type = nil
	got = ResolveDay(in)
	want = []Interval{iv("09:00", "12:00"), iv("14:00", "15:00"), iv("16:00", "17:00")}
	if !reflect.DeepEqual(got.Windows, want) {
		t.Errorf("any type: got %v, want %v", got.Windows, want)
	}
}

func TestResolveDay_OverlappingRulesMerge(t *testing.T) {
	in := baseInput()
	in.Rules = append(in.Rules, weekdayRule(1, "11:00", "13:00"))
	if got := ResolveDay(in); !reflect.DeepEqual(got.Windows, []Interval{iv("09:00", "13:00")}) {
		t.Errorf("got %v", got.Windows)
	}
}

func TestResolveDay_SkipsMalformedRecords(t *testing.T) {
	in := baseInput()
	in.Rules = append(in.Rules, weekdayRule(1, "15:00", "14:00"))
	in.Overrides = []DateOverride{override(testMonday, OverrideKind("maybe"), "10:00", "11:00")}
	in.Appointments = []BookedAppointment{booking(testMonday, StatusConfirmed, "11:00", "10:00", nil)}

	got := ResolveDay(in)
	if got.Skipped != 3 {
		t.Errorf("skipped = %d, want 3", got.Skipped)
	}
	if !reflect.DeepEqual(got.Windows, []Interval{iv("09:00", "12:00")}) {
		t.Errorf("malformed records leaked: %v", got.Windows)
	}
}

func TestResolveDay_Idempotent(t *testing.T) {
	typ := meetAndGreet()
	typ.BufferMins = 10
	in := baseInput()
	in.Type = &typ
	in.Types = map[uuid.UUID]AppointmentType{typ.ID: typ}
	in.Overrides = []DateOverride{override(testMonday, OverrideBlock, "09:30", "09:45")}
	in.Appointments = []BookedAppointment{booking(testMonday, StatusPending, "11:00", "12:00", &typ.ID)}

	first := ResolveDay(in)
	second := ResolveDay(in)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("resolver not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestResolveDay_SlotsNeverOverlapBookings(t *testing.T) {
	typ := meetAndGreet()
	typ.DurationMins = 45
	in := baseInput()
	in.Type = &typ
	in.Rules = []RecurringAvailabilityRule{weekdayRule(1, "08:00", "18:00")}
	in.Appointments = []BookedAppointment{
		booking(testMonday, StatusConfirmed, "09:10", "09:55", nil),
		booking(testMonday, StatusPending, "13:00", "14:30", nil),
	}
	for _, s := range ResolveDay(in).Slots {
		for _, b := range in.Appointments {
			if s.Overlaps(b.Interval()) {
				t.Errorf("slot %v overlaps booking %v", s, b.Interval())
			}
		}
	}
}

func TestFitsWindow(t *testing.T) {
	windows := []Interval{iv("09:00", "10:00"), iv("11:00", "12:00")}
	if !fitsWindow(windows, iv("11:00", "12:00")) {
		t.Error("exact fit rejected")
	}
	if fitsWindow(windows, iv("09:30", "11:30")) {
		t.Error("interval spanning a gap accepted")
	}
}
