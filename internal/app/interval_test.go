package app

import (
	"reflect"
	"testing"
)

func iv(start, end string) Interval {
	s, err := ParseClock(start)
	if err != nil {
		panic(err)
	}
	e, err := ParseClock(end)
	if err != nil {
		panic(err)
	}
	return Interval{Start: s, End: e}
}

func TestMergeIntervals(t *testing.T) {
	tests := []struct {
		name string
		in   []Interval
		want []Interval
	}{
		{"empty", nil, nil},
		{"disjoint stays", []Interval{iv("13:00", "14:00"), iv("09:00", "10:00")},
			[]Interval{iv("09:00", "10:00"), iv("13:00", "14:00")}},
		{"overlap coalesces", []Interval{iv("09:00", "11:00"), iv("10:00", "12:00")},
			[]Interval{iv("09:00", "12:00")}},
		{"touching coalesces", []Interval{iv("09:00", "10:00"), iv("10:00", "11:00")},
			[]Interval{iv("09:00", "11:00")}},
		{"contained absorbed", []Interval{iv("09:00", "17:00"), iv("10:00", "11:00")},
			[]Interval{iv("09:00", "17:00")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeIntervals(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeIntervals_DoesNotModifyInput(t *testing.T) {
	in := []Interval{iv("13:00", "14:00"), iv("09:00", "10:00")}
	mergeIntervals(in)
	if in[0] != iv("13:00", "14:00") {
		t.Errorf("input reordered: %v", in)
	}
}

func TestSubtractInterval(t *testing.T) {
	day := []Interval{iv("09:00", "17:00")}
	tests := []struct {
		name string
		cut  Interval
		want []Interval
	}{
		{"middle splits", iv("12:00", "13:00"), []Interval{iv("09:00", "12:00"), iv("13:00", "17:00")}},
		{"head trims", iv("08:00", "10:00"), []Interval{iv("10:00", "17:00")}},
		{"tail trims", iv("16:00", "18:00"), []Interval{iv("09:00", "16:00")}},
		{"covers removes", iv("08:00", "18:00"), []Interval{}},
		{"adjacent untouched", iv("17:00", "18:00"), []Interval{iv("09:00", "17:00")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := subtractInterval(day, tt.cut)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscretize(t *testing.T) {
	windows := []Interval{iv("09:00", "10:45"), iv("13:00", "13:30")}

	got := discretize(windows, 30, 30)
	want := []Interval{iv("09:00", "09:30"), iv("09:30", "10:00"), iv("10:00", "10:30")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("step=size: got %v, want %v", got, want)
	}

	got = discretize(windows[:1], 30, 45)
	want = []Interval{iv("09:00", "09:30"), iv("09:45", "10:15")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buffered step: got %v, want %v", got, want)
	}

	if got := discretize(windows, 0, 0); got != nil {
		t.Errorf("zero size should yield nothing, got %v", got)
	}
}

func TestInterval_Pad(t *testing.T) {
	if got := iv("10:00", "11:00").Pad(15); got != iv("09:45", "11:15") {
		t.Errorf("got %v", got)
	}
	if got := iv("00:10", "23:55").Pad(30); got != iv("00:00", "24:00") {
		t.Errorf("expected clamp to day, got %v", got)
	}
	if got := iv("10:00", "11:00").Pad(0); got != iv("10:00", "11:00") {
		t.Errorf("zero pad changed interval: %v", got)
	}
}

func TestInterval_Predicates(t *testing.T) {
	a := iv("09:00", "10:00")
	if a.Overlaps(iv("10:00", "11:00")) {
		t.Error("half-open intervals that touch must not overlap")
	}
	if !a.Overlaps(iv("09:59", "11:00")) {
		t.Error("expected overlap")
	}
	if !a.Contains(iv("09:00", "10:00")) || a.Contains(iv("09:30", "10:01")) {
		t.Error("contains mismatch")
	}
	if (Interval{Start: 600, End: 600}).Valid() {
		t.Error("empty interval must be invalid")
	}
	if a.String() != "09:00-10:00" {
		t.Errorf("string: %q", a.String())
	}
	if totalMinutes([]Interval{a, iv("13:00", "13:30")}) != 90 {
		t.Error("total minutes mismatch")
	}
}
