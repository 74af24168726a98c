package app

import "sort"

// Interval is a half-open time-of-day range [Start, End).
type Interval struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

func (iv Interval) Valid() bool {
	return iv.Start >= 0 && iv.End <= minutesPerDay && iv.Start < iv.End
}

func (iv Interval) String() string {
	return iv.Start.String() + "-" + iv.End.String()
}

func (iv Interval) Minutes() int {
	return int(iv.End - iv.Start)
}

// Contains reports whether o lies entirely inside iv.
func (iv Interval) Contains(o Interval) bool {
	return iv.Start <= o.Start && o.End <= iv.End
}

func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start < o.End && o.Start < iv.End
}

// Pad widens iv by minutes on both sides, clamped to the day.
func (iv Interval) Pad(minutes int) Interval {
	if minutes <= 0 {
		return iv
	}
	out := Interval{Start: iv.Start - Clock(minutes), End: iv.End + Clock(minutes)}
	if out.Start < 0 {
		out.Start = 0
	}
	if out.End > minutesPerDay {
		out.End = minutesPerDay
	}
	return out
}

// mergeIntervals sorts by start and coalesces intervals that touch or
// overlap. The input slice is not modified.
func mergeIntervals(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := make([]Interval, len(in))
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// subtractInterval removes cut from every interval in set. Each interval
// yields zero, one or two remaining pieces.
func subtractInterval(set []Interval, cut Interval) []Interval {
	out := make([]Interval, 0, len(set)+1)
	for _, iv := range set {
		if !iv.Overlaps(cut) {
			out = append(out, iv)
			continue
		}
		if iv.Start < cut.Start {
			out = append(out, Interval{Start: iv.Start, End: cut.Start})
		}
		if cut.End < iv.End {
			out = append(out, Interval{Start: cut.End, End: iv.End})
		}
	}
	return out
}

func subtractIntervals(set []Interval, cuts []Interval) []Interval {
	for _, cut := range cuts {
		if len(set) == 0 {
			break
		}
		set = subtractInterval(set, cut)
	}
	return set
}

// discretize cuts each window into consecutive slots of size minutes,
// advancing by step minutes. Remainders shorter than size are dropped.
func discretize(windows []Interval, size, step int) []Interval {
	if size <= 0 {
		return nil
	}
	if step < size {
		step = size
	}
	var out []Interval
	for _, w := range windows {
		for s := w.Start; s.Add(size) <= w.End; s = s.Add(step) {
			out = append(out, Interval{Start: s, End: s.Add(size)})
		}
	}
	return out
}

func totalMinutes(set []Interval) int {
	n := 0
	for _, iv := range set {
		n += iv.Minutes()
	}
	return n
}
