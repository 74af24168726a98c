package app

// DaySummary is the per-date aggregate consumed by calendar views.
type DaySummary struct {
	Date         Date `json:"date"`
	Pending      int  `json:"pending"`
	Confirmed    int  `json:"confirmed"`
	Cancelled    int  `json:"cancelled"`
	Completed    int  `json:"completed"`
	HasBlock     bool `json:"has_block"`
	HasRecurring bool `json:"has_recurring"`
	OpenMinutes  int  `json:"open_minutes"`
}

// SummarizeDay derives the calendar aggregate for in.Date. The type filter
// of in is ignored; open minutes are counted for any type.
func SummarizeDay(in DayInput) DaySummary {
	in.Type = nil
	s := DaySummary{Date: in.Date}

	for _, b := range in.Appointments {
		if !b.Date.Equal(in.Date) {
			continue
		}
		switch b.Status {
		case StatusPending:
			s.Pending++
		case StatusConfirmed:
			s.Confirmed++
		case StatusCancelled:
			s.Cancelled++
		case StatusCompleted:
			s.Completed++
		}
	}

	for _, o := range in.Overrides {
		if o.Kind == OverrideBlock && o.Date.Equal(in.Date) && o.Validate() == nil {
			s.HasBlock = true
			break
		}
	}

	weekday := in.Date.DayOfWeek()
	for _, r := range in.Rules {
		if r.Active && r.DayOfWeek == weekday && r.Validate() == nil {
			s.HasRecurring = true
			break
		}
	}

	s.OpenMinutes = totalMinutes(ResolveDay(in).Windows)
	return s
}
