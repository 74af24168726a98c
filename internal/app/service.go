package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxRangeDays bounds range queries so one request cannot resolve an
// unbounded number of days.
const maxRangeDays = 62

type Service struct {
	store    Store
	loc      *time.Location
	clock    func() time.Time
	calendar CalendarSync
	log      zerolog.Logger
}

type Option func(*Service)

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func WithCalendarSync(cs CalendarSync) Option {
	return func(s *Service) { s.calendar = cs }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService builds the scheduling service. loc is the business time zone in
// which all rule, override and booking times are interpreted.
func NewService(store Store, loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{
		store:    store,
		loc:      loc,
		clock:    time.Now,
		calendar: noopCalendarSync{},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Location() *time.Location { return s.loc }

// Today returns the current date in the business time zone.
func (s *Service) Today() Date {
	return DateOf(s.clock().In(s.loc))
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// -- Appointment types --

func (s *Service) ListAppointmentTypes(ctx context.Context, activeOnly bool) ([]AppointmentType, error) {
	return s.store.Repos().Types.List(ctx, activeOnly)
}

func (s *Service) GetAppointmentType(ctx context.Context, id uuid.UUID) (AppointmentType, error) {
	return s.store.Repos().Types.Get(ctx, id)
}

func (s *Service) CreateAppointmentType(ctx context.Context, t *AppointmentType) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.store.Repos().Types.Create(ctx, t)
}

func (s *Service) UpdateAppointmentType(ctx context.Context, id uuid.UUID, patch AppointmentTypePatch) (AppointmentType, error) {
	repo := s.store.Repos().Types
	t, err := repo.Get(ctx, id)
	if err != nil {
		return AppointmentType{}, err
	}
	patch.Apply(&t)
	if err := t.Validate(); err != nil {
		return AppointmentType{}, err
	}
	if err := repo.Update(ctx, &t); err != nil {
		return AppointmentType{}, err
	}
	return t, nil
}

func (s *Service) DeleteAppointmentType(ctx context.Context, id uuid.UUID) error {
	return s.store.Repos().Types.Delete(ctx, id)
}

// -- Recurring rules --

func (s *Service) ListRules(ctx context.Context) ([]RecurringAvailabilityRule, error) {
	return s.store.Repos().Rules.List(ctx)
}

func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (RecurringAvailabilityRule, error) {
	return s.store.Repos().Rules.Get(ctx, id)
}

func (s *Service) CreateRule(ctx context.Context, r *RecurringAvailabilityRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.checkTypeRefs(ctx, r.AppointmentTypeIDs); err != nil {
		return err
	}
	return s.store.Repos().Rules.Create(ctx, r)
}

// CreateRules validates every rule before writing any of them, so a bad
// entry leaves the schedule untouched.
func (s *Service) CreateRules(ctx context.Context, rules []RecurringAvailabilityRule) error {
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		if err := s.checkTypeRefs(ctx, rules[i].AppointmentTypeIDs); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return s.store.WithinDateLock(ctx, Date{}, func(ctx context.Context, repos Repositories) error {
		for i := range rules {
			if err := repos.Rules.Create(ctx, &rules[i]); err != nil {
				return fmt.Errorf("rule %d: %w", i, err)
			}
		}
		return nil
	})
}

func (s *Service) UpdateRule(ctx context.Context, id uuid.UUID, patch RulePatch) (RecurringAvailabilityRule, error) {
	repo := s.store.Repos().Rules
	r, err := repo.Get(ctx, id)
	if err != nil {
		return RecurringAvailabilityRule{}, err
	}
	patch.Apply(&r)
	if err := r.Validate(); err != nil {
		return RecurringAvailabilityRule{}, err
	}
	if patch.AppointmentTypeIDs != nil {
		if err := s.checkTypeRefs(ctx, r.AppointmentTypeIDs); err != nil {
			return RecurringAvailabilityRule{}, err
		}
	}
	if err := repo.Update(ctx, &r); err != nil {
		return RecurringAvailabilityRule{}, err
	}
	return r, nil
}

func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	return s.store.Repos().Rules.Delete(ctx, id)
}

func (s *Service) checkTypeRefs(ctx context.Context, ids []uuid.UUID) error {
	types := s.store.Repos().Types
	for _, id := range ids {
		if _, err := types.Get(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: unknown appointment type %s", ErrInvalidInput, id)
			}
			return err
		}
	}
	return nil
}

// -- Date overrides --

func (s *Service) ListOverrides(ctx context.Context, from, to Date) ([]DateOverride, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, fmt.Errorf("%w: from must not be after to", ErrInvalidInput)
	}
	return s.store.Repos().Overrides.ListRange(ctx, from, to)
}

func (s *Service) GetOverride(ctx context.Context, id uuid.UUID) (DateOverride, error) {
	return s.store.Repos().Overrides.Get(ctx, id)
}

func (s *Service) CreateOverride(ctx context.Context, o *DateOverride) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return s.store.Repos().Overrides.Create(ctx, o)
}

func (s *Service) UpdateOverride(ctx context.Context, id uuid.UUID, patch OverridePatch) (DateOverride, error) {
	repo := s.store.Repos().Overrides
	o, err := repo.Get(ctx, id)
	if err != nil {
		return DateOverride{}, err
	}
	patch.Apply(&o)
	if err := o.Validate(); err != nil {
		return DateOverride{}, err
	}
	if err := repo.Update(ctx, &o); err != nil {
		return DateOverride{}, err
	}
	return o, nil
}

func (s *Service) DeleteOverride(ctx context.Context, id uuid.UUID) error {
	return s.store.Repos().Overrides.Delete(ctx, id)
}

// -- Availability --

// Availability resolves the open windows for date. With a type id the result
// also carries the bookable slots of that type.
func (s *Service) Availability(ctx context.Context, date Date, typeID *uuid.UUID) (DayAvailability, error) {
	days, err := s.AvailabilityRange(ctx, date, date, typeID)
	if err != nil {
		return DayAvailability{}, err
	}
	return days[0], nil
}

func (s *Service) AvailabilityRange(ctx context.Context, from, to Date, typeID *uuid.UUID) ([]DayAvailability, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	apptType, err := s.bookableType(ctx, repos, typeID)
	if err != nil {
		return nil, err
	}
	base, err := s.loadRange(ctx, repos, from, to)
	if err != nil {
		return nil, err
	}
	base.Type = apptType

	var out []DayAvailability
	for d := from; !d.After(to); d = d.AddDays(1) {
		in := base
		in.Date = d
		day := ResolveDay(in)
		if day.Skipped > 0 {
			s.log.Warn().Str("date", d.String()).Int("skipped", day.Skipped).Msg("ignored malformed availability records")
		}
		out = append(out, day)
	}
	return out, nil
}

// CalendarSummary returns one aggregate per date in [from, to].
func (s *Service) CalendarSummary(ctx context.Context, from, to Date) ([]DaySummary, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	base, err := s.loadRange(ctx, s.store.Repos(), from, to)
	if err != nil {
		return nil, err
	}
	var out []DaySummary
	for d := from; !d.After(to); d = d.AddDays(1) {
		in := base
		in.Date = d
		out = append(out, SummarizeDay(in))
	}
	return out, nil
}

func checkRange(from, to Date) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: from and to are required", ErrInvalidInput)
	}
	if to.Before(from) {
		return fmt.Errorf("%w: from must not be after to", ErrInvalidInput)
	}
	if from.DaysUntil(to) >= maxRangeDays {
		return fmt.Errorf("%w: range is limited to %d days", ErrInvalidInput, maxRangeDays)
	}
	return nil
}

func (s *Service) bookableType(ctx context.Context, repos Repositories, typeID *uuid.UUID) (*AppointmentType, error) {
	if typeID == nil {
		return nil, nil
	}
	t, err := repos.Types.Get(ctx, *typeID)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, ErrTypeInactive
	}
	return &t, nil
}

// loadRange reads every record the resolver needs for dates in [from, to].
// The returned input has no Date or Type set.
func (s *Service) loadRange(ctx context.Context, repos Repositories, from, to Date) (DayInput, error) {
	types, err := repos.Types.List(ctx, false)
	if err != nil {
		return DayInput{}, fmt.Errorf("list appointment types: %w", err)
	}
	var rules []RecurringAvailabilityRule
	if from.Equal(to) {
		rules, err = repos.Rules.ListByWeekday(ctx, from.DayOfWeek())
	} else {
		rules, err = repos.Rules.List(ctx)
	}
	if err != nil {
		return DayInput{}, fmt.Errorf("list rules: %w", err)
	}
	overrides, err := repos.Overrides.ListRange(ctx, from, to)
	if err != nil {
		return DayInput{}, fmt.Errorf("list overrides: %w", err)
	}
	appts, err := repos.Appointments.List(ctx, AppointmentFilter{From: from, To: to})
	if err != nil {
		return DayInput{}, fmt.Errorf("list appointments: %w", err)
	}

	index := make(map[uuid.UUID]AppointmentType, len(types))
	for _, t := range types {
		index[t.ID] = t
	}
	return DayInput{
		Now:          s.clock(),
		Location:     s.loc,
		Types:        index,
		Rules:        rules,
		Overrides:    overrides,
		Appointments: appts,
	}, nil
}

// -- Booking --

type BookingRequest struct {
	AppointmentTypeID *uuid.UUID `json:"appointment_type_id"`
	Date              Date       `json:"date"`
	StartTime         Clock      `json:"start_time"`
	// EndTime may be omitted when a type is given; the type's duration
	// then determines it.
	EndTime       *Clock `json:"end_time"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Purpose       string `json:"purpose"`
	Notes         string `json:"notes"`
}

// Book re-resolves availability for the requested date under the store's
// date lock and writes the appointment only if the requested interval still
// fits in an open window. Otherwise it returns ErrSlotUnavailable and writes
// nothing.
func (s *Service) Book(ctx context.Context, req BookingRequest) (BookedAppointment, error) {
	if req.Date.IsZero() {
		return BookedAppointment{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.CustomerName) == "" || strings.TrimSpace(req.CustomerEmail) == "" {
		return BookedAppointment{}, fmt.Errorf("%w: customer name and email are required", ErrInvalidInput)
	}

	var (
		appt     BookedAppointment
		apptType *AppointmentType
	)
	err := s.store.WithinDateLock(ctx, req.Date, func(ctx context.Context, repos Repositories) error {
		var err error
		apptType, err = s.bookableType(ctx, repos, req.AppointmentTypeID)
		if err != nil {
			return err
		}
		iv, err := requestedInterval(req, apptType)
		if err != nil {
			return err
		}

		in, err := s.loadRange(ctx, repos, req.Date, req.Date)
		if err != nil {
			return err
		}
		start := req.Date.At(iv.Start, s.loc)
		if req.Date.Before(DateOf(in.Now.In(s.loc))) || start.Before(in.Now) {
			return fmt.Errorf("%w: %s %s is in the past", ErrSlotUnavailable, req.Date, iv.Start)
		}
		in.Date = req.Date
		in.Type = apptType
		if apptType == nil {
			in.Rules = untypedRules(in.Rules)
		}
		day := ResolveDay(in)
		if !fitsWindow(day.Windows, iv) {
			return ErrSlotUnavailable
		}
		if apptType != nil {
			earliest := in.Now.Add(time.Duration(apptType.MinNoticeHours) * time.Hour)
			if start.Before(earliest) {
				return fmt.Errorf("%w: %s requires %d hours notice", ErrSlotUnavailable, apptType.Name, apptType.MinNoticeHours)
			}
		}

		status := StatusConfirmed
		if apptType != nil && apptType.RequiresApproval() {
			status = StatusPending
		}
		appt = BookedAppointment{
			AppointmentTypeID: req.AppointmentTypeID,
			Date:              req.Date,
			StartTime:         iv.Start,
			EndTime:           iv.End,
			CustomerName:      strings.TrimSpace(req.CustomerName),
			CustomerEmail:     strings.TrimSpace(req.CustomerEmail),
			CustomerPhone:     strings.TrimSpace(req.CustomerPhone),
			Purpose:           req.Purpose,
			Notes:             req.Notes,
			Status:            status,
		}
		if err := appt.Validate(); err != nil {
			return err
		}
		return repos.Appointments.Create(ctx, &appt)
	})
	if err != nil {
		return BookedAppointment{}, err
	}

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("date", appt.Date.String()).
		Str("start", appt.StartTime.String()).
		Str("status", string(appt.Status)).
		Msg("appointment booked")

	if appt.Status == StatusConfirmed {
		s.pushToCalendar(ctx, &appt, apptType)
	}
	return appt, nil
}

// untypedRules keeps the rules open to every type. Windows reserved for
// particular types cannot be booked without naming one.
func untypedRules(rules []RecurringAvailabilityRule) []RecurringAvailabilityRule {
	out := rules[:0:0]
	for _, r := range rules {
		if len(r.AppointmentTypeIDs) == 0 {
			out = append(out, r)
		}
	}
	return out
}

func requestedInterval(req BookingRequest, apptType *AppointmentType) (Interval, error) {
	iv := Interval{Start: req.StartTime}
	switch {
	case req.EndTime != nil:
		iv.End = *req.EndTime
	case apptType != nil:
		iv.End = req.StartTime.Add(apptType.DurationMins)
	default:
		return Interval{}, fmt.Errorf("%w: end_time or appointment_type_id is required", ErrInvalidInput)
	}
	if !iv.Valid() {
		return Interval{}, ErrInvalidInterval
	}
	if apptType != nil && iv.Minutes() != apptType.DurationMins {
		return Interval{}, fmt.Errorf("%w: %s lasts %d minutes", ErrInvalidInput, apptType.Name, apptType.DurationMins)
	}
	return iv, nil
}

// -- Booked appointments --

func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter) ([]BookedAppointment, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	return s.store.Repos().Appointments.List(ctx, f)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (BookedAppointment, error) {
	return s.store.Repos().Appointments.Get(ctx, id)
}

// TransitionAppointment moves a booking to status to. Cancelling frees its
// interval for the next resolver call.
func (s *Service) TransitionAppointment(ctx context.Context, id uuid.UUID, to AppointmentStatus) (BookedAppointment, error) {
	repos := s.store.Repos()
	appt, err := repos.Appointments.Get(ctx, id)
	if err != nil {
		return BookedAppointment{}, err
	}
	if !appt.Status.CanTransition(to) {
		return BookedAppointment{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, to)
	}
	from := appt.Status
	appt.Status = to
	if err := repos.Appointments.Update(ctx, &appt); err != nil {
		return BookedAppointment{}, err
	}

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("appointment status changed")

	switch to {
	case StatusConfirmed:
		var apptType *AppointmentType
		if appt.AppointmentTypeID != nil {
			if t, err := repos.Types.Get(ctx, *appt.AppointmentTypeID); err == nil {
				apptType = &t
			}
		}
		s.pushToCalendar(ctx, &appt, apptType)
	case StatusCancelled:
		s.removeFromCalendar(ctx, &appt)
	}
	return appt, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	repos := s.store.Repos()
	appt, err := repos.Appointments.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := repos.Appointments.Delete(ctx, id); err != nil {
		return err
	}
	if appt.CalendarEventID != "" {
		if err := s.calendar.RemoveAppointment(ctx, appt.CalendarEventID); err != nil {
			s.log.Warn().Err(err).Str("appointment_id", id.String()).Msg("calendar removal failed")
		}
	}
	return nil
}

// Calendar sync failures never fail the booking flow.

func (s *Service) pushToCalendar(ctx context.Context, appt *BookedAppointment, apptType *AppointmentType) {
	eventID, err := s.calendar.PushAppointment(ctx, *appt, apptType)
	if err != nil {
		s.log.Warn().Err(err).Str("appointment_id", appt.ID.String()).Msg("calendar sync failed")
		return
	}
	if eventID == "" {
		return
	}
	appt.CalendarEventID = eventID
	if err := s.store.Repos().Appointments.Update(ctx, appt); err != nil {
		s.log.Warn().Err(err).Str("appointment_id", appt.ID.String()).Msg("saving calendar event id failed")
	}
}

func (s *Service) removeFromCalendar(ctx context.Context, appt *BookedAppointment) {
	if appt.CalendarEventID == "" {
		return
	}
	if err := s.calendar.RemoveAppointment(ctx, appt.CalendarEventID); err != nil {
		s.log.Warn().Err(err).Str("appointment_id", appt.ID.String()).Msg("calendar removal failed")
		return
	}
	appt.CalendarEventID = ""
	if err := s.store.Repos().Appointments.Update(ctx, appt); err != nil {
		s.log.Warn().Err(err).Str("appointment_id", appt.ID.String()).Msg("clearing calendar event id failed")
	}
}
