package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory Store for service and handler tests. One mutex
// guards every table, so WithinDateLock serializes all callers.
type memStore struct {
	mu sync.Mutex

	types        map[uuid.UUID]AppointmentType
	rules        map[uuid.UUID]RecurringAvailabilityRule
	overrides    map[uuid.UUID]DateOverride
	appointments map[uuid.UUID]BookedAppointment

	pingErr error
}

func newMemStore() *memStore {
	return &memStore{
		types:        map[uuid.UUID]AppointmentType{},
		rules:        map[uuid.UUID]RecurringAvailabilityRule{},
		overrides:    map[uuid.UUID]DateOverride{},
		appointments: map[uuid.UUID]BookedAppointment{},
	}
}

func (m *memStore) Repos() Repositories { return m.repos(false) }

// repos binds the repositories to m. held is set inside WithinDateLock,
// where the mutex is already taken.
func (m *memStore) repos(held bool) Repositories {
	return Repositories{
		Types:        memTypes{m, held},
		Rules:        memRules{m, held},
		Overrides:    memOverrides{m, held},
		Appointments: memAppointments{m, held},
	}
}

func (m *memStore) WithinDateLock(ctx context.Context, _ Date, fn func(ctx context.Context, repos Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m.repos(true))
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }
func (m *memStore) Close() error               { return nil }

func (m *memStore) lock(held bool) func() {
	if held {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func stamp(id *uuid.UUID, created, updated *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

type memTypes struct {
	m    *memStore
	held bool
}

func (r memTypes) List(_ context.Context, activeOnly bool) ([]AppointmentType, error) {
	defer r.m.lock(r.held)()
	out := []AppointmentType{}
	for _, t := range r.m.types {
		if activeOnly && !t.Active {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memTypes) Get(_ context.Context, id uuid.UUID) (AppointmentType, error) {
	defer r.m.lock(r.held)()
	t, ok := r.m.types[id]
	if !ok {
		return AppointmentType{}, ErrNotFound
	}
	return t, nil
}

func (r memTypes) Create(_ context.Context, t *AppointmentType) error {
	defer r.m.lock(r.held)()
	stamp(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	r.m.types[t.ID] = *t
	return nil
}

func (r memTypes) Update(_ context.Context, t *AppointmentType) error {
	defer r.m.lock(r.held)()
	if _, ok := r.m.types[t.ID]; !ok {
		return ErrNotFound
	}
	stamp(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	r.m.types[t.ID] = *t
	return nil
}

func (r memTypes) Delete(_ context.Context, id uuid.UUID) error {
	defer r.m.lock(r.held)()
	if _, ok := r.m.types[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.types, id)
	for k, b := range r.m.appointments {
		if b.AppointmentTypeID != nil && *b.AppointmentTypeID == id {
			b.AppointmentTypeID = nil
			r.m.appointments[k] = b
		}
	}
	return nil
}

type memRules struct {
	m    *memStore
	held bool
}

func (r memRules) List(ctx context.Context) ([]RecurringAvailabilityRule, error) {
	return r.ListByWeekday(ctx, -1)
}

func (r memRules) ListByWeekday(_ context.Context, dayOfWeek int) ([]RecurringAvailabilityRule, error) {
	defer r.m.lock(r.held)()
	out := []RecurringAvailabilityRule{}
	for _, rule := range r.m.rules {
		if dayOfWeek >= 0 && rule.DayOfWeek != dayOfWeek {
			continue
		}
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r memRules) Get(_ context.Context, id uuid.UUID) (RecurringAvailabilityRule, error) {
	defer r.m.lock(r.held)()
	rule, ok := r.m.rules[id]
	if !ok {
		return RecurringAvailabilityRule{}, ErrNotFound
	}
	return rule, nil
}

func (r memRules) Create(_ context.Context, rule *RecurringAvailabilityRule) error {
	defer r.m.lock(r.held)()
	stamp(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	r.m.rules[rule.ID] = *rule
	return nil
}

func (r memRules) Update(_ context.Context, rule *RecurringAvailabilityRule) error {
	defer r.m.lock(r.held)()
	if _, ok := r.m.rules[rule.ID]; !ok {
		return ErrNotFound
	}
	stamp(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	r.m.rules[rule.ID] = *rule
	return nil
}

func (r memRules) Delete(_ context.Context, id uuid.UUID) error {
	defer r.m.lock(r.held)()
	if _, ok := r.m.rules[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.rules, id)
	return nil
}

type memOverrides struct {
	m    *memStore
	held bool
}

func (r memOverrides) ListRange(_ context.Context, from, to Date) ([]DateOverride, error) {
	defer r.m.lock(r.held)()
	out := []DateOverride{}
	for _, o := range r.m.overrides {
		if !from.IsZero() && o.Date.Before(from) {
			continue
		}
		if !to.IsZero() && o.Date.After(to) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r memOverrides) Get(_ context.Context, id uuid.UUID) (DateOverride, error) {
	defer r.m.lock(r.held)()
	o, ok := r.m.overrides[id]
	if !ok {
		return DateOverride{}, ErrNotFound
	}
	return o, nil
}

func (r memOverrides) Create(_ context.Context, o *DateOverride) error {
	defer r.m.lock(r.held)()
	stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	r.m.overrides[o.ID] = *o
	return nil
}

func (r memOverrides) Update(_ context.Context, o *DateOverride) error {
	defer r.m.lock(r.held)()
	if _, ok := r.m.overrides[o.ID]; !ok {
		return ErrNotFound
	}
	stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	r.m.overrides[o.ID] = *o
	return nil
}

func (r memOverrides) Delete(_ context.Context, id uuid.UUID) error {
	defer r.m.lock(r.held)()
	if _, ok := r.m.overrides[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.overrides, id)
	return nil
}

type memAppointments struct {
	m    *memStore
	held bool
}

func (r memAppointments) List(_ context.Context, f AppointmentFilter) ([]BookedAppointment, error) {
	defer r.m.lock(r.held)()
	out := []BookedAppointment{}
	for _, b := range r.m.appointments {
		if !f.From.IsZero() && b.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && b.Date.After(f.To) {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r memAppointments) Get(_ context.Context, id uuid.UUID) (BookedAppointment, error) {
	defer r.m.lock(r.held)()
	b, ok := r.m.appointments[id]
	if !ok {
		return BookedAppointment{}, ErrNotFound
	}
	return b, nil
}

// Create enforces the same no-overlap rule as the SQL stores.
func (r memAppointments) Create(_ context.Context, b *BookedAppointment) error {
	defer r.m.lock(r.held)()
	if b.Occupies() {
		for _, other := range r.m.appointments {
			if other.Occupies() && other.Date.Equal(b.Date) && other.Interval().Overlaps(b.Interval()) {
				return ErrSlotUnavailable
			}
		}
	}
	stamp(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	r.m.appointments[b.ID] = *b
	return nil
}

func (r memAppointments) Update(_ context.Context, b *BookedAppointment) error {
	defer r.m.lock(r.held)()
	if _, ok := r.m.appointments[b.ID]; !ok {
		return ErrNotFound
	}
	stamp(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	r.m.appointments[b.ID] = *b
	return nil
}

func (r memAppointments) Delete(_ context.Context, id uuid.UUID) error {
	defer r.m.lock(r.held)()
	if _, ok := r.m.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.appointments, id)
	return nil
}
