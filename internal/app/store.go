package app

import (
	"context"

	"github.com/google/uuid"
)

// Repository methods return ErrNotFound (wrapped or bare) for unknown ids.
// Create assigns ID and timestamps on the passed record.

type AppointmentTypeRepository interface {
	List(ctx context.Context, activeOnly bool) ([]AppointmentType, error)
	Get(ctx context.Context, id uuid.UUID) (AppointmentType, error)
	Create(ctx context.Context, t *AppointmentType) error
	Update(ctx context.Context, t *AppointmentType) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type RuleRepository interface {
	List(ctx context.Context) ([]RecurringAvailabilityRule, error)
	ListByWeekday(ctx context.Context, dayOfWeek int) ([]RecurringAvailabilityRule, error)
	Get(ctx context.Context, id uuid.UUID) (RecurringAvailabilityRule, error)
	Create(ctx context.Context, r *RecurringAvailabilityRule) error
	Update(ctx context.Context, r *RecurringAvailabilityRule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type OverrideRepository interface {
	// ListRange returns overrides with from <= date <= to, ordered by date
	// then start time. A zero bound is open.
	ListRange(ctx context.Context, from, to Date) ([]DateOverride, error)
	Get(ctx context.Context, id uuid.UUID) (DateOverride, error)
	Create(ctx context.Context, o *DateOverride) error
	Update(ctx context.Context, o *DateOverride) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AppointmentFilter narrows an appointment listing. Zero values mean
// unbounded / any.
type AppointmentFilter struct {
	From   Date
	To     Date
	Status AppointmentStatus
	Limit  int
}

type AppointmentRepository interface {
	List(ctx context.Context, f AppointmentFilter) ([]BookedAppointment, error)
	Get(ctx context.Context, id uuid.UUID) (BookedAppointment, error)
	// Create returns ErrSlotUnavailable when the store rejects an
	// overlapping non-cancelled booking.
	Create(ctx context.Context, b *BookedAppointment) error
	Update(ctx context.Context, b *BookedAppointment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Repositories struct {
	Types        AppointmentTypeRepository
	Rules        RuleRepository
	Overrides    OverrideRepository
	Appointments AppointmentRepository
}

// Store is the availability data store. WithinDateLock runs fn in a
// transaction during which no other WithinDateLock call for the same date
// can commit a booking.
type Store interface {
	Repos() Repositories
	WithinDateLock(ctx context.Context, date Date, fn func(ctx context.Context, repos Repositories) error) error
	Ping(ctx context.Context) error
	Close() error
}
