package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrWindowNotFound      = errors.New("availability window not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidWindow       = errors.New("window start must be before end")
	ErrInvalidDuration     = errors.New("appointment duration must be positive")
	ErrInvalidTransition   = errors.New("invalid status transition")

	// ErrStorageConflict surfaces the database exclusion constraint rejecting
	// a concurrent overlapping insert for the same vet.
	ErrStorageConflict = errors.New("conflicting appointment already persisted")
)

// AvailabilityStore persists vet availability windows. Instants must already
// be UTC; wall-clock conversion is the caller's job.
type AvailabilityStore interface {
	CreateWindow(ctx context.Context, w AvailabilityWindow) (*AvailabilityWindow, error)
	DeactivateWindow(ctx context.Context, id uuid.UUID) error

	// FindByVetAndRange returns active windows overlapping [utcStart, utcEnd)
	// using the half-open predicate start_at < utcEnd AND end_at > utcStart.
	FindByVetAndRange(ctx context.Context, vetID uuid.UUID, utcStart, utcEnd time.Time) ([]AvailabilityWindow, error)

	// FindByPracticeAndRange is the same scan across all vets of a practice,
	// optionally narrowed to the given kinds.
	FindByPracticeAndRange(ctx context.Context, practiceID uuid.UUID, utcStart, utcEnd time.Time, kinds ...AvailabilityKind) ([]AvailabilityWindow, error)
}

// AppointmentStore persists booked appointments.
type AppointmentStore interface {
	// CreateAppointment inserts and returns the stored row. A concurrent
	// overlapping insert for the same vet fails with ErrStorageConflict.
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)

	// FindConflicting returns non-terminal appointments for the vet
	// overlapping [utcStart, utcEnd), same half-open predicate as windows.
	// Two appointments starting at the identical instant conflict.
	FindConflicting(ctx context.Context, vetID uuid.UUID, utcStart, utcEnd time.Time) ([]Appointment, error)

	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, from time.Time, limit int) ([]Appointment, error)

	// FindOverdueScheduled feeds the no-show sweeper: scheduled/confirmed
	// visits whose end passed before the cutoff.
	FindOverdueScheduled(ctx context.Context, cutoff time.Time) ([]Appointment, error)
}

// Directory is the practice/staff lookup this core consumes but never writes.
type Directory interface {
	VetsByPractice(ctx context.Context, practiceID uuid.UUID) ([]Vet, error)
	IsVetActive(ctx context.Context, vetID uuid.UUID) (bool, error)
}
