package schedule

import (
	"time"

	"github.com/google/uuid"
)

type AvailabilityKind string

const (
	KindAvailable     AvailabilityKind = "available"
	KindSurgeryBlock  AvailabilityKind = "surgery_block"
	KindUnavailable   AvailabilityKind = "unavailable"
	KindEmergencyOnly AvailabilityKind = "emergency_only"
)

type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no_show"
)

// TerminalStatuses never block a slot: the visit either happened or won't.
var TerminalStatuses = []AppointmentStatus{StatusCancelled, StatusNoShow, StatusCompleted}

// forwardTransitions is the monotonic status machine. Cancel and no-show are
// reachable from any pre-completed state.
var forwardTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled:  {StatusConfirmed, StatusInProgress, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransition reports whether from -> to is a legal forward move.
func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range forwardTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AvailabilityWindow is one contiguous block of a vet's working time, stored
// as absolute UTC instants. Windows for the same vet may overlap; a
// surgery_block over an available window is a legitimate carve-out, so
// callers interpret Kind rather than assuming disjointness.
type AvailabilityWindow struct {
	ID         uuid.UUID
	PracticeID uuid.UUID
	VetID      uuid.UUID
	StartAt    time.Time
	EndAt      time.Time
	Kind       AvailabilityKind
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Appointment is a booked visit. VetID is nil only transiently, before
// auto-assignment resolves a vet; every persisted row carries one.
type Appointment struct {
	ID              uuid.UUID
	PracticeID      uuid.UUID
	OwnerID         uuid.UUID
	VetID           *uuid.UUID
	AppointmentAt   time.Time
	DurationMinutes int
	Status          AppointmentStatus
	Title           string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EndAt is the half-open upper bound of the appointment's interval.
func (a Appointment) EndAt() time.Time {
	return a.AppointmentAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Slot is a derived bookable interval. Never persisted or cached; availability
// and appointments change under concurrent callers.
type Slot struct {
	StartAt    time.Time
	EndAt      time.Time
	VetID      uuid.UUID
	Kind       AvailabilityKind
	Available  bool
	ConflictID *uuid.UUID
}

// Vet is the slice of the staff directory this core reads.
type Vet struct {
	ID         uuid.UUID
	PracticeID uuid.UUID
	Name       string
	Active     bool
}
