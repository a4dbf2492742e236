package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vetcal/scheduling-service/internal/localtime"
	"github.com/vetcal/scheduling-service/internal/observability/metrics"
	redisclient "github.com/vetcal/scheduling-service/internal/redis"
	"github.com/vetcal/scheduling-service/pkg/logging"
)

// BookingRequest carries a caller's wall-clock slot ask. Date and clock are
// local to Timezone; conversion to UTC happens here, before any conflict
// check touches storage.
type BookingRequest struct {
	PracticeID      uuid.UUID
	OwnerID         uuid.UUID
	VetID           *uuid.UUID // nil requests auto-assignment
	LocalDate       string     // 2006-01-02
	LocalTime       string     // 15:04 or spoken
	Timezone        string
	DurationMinutes int
	ServiceType     string
	Notes           string
}

// BookingService validates a requested slot, resolves a vet, and commits the
// appointment. The check-then-insert section runs under a per-vet Redis lock;
// the storage exclusion constraint stays authoritative for races the lock
// misses.
type BookingService struct {
	availability AvailabilityStore
	appointments AppointmentStore
	directory    Directory
	locker       redisclient.Locker
	logger       *logging.Logger
	metrics      *metrics.SchedulingMetrics

	defaultMinutes int
}

type BookingServiceParams struct {
	Availability   AvailabilityStore
	Appointments   AppointmentStore
	Directory      Directory
	Locker         redisclient.Locker
	Logger         *logging.Logger
	Metrics        *metrics.SchedulingMetrics
	DefaultMinutes int
}

func NewBookingService(p BookingServiceParams) *BookingService {
	if p.Availability == nil || p.Appointments == nil || p.Directory == nil {
		panic("schedule: availability, appointment, and directory stores required")
	}
	if p.Locker == nil {
		panic("schedule: booking locker required")
	}
	if p.Logger == nil {
		p.Logger = logging.Default()
	}
	if p.DefaultMinutes <= 0 {
		p.DefaultMinutes = 30
	}
	return &BookingService{
		availability:   p.Availability,
		appointments:   p.Appointments,
		directory:      p.Directory,
		locker:         p.Locker,
		logger:         p.Logger,
		metrics:        p.Metrics,
		defaultMinutes: p.DefaultMinutes,
	}
}

// Book runs the booking state machine. Input/parse problems return errors;
// "slot taken" and "nobody free" are normal results.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	minutes := req.DurationMinutes
	if minutes <= 0 {
		minutes = s.defaultMinutes
	}

	utcStart, err := localtime.ToUTC(req.LocalDate, req.LocalTime, req.Timezone)
	if err != nil {
		return nil, err
	}
	utcEnd := utcStart.Add(time.Duration(minutes) * time.Minute)

	vetID, result, err := s.resolveVet(ctx, req, utcStart, utcEnd)
	if err != nil {
		return nil, err
	}
	if result != nil {
		s.metrics.ObserveBooking(string(result.Reason))
		return result, nil
	}

	var booked *Appointment
	err = s.locker.WithBookingLock(ctx, vetID, utcStart, func(lockCtx context.Context) error {
		// Re-check inside the critical section; a parallel booking may have
		// landed between resolve and lock acquisition.
		conflicts, err := s.appointments.FindConflicting(lockCtx, vetID, utcStart, utcEnd)
		if err != nil {
			return fmt.Errorf("conflict check: %w", err)
		}
		if len(conflicts) > 0 {
			return ErrStorageConflict
		}

		appt, err := s.appointments.CreateAppointment(lockCtx, Appointment{
			PracticeID:      req.PracticeID,
			OwnerID:         req.OwnerID,
			VetID:           &vetID,
			AppointmentAt:   utcStart,
			DurationMinutes: minutes,
			Status:          StatusScheduled,
			Title:           req.ServiceType,
			Notes:           req.Notes,
		})
		if err != nil {
			return err
		}
		booked = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrStorageConflict) || errors.Is(err, redisclient.ErrLockNotAcquired) {
			s.metrics.ObserveBooking(string(ReasonSlotConflict))
			return conflictResult(req), nil
		}
		return nil, err
	}

	s.metrics.ObserveBooking("booked")
	s.logger.Info("appointment booked",
		"practice_id", req.PracticeID,
		"vet_id", vetID,
		"appointment_id", booked.ID,
		"start_utc", utcStart,
	)

	// Echo the caller's own wall-clock time back, never the stored UTC.
	localDate, localClock, err := localtime.ToLocal(booked.AppointmentAt, req.Timezone)
	if err != nil {
		return nil, err
	}
	confirmation := fmt.Sprintf("You're booked for %s at %s%s.",
		displayDate(localDate), displayClock(localClock), serviceSuffix(req.ServiceType))

	return &BookingResult{
		Booked:       true,
		Appointment:  booked,
		Confirmation: confirmation,
		Message:      confirmation,
	}, nil
}

// resolveVet picks the vet to book. An explicit ask is honored or refused,
// never silently swapped for another vet; an open ask takes the first active
// vet with covering availability and no conflict.
func (s *BookingService) resolveVet(ctx context.Context, req BookingRequest, utcStart, utcEnd time.Time) (uuid.UUID, *BookingResult, error) {
	if req.VetID != nil {
		vetID := *req.VetID

		active, err := s.directory.IsVetActive(ctx, vetID)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("directory lookup: %w", err)
		}
		if !active {
			return uuid.Nil, &BookingResult{
				Reason:  ReasonNoVetAvailable,
				Message: "That staff member isn't taking appointments right now.",
			}, nil
		}

		covered, err := s.hasCoveringAvailability(ctx, vetID, utcStart, utcEnd)
		if err != nil {
			return uuid.Nil, nil, err
		}
		if !covered {
			return uuid.Nil, &BookingResult{
				Reason:  ReasonOutsideAvailability,
				Message: "That time is outside the vet's working hours.",
			}, nil
		}

		conflicts, err := s.appointments.FindConflicting(ctx, vetID, utcStart, utcEnd)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("conflict check: %w", err)
		}
		if len(conflicts) > 0 {
			return uuid.Nil, conflictResult(req), nil
		}
		return vetID, nil, nil
	}

	vets, err := s.directory.VetsByPractice(ctx, req.PracticeID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("directory lookup: %w", err)
	}

	for _, vet := range vets {
		covered, err := s.hasCoveringAvailability(ctx, vet.ID, utcStart, utcEnd)
		if err != nil {
			return uuid.Nil, nil, err
		}
		if !covered {
			continue
		}
		conflicts, err := s.appointments.FindConflicting(ctx, vet.ID, utcStart, utcEnd)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("conflict check: %w", err)
		}
		if len(conflicts) == 0 {
			return vet.ID, nil, nil
		}
	}

	return uuid.Nil, &BookingResult{
		Reason:  ReasonNoVetAvailable,
		Message: "Nobody is free at that time. Want me to look at nearby times?",
	}, nil
}

// hasCoveringAvailability requires one AVAILABLE window containing the whole
// [utcStart, utcEnd) interval. Two abutting windows don't count as cover;
// staff enter contiguous blocks as one row.
func (s *BookingService) hasCoveringAvailability(ctx context.Context, vetID uuid.UUID, utcStart, utcEnd time.Time) (bool, error) {
	windows, err := s.availability.FindByVetAndRange(ctx, vetID, utcStart, utcEnd)
	if err != nil {
		return false, fmt.Errorf("load windows: %w", err)
	}
	for _, w := range windows {
		if w.Kind != KindAvailable {
			continue
		}
		if !w.StartAt.After(utcStart) && !w.EndAt.Before(utcEnd) {
			return true, nil
		}
	}
	return false, nil
}

func conflictResult(req BookingRequest) *BookingResult {
	return &BookingResult{
		Reason:  ReasonSlotConflict,
		Message: fmt.Sprintf("%s at %s is already taken. Want me to look at nearby times?", displayDate(req.LocalDate), displayClock(req.LocalTime)),
	}
}

func displayDate(date string) string {
	if d, err := time.Parse(localtime.DateLayout, date); err == nil {
		return d.Format("Monday, January 2")
	}
	return date
}

func displayClock(clock string) string {
	if h, m, err := localtime.ParseClock(clock); err == nil {
		return time.Date(0, 1, 1, h, m, 0, 0, time.UTC).Format("3:04 PM")
	}
	return clock
}

func serviceSuffix(service string) string {
	if service == "" {
		return ""
	}
	return fmt.Sprintf(" for %s", service)
}
