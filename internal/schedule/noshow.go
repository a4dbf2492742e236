package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/vetcal/scheduling-service/pkg/logging"
)

// NoShowSweeper marks scheduled/confirmed visits whose end passed more than
// a grace period ago as no-shows, so they stop blocking the vet's slots.
type NoShowSweeper struct {
	store  AppointmentStore
	clock  Clock
	grace  time.Duration
	logger *logging.Logger
}

func NewNoShowSweeper(store AppointmentStore, clock Clock, grace time.Duration, logger *logging.Logger) *NoShowSweeper {
	if store == nil {
		panic("schedule: appointment store required")
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &NoShowSweeper{store: store, clock: clock, grace: grace, logger: logger}
}

// Sweep runs one pass and returns how many appointments it flagged. A row
// that another writer moved first is skipped, not an error.
func (s *NoShowSweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.clock().UTC().Add(-s.grace)

	overdue, err := s.store.FindOverdueScheduled(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, appt := range overdue {
		_, err := s.store.UpdateStatus(ctx, appt.ID, appt.Status, StatusNoShow)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				continue
			}
			s.logger.Warn("failed to flag no-show", "appointment_id", appt.ID, "error", err)
			continue
		}
		flagged++
	}

	if flagged > 0 {
		s.logger.Info("no-show sweep complete", "flagged", flagged, "cutoff", cutoff)
	}
	return flagged, nil
}
