package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vetcal/scheduling-service/internal/localtime"
	"github.com/vetcal/scheduling-service/internal/observability/metrics"
	"github.com/vetcal/scheduling-service/pkg/logging"
)

// AvailabilityQuery is one caller request for open slots.
type AvailabilityQuery struct {
	PracticeID uuid.UUID
	Timezone   string
	TimeOfDay  TimeOfDay
	Range      RangeRequest
}

// QueryService resolves fuzzy date asks into concrete slot offers:
// resolve range, scan preferred weekdays first, then every day in range up
// to the scan cap, and stop at the first day with matches.
type QueryService struct {
	availability AvailabilityStore
	appointments AppointmentStore
	resolver     *Resolver
	logger       *logging.Logger
	metrics      *metrics.SchedulingMetrics

	slotMinutes int
	maxOffers   int
	scanDayCap  int
}

type QueryServiceParams struct {
	Availability AvailabilityStore
	Appointments AppointmentStore
	Clock        Clock
	Logger       *logging.Logger
	Metrics      *metrics.SchedulingMetrics
	SlotMinutes  int
	MaxOffers    int
	ScanDayCap   int
}

func NewQueryService(p QueryServiceParams) *QueryService {
	if p.Availability == nil || p.Appointments == nil {
		panic("schedule: availability and appointment stores required")
	}
	if p.Logger == nil {
		p.Logger = logging.Default()
	}
	if p.SlotMinutes <= 0 {
		p.SlotMinutes = 30
	}
	if p.MaxOffers <= 0 {
		p.MaxOffers = 3
	}
	if p.ScanDayCap <= 0 {
		p.ScanDayCap = 21
	}
	return &QueryService{
		availability: p.Availability,
		appointments: p.Appointments,
		resolver:     NewResolver(p.Clock),
		logger:       p.Logger,
		metrics:      p.Metrics,
		slotMinutes:  p.SlotMinutes,
		maxOffers:    p.MaxOffers,
		scanDayCap:   p.ScanDayCap,
	}
}

// FindAvailability runs the scan. Zero matches is a normal result carrying a
// suggestion, never an error.
func (s *QueryService) FindAvailability(ctx context.Context, q AvailabilityQuery) (*AvailabilityResult, error) {
	loc, err := localtime.Location(q.Timezone)
	if err != nil {
		return nil, err
	}

	dateRange := s.resolver.Resolve(q.Range, loc)
	days := orderCandidateDays(dateRange, s.scanDayCap)

	searched := 0
	for _, day := range days {
		searched++

		offers, err := s.slotsForLocalDay(ctx, q, day, loc)
		if err != nil {
			return nil, err
		}
		if len(offers) == 0 {
			continue
		}

		if len(offers) > s.maxOffers {
			offers = offers[:s.maxOffers]
		}
		s.metrics.ObserveQuery("found")
		s.logger.Info("availability found",
			"practice_id", q.PracticeID,
			"local_day", day.Format(localtime.DateLayout),
			"offers", len(offers),
			"searched_days", searched,
		)
		return &AvailabilityResult{
			Found:        true,
			Slots:        offers,
			SearchedDays: searched,
			Message:      summarizeOffers(offers, dateRange.Description),
		}, nil
	}

	s.metrics.ObserveQuery("none")
	return &AvailabilityResult{
		Found:        false,
		SearchedDays: searched,
		Message:      fmt.Sprintf("No %s openings %s.", bandWord(q.TimeOfDay), dateRange.Description),
		Suggestion:   suggestNext(q.TimeOfDay),
	}, nil
}

// slotsForLocalDay generates the day's open slots. The local day is queried
// as one UTC span covering both adjacent UTC calendar dates; generated slots
// are deduplicated by vet and UTC instant, kept only if their local date is
// the target day, and band-filtered on the local hour.
func (s *QueryService) slotsForLocalDay(ctx context.Context, q AvailabilityQuery, day time.Time, loc *time.Location) ([]SlotOffer, error) {
	dayStr := day.Format(localtime.DateLayout)
	utcStart, utcEnd, err := localtime.DayRange(dayStr, q.Timezone)
	if err != nil {
		return nil, err
	}

	windows, err := s.availability.FindByPracticeAndRange(ctx, q.PracticeID, utcStart, utcEnd, KindAvailable)
	if err != nil {
		return nil, fmt.Errorf("load windows: %w", err)
	}
	if len(windows) == 0 {
		return nil, nil
	}

	// Slots are generated over whole windows, which can extend past the local
	// day's UTC span. Conflicts must cover the windows' full extents or an
	// appointment just beyond the span could overlap a straddling slot unseen.
	confStart, confEnd := utcStart, utcEnd
	for _, w := range windows {
		if w.StartAt.Before(confStart) {
			confStart = w.StartAt
		}
		if w.EndAt.After(confEnd) {
			confEnd = w.EndAt
		}
	}

	conflicts, err := s.conflictsForWindows(ctx, windows, confStart, confEnd)
	if err != nil {
		return nil, err
	}

	slots := GenerateForWindows(windows, conflicts, s.slotMinutes)

	var offers []SlotOffer
	for _, slot := range slots {
		if !slot.Available {
			continue
		}
		local := slot.StartAt.In(loc)
		if local.Format(localtime.DateLayout) != dayStr {
			continue
		}
		if !q.TimeOfDay.Matches(local.Hour()) {
			continue
		}
		offers = append(offers, formatOffer(slot, loc))
	}
	return offers, nil
}

func (s *QueryService) conflictsForWindows(ctx context.Context, windows []AvailabilityWindow, utcStart, utcEnd time.Time) ([]Appointment, error) {
	seen := make(map[uuid.UUID]bool)
	var conflicts []Appointment
	for _, w := range windows {
		if seen[w.VetID] {
			continue
		}
		seen[w.VetID] = true

		appts, err := s.appointments.FindConflicting(ctx, w.VetID, utcStart, utcEnd)
		if err != nil {
			return nil, fmt.Errorf("load conflicts for vet: %w", err)
		}
		conflicts = append(conflicts, appts...)
	}
	return conflicts, nil
}

// orderCandidateDays lays out the scan order: preferred weekdays in calendar
// order first, then the remaining days in calendar order, truncated to cap.
func orderCandidateDays(r DateRange, limit int) []time.Time {
	all := r.Days()

	preferred := make(map[time.Weekday]bool)
	for _, wd := range r.PreferredDays {
		preferred[wd] = true
	}

	var ordered []time.Time
	for _, d := range all {
		if preferred[d.Weekday()] {
			ordered = append(ordered, d)
		}
	}
	for _, d := range all {
		if !preferred[d.Weekday()] {
			ordered = append(ordered, d)
		}
	}

	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}

func summarizeOffers(offers []SlotOffer, rangeDesc string) string {
	var parts []string
	for _, o := range offers {
		parts = append(parts, o.Display)
	}
	if len(parts) == 1 {
		return fmt.Sprintf("I have %s open.", parts[0])
	}
	return fmt.Sprintf("Looking at %s, I can offer: %s.", rangeDesc, strings.Join(parts, "; "))
}

func bandWord(t TimeOfDay) string {
	if t == TimeOfDayAny || t == "" {
		return "open"
	}
	return string(t)
}

func suggestNext(t TimeOfDay) string {
	if t == TimeOfDayAny || t == "" {
		return "Would a different week work for you?"
	}
	return fmt.Sprintf("Would a time outside the %s, or a different day, work for you?", t)
}
