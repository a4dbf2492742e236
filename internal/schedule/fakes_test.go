package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// In-memory doubles for the store, directory, and locker interfaces. They
// mirror the persisted semantics closely enough for service-level tests: the
// half-open overlap predicate, terminal-status filtering, and active-window
// filtering all match the SQL.

type fakeAvailabilityStore struct {
	mu      sync.Mutex
	windows []AvailabilityWindow
	err     error
}

func (f *fakeAvailabilityStore) CreateWindow(_ context.Context, w AvailabilityWindow) (*AvailabilityWindow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.Active = true
	f.windows = append(f.windows, w)
	return &w, nil
}

func (f *fakeAvailabilityStore) DeactivateWindow(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.windows {
		if f.windows[i].ID == id && f.windows[i].Active {
			f.windows[i].Active = false
			return nil
		}
	}
	return ErrWindowNotFound
}

func (f *fakeAvailabilityStore) FindByVetAndRange(_ context.Context, vetID uuid.UUID, utcStart, utcEnd time.Time) ([]AvailabilityWindow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []AvailabilityWindow
	for _, w := range f.windows {
		if w.VetID == vetID && w.Active && Overlaps(w.StartAt, w.EndAt, utcStart, utcEnd) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeAvailabilityStore) FindByPracticeAndRange(_ context.Context, practiceID uuid.UUID, utcStart, utcEnd time.Time, kinds ...AvailabilityKind) ([]AvailabilityWindow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []AvailabilityWindow
	for _, w := range f.windows {
		if w.PracticeID != practiceID || !w.Active || !Overlaps(w.StartAt, w.EndAt, utcStart, utcEnd) {
			continue
		}
		if len(kinds) > 0 {
			matched := false
			for _, k := range kinds {
				if w.Kind == k {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, w)
	}
	return out, nil
}

type fakeAppointmentStore struct {
	mu        sync.Mutex
	appts     []Appointment
	createErr error

	createCalls   int
	conflictCalls int
}

func (f *fakeAppointmentStore) CreateAppointment(_ context.Context, a Appointment) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if a.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now().UTC()
	f.appts = append(f.appts, a)
	return &a, nil
}

func (f *fakeAppointmentStore) FindConflicting(_ context.Context, vetID uuid.UUID, utcStart, utcEnd time.Time) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conflictCalls++
	var out []Appointment
	for _, a := range f.appts {
		if a.VetID == nil || *a.VetID != vetID || isTerminal(a.Status) {
			continue
		}
		if Overlaps(a.AppointmentAt, a.EndAt(), utcStart, utcEnd) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentStore) GetAppointment(_ context.Context, id uuid.UUID) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.appts {
		if f.appts[i].ID == id {
			a := f.appts[i]
			return &a, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (f *fakeAppointmentStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !CanTransition(from, to) {
		return nil, ErrInvalidTransition
	}
	for i := range f.appts {
		if f.appts[i].ID == id && f.appts[i].Status == from {
			f.appts[i].Status = to
			a := f.appts[i]
			return &a, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (f *fakeAppointmentStore) ListByOwner(_ context.Context, ownerID uuid.UUID, from time.Time, limit int) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Appointment
	for _, a := range f.appts {
		if a.OwnerID == ownerID && !a.AppointmentAt.Before(from) {
			out = append(out, a)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeAppointmentStore) FindOverdueScheduled(_ context.Context, cutoff time.Time) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Appointment
	for _, a := range f.appts {
		if a.Status != StatusScheduled && a.Status != StatusConfirmed {
			continue
		}
		if a.EndAt().Before(cutoff) {
			out = append(out, a)
		}
	}
	return out, nil
}

func isTerminal(s AppointmentStatus) bool {
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

type fakeDirectory struct {
	vets     []Vet
	inactive map[uuid.UUID]bool
	err      error
}

func (f *fakeDirectory) VetsByPractice(_ context.Context, practiceID uuid.UUID) ([]Vet, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []Vet
	for _, v := range f.vets {
		if v.PracticeID == practiceID && !f.inactive[v.ID] {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeDirectory) IsVetActive(_ context.Context, vetID uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, v := range f.vets {
		if v.ID == vetID {
			return !f.inactive[vetID], nil
		}
	}
	return false, nil
}

// fakeLocker runs the critical section inline, optionally failing acquisition.
type fakeLocker struct {
	acquireErr error
	calls      int
}

func (f *fakeLocker) WithBookingLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(ctx context.Context) error) error {
	f.calls++
	if f.acquireErr != nil {
		return f.acquireErr
	}
	return fn(ctx)
}
