package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utcTime(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func testWindow(vetID uuid.UUID, start, end time.Time) AvailabilityWindow {
	return AvailabilityWindow{
		ID:         uuid.New(),
		PracticeID: uuid.New(),
		VetID:      vetID,
		StartAt:    start,
		EndAt:      end,
		Kind:       KindAvailable,
		Active:     true,
	}
}

func testAppt(vetID uuid.UUID, at time.Time, minutes int) Appointment {
	return Appointment{
		ID:              uuid.New(),
		VetID:           &vetID,
		AppointmentAt:   at,
		DurationMinutes: minutes,
		Status:          StatusScheduled,
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	nine := utcTime(2026, 10, 3, 9, 0)
	ten := utcTime(2026, 10, 3, 10, 0)
	eleven := utcTime(2026, 10, 3, 11, 0)

	assert.True(t, Overlaps(nine, eleven, ten, eleven))
	assert.True(t, Overlaps(nine, ten, nine, ten), "identical intervals overlap")
	assert.False(t, Overlaps(nine, ten, ten, eleven), "abutting intervals do not overlap")
	assert.False(t, Overlaps(ten, eleven, nine, ten))
}

func TestGenerateSlots_ConflictMarksOnlyCoveredSlot(t *testing.T) {
	vetID := uuid.New()
	// 09:00-12:00 window with a 10:00 half-hour appointment.
	window := testWindow(vetID, utcTime(2026, 10, 3, 9, 0), utcTime(2026, 10, 3, 12, 0))
	appt := testAppt(vetID, utcTime(2026, 10, 3, 10, 0), 30)

	slots := GenerateSlots(window, []Appointment{appt}, 30)
	require.Len(t, slots, 6)

	byStart := make(map[string]Slot)
	for _, s := range slots {
		byStart[s.StartAt.Format("15:04")] = s
	}

	assert.True(t, byStart["09:00"].Available)
	assert.True(t, byStart["09:30"].Available)
	assert.False(t, byStart["10:00"].Available)
	require.NotNil(t, byStart["10:00"].ConflictID)
	assert.Equal(t, appt.ID, *byStart["10:00"].ConflictID)
	// A slot starting exactly at the appointment's end is free.
	assert.True(t, byStart["10:30"].Available)
	assert.True(t, byStart["11:00"].Available)
	assert.True(t, byStart["11:30"].Available)
}

func TestGenerateSlots_CoveredAppointmentAlwaysBlocks(t *testing.T) {
	vetID := uuid.New()
	window := testWindow(vetID, utcTime(2026, 10, 3, 9, 0), utcTime(2026, 10, 3, 17, 0))
	appt := testAppt(vetID, utcTime(2026, 10, 3, 13, 0), 30)

	slots := GenerateSlots(window, []Appointment{appt}, 30)
	for _, s := range slots {
		if s.StartAt.Equal(appt.AppointmentAt) {
			assert.False(t, s.Available)
			return
		}
	}
	t.Fatal("no slot generated at the appointment's start")
}

func TestGenerateSlots_KeepsSlotEndingAtUTCMidnight(t *testing.T) {
	vetID := uuid.New()
	// Local 09:00-17:00 in Los Angeles is UTC 16:00 through midnight; the
	// final slot ends exactly on the UTC day boundary and must survive.
	window := testWindow(vetID, utcTime(2026, 10, 3, 16, 0), utcTime(2026, 10, 4, 0, 0))

	slots := GenerateSlots(window, nil, 30)
	require.Len(t, slots, 16)

	last := slots[len(slots)-1]
	assert.Equal(t, utcTime(2026, 10, 3, 23, 30), last.StartAt)
	assert.Equal(t, utcTime(2026, 10, 4, 0, 0), last.EndAt)
	assert.True(t, last.Available)
}

func TestGenerateSlots_IgnoresOtherVetsAppointments(t *testing.T) {
	vetID := uuid.New()
	otherVet := uuid.New()
	window := testWindow(vetID, utcTime(2026, 10, 3, 9, 0), utcTime(2026, 10, 3, 10, 0))
	appt := testAppt(otherVet, utcTime(2026, 10, 3, 9, 0), 30)

	slots := GenerateSlots(window, []Appointment{appt}, 30)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Available)
	assert.True(t, slots[1].Available)
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	vetID := uuid.New()
	window := testWindow(vetID, utcTime(2026, 10, 3, 9, 0), utcTime(2026, 10, 3, 12, 0))
	appts := []Appointment{
		testAppt(vetID, utcTime(2026, 10, 3, 9, 30), 30),
		testAppt(vetID, utcTime(2026, 10, 3, 11, 0), 60),
	}

	first := GenerateSlots(window, appts, 30)
	second := GenerateSlots(window, appts, 30)
	assert.Equal(t, first, second)
}

func TestGenerateSlots_DegenerateInputs(t *testing.T) {
	vetID := uuid.New()
	window := testWindow(vetID, utcTime(2026, 10, 3, 9, 0), utcTime(2026, 10, 3, 12, 0))

	assert.Nil(t, GenerateSlots(window, nil, 0))
	assert.Nil(t, GenerateSlots(window, nil, -30))

	inverted := testWindow(vetID, utcTime(2026, 10, 3, 12, 0), utcTime(2026, 10, 3, 9, 0))
	assert.Nil(t, GenerateSlots(inverted, nil, 30))

	// Window shorter than one slot yields nothing.
	short := testWindow(vetID, utcTime(2026, 10, 3, 9, 0), utcTime(2026, 10, 3, 9, 15))
	assert.Nil(t, GenerateSlots(short, nil, 30))
}

func TestGenerateForWindows_MergesAndSorts(t *testing.T) {
	vetID := uuid.New()
	morning := testWindow(vetID, utcTime(2026, 10, 3, 9, 0), utcTime(2026, 10, 3, 11, 0))
	afternoon := testWindow(vetID, utcTime(2026, 10, 3, 13, 0), utcTime(2026, 10, 3, 15, 0))

	// Pass the later window first; output must still be ascending.
	slots := GenerateForWindows([]AvailabilityWindow{afternoon, morning}, nil, 30)
	require.Len(t, slots, 8)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].StartAt.Before(slots[i].StartAt))
	}
}

func TestGenerateForWindows_DedupesOverlappingWindows(t *testing.T) {
	vetID := uuid.New()
	a := testWindow(vetID, utcTime(2026, 10, 3, 9, 0), utcTime(2026, 10, 3, 11, 0))
	b := testWindow(vetID, utcTime(2026, 10, 3, 10, 0), utcTime(2026, 10, 3, 12, 0))

	slots := GenerateForWindows([]AvailabilityWindow{a, b}, nil, 30)

	seen := make(map[time.Time]int)
	for _, s := range slots {
		seen[s.StartAt]++
	}
	for at, n := range seen {
		assert.Equal(t, 1, n, "duplicate slot at %s", at)
	}
	require.Len(t, slots, 6) // 09:00 through 11:30 starts
}
