package schedule

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Overlaps is the single overlap predicate the whole core uses: half-open
// intervals [aStart, aEnd) and [bStart, bEnd) overlap iff
// aStart < bEnd && bStart < aEnd. A slot starting exactly at an
// appointment's end does not overlap it.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// GenerateSlots walks one availability window in slotMinutes steps and marks
// each candidate against the vet's appointments. Appointments in a terminal
// status must already be filtered out by the store query. Output is ascending
// by UTC start and fully determined by the inputs.
func GenerateSlots(window AvailabilityWindow, appts []Appointment, slotMinutes int) []Slot {
	if slotMinutes <= 0 || !window.StartAt.Before(window.EndAt) {
		return nil
	}

	step := time.Duration(slotMinutes) * time.Minute
	var slots []Slot
	for cur := window.StartAt; !cur.Add(step).After(window.EndAt); cur = cur.Add(step) {
		slot := Slot{
			StartAt:   cur,
			EndAt:     cur.Add(step),
			VetID:     window.VetID,
			Kind:      window.Kind,
			Available: true,
		}
		for i := range appts {
			a := &appts[i]
			if a.VetID == nil || *a.VetID != window.VetID {
				continue
			}
			if Overlaps(slot.StartAt, slot.EndAt, a.AppointmentAt, a.EndAt()) {
				slot.Available = false
				id := a.ID
				slot.ConflictID = &id
				break
			}
		}
		slots = append(slots, slot)
	}
	return slots
}

// GenerateForWindows generates slots per window, dedupes by vet and UTC start
// (split morning/afternoon blocks can abut or overlap), and re-sorts the
// concatenation ascending by start.
func GenerateForWindows(windows []AvailabilityWindow, appts []Appointment, slotMinutes int) []Slot {
	type slotKey struct {
		vet   uuid.UUID
		start int64
	}
	seen := make(map[slotKey]bool)

	var all []Slot
	for _, w := range windows {
		for _, s := range GenerateSlots(w, appts, slotMinutes) {
			k := slotKey{vet: s.VetID, start: s.StartAt.UnixNano()}
			if seen[k] {
				continue
			}
			seen[k] = true
			all = append(all, s)
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartAt.Equal(all[j].StartAt) {
			return all[i].StartAt.Before(all[j].StartAt)
		}
		return all[i].VetID.String() < all[j].VetID.String()
	})
	return all
}
