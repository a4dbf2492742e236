package schedule

import (
	"fmt"
	"time"
)

// TimeOfDay is the caller's coarse preference band. Filtering always uses
// the slot's local hour, never the UTC hour.
type TimeOfDay string

const (
	TimeOfDayAny       TimeOfDay = "any"
	TimeOfDayMorning   TimeOfDay = "morning"   // 06:00-12:00
	TimeOfDayAfternoon TimeOfDay = "afternoon" // 12:00-17:00
	TimeOfDayEvening   TimeOfDay = "evening"   // 17:00-21:00
)

// ParseTimeOfDay normalizes a spoken band; anything unrecognized means any.
func ParseTimeOfDay(raw string) TimeOfDay {
	switch TimeOfDay(raw) {
	case TimeOfDayMorning, TimeOfDayAfternoon, TimeOfDayEvening:
		return TimeOfDay(raw)
	default:
		return TimeOfDayAny
	}
}

// Matches tests the local hour of a slot start against the band.
func (t TimeOfDay) Matches(localHour int) bool {
	switch t {
	case TimeOfDayMorning:
		return localHour >= 6 && localHour < 12
	case TimeOfDayAfternoon:
		return localHour >= 12 && localHour < 17
	case TimeOfDayEvening:
		return localHour >= 17 && localHour < 21
	default:
		return true
	}
}

// SlotOffer is one bookable option rendered for conversational presentation.
type SlotOffer struct {
	Slot      Slot
	LocalDate string
	LocalTime string
	Display   string // "Tuesday, October 3 at 5:00 PM"
}

// AvailabilityResult is the outcome of one availability query. Finding
// nothing is a normal result, never an error: the consumer is often a live
// conversation that must keep flowing.
type AvailabilityResult struct {
	Found        bool
	Slots        []SlotOffer
	SearchedDays int
	Message      string
	Suggestion   string
}

// BookingFailureReason tags why a booking did not commit.
type BookingFailureReason string

const (
	BookingOK                 BookingFailureReason = ""
	ReasonNoVetAvailable      BookingFailureReason = "no_vet_available"
	ReasonSlotConflict        BookingFailureReason = "slot_conflict"
	ReasonOutsideAvailability BookingFailureReason = "outside_availability"
)

// BookingResult is the outcome of one booking attempt. Business failures
// carry a user-presentable message; internal ids never leak into Message.
type BookingResult struct {
	Booked       bool
	Appointment  *Appointment
	Confirmation string
	Reason       BookingFailureReason
	Message      string
}

func formatOffer(s Slot, loc *time.Location) SlotOffer {
	local := s.StartAt.In(loc)
	return SlotOffer{
		Slot:      s,
		LocalDate: local.Format("2006-01-02"),
		LocalTime: local.Format("15:04"),
		Display:   fmt.Sprintf("%s at %s", local.Format("Monday, January 2"), local.Format("3:04 PM")),
	}
}
