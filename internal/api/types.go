package api

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityQueryRequest mirrors what the voice agent extracts from a
// caller's utterance: fuzzy range fields plus a coarse time-of-day band.
type AvailabilityQueryRequest struct {
	PracticeID    string   `json:"practice_id"`
	Timezone      string   `json:"timezone"`
	TimeOfDay     string   `json:"time_of_day,omitempty"`
	WeeksFromNow  int      `json:"weeks_from_now,omitempty"`
	WeekOfMonth   int      `json:"week_of_month,omitempty"`
	MonthOffset   int      `json:"month_offset,omitempty"`
	MonthGiven    bool     `json:"month_given,omitempty"`
	StartDate     string   `json:"start_date,omitempty"`
	EndDate       string   `json:"end_date,omitempty"`
	PreferredDays []string `json:"preferred_days,omitempty"`
}

type SlotOfferResponse struct {
	VetID     uuid.UUID `json:"vet_id"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	LocalDate string    `json:"local_date"`
	LocalTime string    `json:"local_time"`
	Display   string    `json:"display"`
}

type AvailabilityQueryResponse struct {
	Found        bool                `json:"found"`
	Slots        []SlotOfferResponse `json:"slots,omitempty"`
	SearchedDays int                 `json:"searched_days"`
	Message      string              `json:"message"`
	Suggestion   string              `json:"suggestion,omitempty"`
}

type BookAppointmentRequest struct {
	PracticeID      string `json:"practice_id"`
	OwnerID         string `json:"owner_id"`
	VetID           string `json:"vet_id,omitempty"`
	LocalDate       string `json:"local_date"`
	LocalTime       string `json:"local_time"`
	Timezone        string `json:"timezone"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	ServiceType     string `json:"service_type,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

type BookAppointmentResponse struct {
	Booked       bool                 `json:"booked"`
	Appointment  *AppointmentResponse `json:"appointment,omitempty"`
	Confirmation string               `json:"confirmation,omitempty"`
	Reason       string               `json:"reason,omitempty"`
	Message      string               `json:"message"`
}

type AppointmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	PracticeID      uuid.UUID  `json:"practice_id"`
	OwnerID         uuid.UUID  `json:"owner_id"`
	VetID           *uuid.UUID `json:"vet_id,omitempty"`
	AppointmentAt   time.Time  `json:"appointment_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	Title           string     `json:"title,omitempty"`
}

// CreateWindowRequest accepts a local wall-clock block the way staff (or the
// voice assistant) state it; conversion to UTC happens before persistence.
type CreateWindowRequest struct {
	PracticeID string `json:"practice_id"`
	VetID      string `json:"vet_id"`
	LocalDate  string `json:"local_date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Timezone   string `json:"timezone"`
	Kind       string `json:"kind,omitempty"`
}

type WindowResponse struct {
	ID         uuid.UUID `json:"id"`
	PracticeID uuid.UUID `json:"practice_id"`
	VetID      uuid.UUID `json:"vet_id"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	Kind       string    `json:"kind"`
	Active     bool      `json:"active"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
