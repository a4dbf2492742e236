package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vetcal/scheduling-service/internal/localtime"
	"github.com/vetcal/scheduling-service/internal/schedule"
)

func queryAvailabilityHandler(svc *schedule.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AvailabilityQueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		practiceID, err := uuid.Parse(req.PracticeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practice_id", "practice_id must be a valid UUID")
			return
		}

		result, err := svc.FindAvailability(r.Context(), schedule.AvailabilityQuery{
			PracticeID: practiceID,
			Timezone:   req.Timezone,
			TimeOfDay:  schedule.ParseTimeOfDay(req.TimeOfDay),
			Range: schedule.RangeRequest{
				WeeksFromNow:  req.WeeksFromNow,
				WeekOfMonth:   req.WeekOfMonth,
				MonthOffset:   req.MonthOffset,
				MonthGiven:    req.MonthGiven,
				StartDate:     req.StartDate,
				EndDate:       req.EndDate,
				PreferredDays: req.PreferredDays,
			},
		})
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		resp := AvailabilityQueryResponse{
			Found:        result.Found,
			SearchedDays: result.SearchedDays,
			Message:      result.Message,
			Suggestion:   result.Suggestion,
		}
		for _, offer := range result.Slots {
			resp.Slots = append(resp.Slots, SlotOfferResponse{
				VetID:     offer.Slot.VetID,
				StartAt:   offer.Slot.StartAt,
				EndAt:     offer.Slot.EndAt,
				LocalDate: offer.LocalDate,
				LocalTime: offer.LocalTime,
				Display:   offer.Display,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func bookAppointmentHandler(svc *schedule.BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		practiceID, err := uuid.Parse(req.PracticeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practice_id", "practice_id must be a valid UUID")
			return
		}
		ownerID, err := uuid.Parse(req.OwnerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_owner_id", "owner_id must be a valid UUID")
			return
		}

		var vetID *uuid.UUID
		if req.VetID != "" {
			id, err := uuid.Parse(req.VetID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_vet_id", "vet_id must be a valid UUID")
				return
			}
			vetID = &id
		}

		result, err := svc.Book(r.Context(), schedule.BookingRequest{
			PracticeID:      practiceID,
			OwnerID:         ownerID,
			VetID:           vetID,
			LocalDate:       req.LocalDate,
			LocalTime:       req.LocalTime,
			Timezone:        req.Timezone,
			DurationMinutes: req.DurationMinutes,
			ServiceType:     req.ServiceType,
			Notes:           req.Notes,
		})
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		resp := BookAppointmentResponse{
			Booked:       result.Booked,
			Confirmation: result.Confirmation,
			Reason:       string(result.Reason),
			Message:      result.Message,
		}
		status := http.StatusConflict
		if result.Booked {
			status = http.StatusCreated
			resp.Appointment = toAppointmentResponse(result.Appointment)
		}

		writeJSON(w, status, resp)
	}
}

func getAppointmentHandler(store schedule.AppointmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := store.GetAppointment(r.Context(), id)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// transitionHandler moves an appointment along the forward status machine.
// The current status is read first so staff tools don't need to echo it back.
func transitionHandler(store schedule.AppointmentStore, to schedule.AppointmentStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := store.GetAppointment(r.Context(), id)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		updated, err := store.UpdateStatus(r.Context(), id, appt.Status, to)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
	}
}

func listOwnerAppointmentsHandler(store schedule.AppointmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_owner_id", "id must be a valid UUID")
			return
		}

		appts, err := store.ListByOwner(r.Context(), ownerID, time.Now().UTC(), 20)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, *toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createWindowHandler(store schedule.AvailabilityStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateWindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		practiceID, err := uuid.Parse(req.PracticeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practice_id", "practice_id must be a valid UUID")
			return
		}
		vetID, err := uuid.Parse(req.VetID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_vet_id", "vet_id must be a valid UUID")
			return
		}

		// Staff and voice input arrive as local wall clock; storage is UTC
		// instants only.
		shift, err := localtime.Boundary(req.LocalDate, req.StartTime, req.EndTime, req.Timezone)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		window, err := store.CreateWindow(r.Context(), schedule.AvailabilityWindow{
			PracticeID: practiceID,
			VetID:      vetID,
			StartAt:    shift.UTCStart,
			EndAt:      shift.UTCEnd,
			Kind:       schedule.AvailabilityKind(req.Kind),
		})
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, WindowResponse{
			ID:         window.ID,
			PracticeID: window.PracticeID,
			VetID:      window.VetID,
			StartAt:    window.StartAt,
			EndAt:      window.EndAt,
			Kind:       string(window.Kind),
			Active:     window.Active,
		})
	}
}

func deactivateWindowHandler(store schedule.AvailabilityStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_window_id", "id must be a valid UUID")
			return
		}

		if err := store.DeactivateWindow(r.Context(), id); err != nil {
			handleScheduleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toAppointmentResponse(a *schedule.Appointment) *AppointmentResponse {
	return &AppointmentResponse{
		ID:              a.ID,
		PracticeID:      a.PracticeID,
		OwnerID:         a.OwnerID,
		VetID:           a.VetID,
		AppointmentAt:   a.AppointmentAt,
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		Title:           a.Title,
	}
}

func handleScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, localtime.ErrInvalidTimezone):
		writeError(w, http.StatusBadRequest, "invalid_timezone", err.Error())
	case errors.Is(err, localtime.ErrInvalidTimeRange):
		writeError(w, http.StatusBadRequest, "invalid_time_range", err.Error())
	case errors.Is(err, localtime.ErrInvalidDate),
		errors.Is(err, localtime.ErrInvalidClock):
		writeError(w, http.StatusBadRequest, "invalid_local_time", err.Error())
	case errors.Is(err, schedule.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
	case errors.Is(err, schedule.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, "invalid_duration", err.Error())
	case errors.Is(err, schedule.ErrWindowNotFound):
		writeError(w, http.StatusNotFound, "window_not_found", err.Error())
	case errors.Is(err, schedule.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, schedule.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, schedule.ErrStorageConflict):
		writeError(w, http.StatusConflict, "slot_conflict", "that time was just taken, please pick another")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
