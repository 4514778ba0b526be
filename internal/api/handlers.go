package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hibiki-studio/booking-console/internal/booking"
)

func availabilityHandler(calc *booking.SlotCalculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := parseDateParam(w, r)
		if !ok {
			return
		}

		day, err := calc.AvailableSlots(r.Context(), date)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "availability_unavailable", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, day)
	}
}

func createBookingHandler(coord *booking.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req booking.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		result, err := coord.Book(r.Context(), req)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, result)
	}
}

func cancelSessionHandler(coord *booking.Coordinator, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		session, err := coord.Cancel(r.Context(), id)
		if err != nil {
			handleSessionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSessionResponse(*session, loc))
	}
}

func completeSessionHandler(coord *booking.Coordinator, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		session, err := coord.Complete(r.Context(), id)
		if err != nil {
			handleSessionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSessionResponse(*session, loc))
	}
}

func listSessionsHandler(coord *booking.Coordinator, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := parseDateParam(w, r)
		if !ok {
			return
		}

		sessions, err := coord.ListDay(r.Context(), date)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
			return
		}

		resp := DayResponse{
			Date:     date.Format(booking.DateLayout),
			Sessions: make([]SessionResponse, 0, len(sessions)),
		}
		for _, s := range sessions {
			resp.Sessions = append(resp.Sessions, toSessionResponse(s, loc))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func parseDateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing_date", "date query parameter is required")
		return time.Time{}, false
	}

	date, err := time.Parse(booking.DateLayout, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return time.Time{}, false
	}

	return date, true
}

func handleBookingError(w http.ResponseWriter, err error) {
	var verr *booking.ValidationError
	var perr *booking.PersistenceError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Details: verr.Error(),
			Fields:  verr.Fields,
		})
	case errors.Is(err, booking.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", "the requested time is no longer available, please pick another slot")
	case errors.As(err, &perr):
		writeError(w, http.StatusServiceUnavailable, "persistence_failure", "the booking could not be saved, please retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleSessionError(w http.ResponseWriter, err error) {
	var perr *booking.PersistenceError

	switch {
	case errors.Is(err, booking.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, booking.ErrAlreadyCanceled):
		writeError(w, http.StatusConflict, "already_canceled", err.Error())
	case errors.Is(err, booking.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.As(err, &perr):
		writeError(w, http.StatusServiceUnavailable, "persistence_failure", "the change could not be saved, please retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
