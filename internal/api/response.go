package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/workshop-scheduler/internal/appointment"
	"github.com/hackgods/workshop-scheduler/internal/lock"
	"github.com/hackgods/workshop-scheduler/internal/masterdata"
	"github.com/hackgods/workshop-scheduler/internal/staff"
	"github.com/hackgods/workshop-scheduler/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeErrorDetails(w, status, code, message, nil)
}

func writeErrorDetails(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, envelope{Error: &errorBody{Code: code, Message: message, Details: details}})
}

// writeServiceError maps domain errors onto status codes. Anything
// unrecognised is a 500 and gets logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *validation.Error
		cerr *appointment.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		writeErrorDetails(w, http.StatusBadRequest, "validation_failed", err.Error(), verr.Problems)
	case errors.As(err, &cerr):
		writeErrorDetails(w, http.StatusConflict, "time_conflict", err.Error(), toAppointmentList(cerr.Conflicts))
	case errors.Is(err, appointment.ErrCalendarBusy), errors.Is(err, lock.ErrNotAcquired):
		writeError(w, http.StatusConflict, "calendar_busy", appointment.ErrCalendarBusy.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, staff.ErrStaffNotFound):
		writeError(w, http.StatusNotFound, "staff_not_found", err.Error())
	case errors.Is(err, masterdata.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "entry_not_found", err.Error())
	case errors.Is(err, staff.ErrDuplicateName), errors.Is(err, masterdata.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate", err.Error())
	case errors.Is(err, staff.ErrHasAppointments):
		writeError(w, http.StatusConflict, "staff_has_appointments", err.Error())
	default:
		loggerFrom(r.Context()).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON: "+err.Error())
	return false
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
