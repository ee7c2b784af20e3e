package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hackgods/workshop-scheduler/internal/appointment"
	"github.com/hackgods/workshop-scheduler/internal/clock"
	"github.com/hackgods/workshop-scheduler/internal/validation"
)

func createAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appointment.CreateInput
		if !decodeJSON(w, r, &req, false) {
			return
		}

		appt, err := svc.Create(r.Context(), req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusCreated, toAppointmentResponse(*appt))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func updateAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req appointment.UpdateInput
		if !decodeJSON(w, r, &req, false) {
			return
		}

		appt, err := svc.Update(r.Context(), id, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func deleteAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, map[string]int64{"id": id})
	}
}

func completeAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req CompleteRequest
		if !decodeJSON(w, r, &req, true) {
			return
		}

		appt, err := svc.Complete(r.Context(), id, req.ActualEndTime)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func billingStatusHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req BillingStatusRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		appt, err := svc.UpdateBillingStatus(r.Context(), id, req.BillingStatus)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func markSyncedHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req SyncRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		appt, err := svc.MarkSynced(r.Context(), id, req.ExternalEventID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func checkConflictHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConflictCheckRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		res, err := svc.CheckTimeConflict(r.Context(), req.StaffID, req.StartTime, req.EndTime, req.ExcludeID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, ConflictResponse{
			HasConflict: res.HasConflict,
			Conflicts:   toAppointmentList(res.Conflicts),
		})
	}
}

func searchAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r.URL.Query())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		list, err := svc.Search(r.Context(), filter)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toAppointmentList(list))
	}
}

func dateRangeHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := svc.GetByDateRange(r.Context(), q.Get("start_date"), q.Get("end_date"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toAppointmentList(list))
	}
}

func todayHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.GetToday(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toAppointmentList(list))
	}
}

func unsyncedHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.GetUnsynced(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toAppointmentList(list))
	}
}

func monthlyStatisticsHandler(svc *appointment.Service, clk *clock.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := clk.Now()
		var v validation.Collector
		year := intParam(&v, r.URL.Query(), "year", now.Year())
		month := intParam(&v, r.URL.Query(), "month", int(now.Month()))
		if err := v.Err(); err != nil {
			writeServiceError(w, r, err)
			return
		}

		stats, err := svc.GetMonthlyStatistics(r.Context(), year, month)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toStatisticsResponse(stats))
	}
}

// parseFilter reads search parameters. List parameters may repeat or hold
// comma separated values.
func parseFilter(q url.Values) (appointment.Filter, error) {
	var v validation.Collector
	f := appointment.Filter{
		Keyword:            q.Get("keyword"),
		BusinessCategories: listParam(q, "category"),
		BillingStatuses:    listParam(q, "billing_status"),
		StartDate:          q.Get("start_date"),
		EndDate:            q.Get("end_date"),
		SortBy:             q.Get("sort_by"),
		SortOrder:          q.Get("sort_order"),
		Page:               intParam(&v, q, "page", 0),
		Limit:              intParam(&v, q, "limit", 0),
	}
	for _, raw := range listParam(q, "staff_id") {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			v.Addf("staff_id %q is not a number", raw)
			continue
		}
		f.StaffIDs = append(f.StaffIDs, id)
	}
	return f, v.Err()
}

func listParam(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intParam(v *validation.Collector, q url.Values, key string, def int) int {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		v.Addf("%s %q is not a number", key, raw)
		return def
	}
	return n
}
