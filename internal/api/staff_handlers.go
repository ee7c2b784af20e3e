package api

import (
	"net/http"

	"github.com/hackgods/workshop-scheduler/internal/staff"
)

func listStaffHandler(svc *staff.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		out := make([]StaffResponse, 0, len(list))
		for _, s := range list {
			out = append(out, toStaffResponse(s))
		}
		writeData(w, http.StatusOK, out)
	}
}

func createStaffHandler(svc *staff.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req staff.CreateInput
		if !decodeJSON(w, r, &req, false) {
			return
		}

		s, err := svc.Create(r.Context(), req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusCreated, toStaffResponse(*s))
	}
}

func getStaffHandler(svc *staff.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		s, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toStaffResponse(*s))
	}
}

func updateStaffHandler(svc *staff.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req staff.UpdateInput
		if !decodeJSON(w, r, &req, false) {
			return
		}

		s, err := svc.Update(r.Context(), id, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toStaffResponse(*s))
	}
}

func staffAuthStatusHandler(svc *staff.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req AuthStatusRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		s, err := svc.SetAuthStatus(r.Context(), id, staff.AuthStatus(req.AuthStatus))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toStaffResponse(*s))
	}
}

func deleteStaffHandler(svc *staff.Service) http.HandlerFunc {
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
