package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/workshop-scheduler/internal/masterdata"
)

func pathKind(w http.ResponseWriter, r *http.Request) (masterdata.Kind, bool) {
	kind, err := masterdata.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_kind", err.Error())
		return "", false
	}
	return kind, true
}

func listEntriesHandler(svc *masterdata.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := pathKind(w, r)
		if !ok {
			return
		}

		list, err := svc.List(r.Context(), kind)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		out := make([]EntryResponse, 0, len(list))
		for _, e := range list {
			out = append(out, toEntryResponse(e))
		}
		writeData(w, http.StatusOK, out)
	}
}

func createEntryHandler(svc *masterdata.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := pathKind(w, r)
		if !ok {
			return
		}
		var req masterdata.Input
		if !decodeJSON(w, r, &req, false) {
			return
		}

		e, err := svc.Create(r.Context(), kind, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusCreated, toEntryResponse(*e))
	}
}

func updateEntryHandler(svc *masterdata.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := pathKind(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req masterdata.Input
		if !decodeJSON(w, r, &req, false) {
			return
		}

		e, err := svc.Update(r.Context(), kind, id, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toEntryResponse(*e))
	}
}

func deleteEntryHandler(svc *masterdata.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := pathKind(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), kind, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, map[string]int64{"id": id})
	}
}
