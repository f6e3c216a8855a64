package handlers

import (
	"net/http"

	"parcel-sim-service/internal/api/dto"
	"parcel-sim-service/internal/store"
)

// StateHandler serves the full simulation snapshot the map layer renders.
type StateHandler struct {
	Store *store.Store
}

func (h *StateHandler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromState(h.Store.Snapshot()))
}
