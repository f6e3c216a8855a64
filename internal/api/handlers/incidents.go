package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"parcel-sim-service/internal/api/dto"
	"parcel-sim-service/internal/domain"
	"parcel-sim-service/internal/ports"
	"parcel-sim-service/internal/store"
)

// IncidentHandler exposes incident placement and resolution.
type IncidentHandler struct {
	Store   *store.Store
	Journal ports.EventJournal
}

// Incidents dispatches GET (list) and POST (place) on /incidents.
func (h *IncidentHandler) Incidents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.place(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *IncidentHandler) list(w http.ResponseWriter, r *http.Request) {
	snap := h.Store.Snapshot()
	res := dto.ListIncidentsResponse{Incidents: make([]dto.IncidentResponse, 0, len(snap.Incidents))}
	for _, inc := range snap.Incidents {
		res.Incidents = append(res.Incidents, dto.FromIncident(inc))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *IncidentHandler) place(w http.ResponseWriter, r *http.Request) {
	var req dto.ReportIncidentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	kind := domain.IncidentType(req.Type)
	if !kind.Valid() {
		writeError(w, r, http.StatusBadRequest, "unknown incident type")
		return
	}
	pos := domain.GeoPoint{Lat: req.Position.Lat, Lng: req.Position.Lng}
	if !pos.IsValid() {
		writeError(w, r, http.StatusBadRequest, "position out of range")
		return
	}
	if req.RadiusMeters <= 0 {
		writeError(w, r, http.StatusBadRequest, "radius_meters must be positive")
		return
	}

	inc := domain.Incident{
		ID:           uuid.NewString(),
		Type:         kind,
		Position:     pos,
		RadiusMeters: req.RadiusMeters,
		Timestamp:    time.Now(),
		Description:  req.Description,
	}
	h.Store.AddIncident(inc)
	h.journal(r, ports.Event{Type: ports.EventIncidentPlaced, IncidentID: inc.ID, Detail: string(inc.Type)})

	writeJSON(w, r, http.StatusCreated, dto.FromIncident(inc))
}

// Resolve flips an incident's resolved flag; it stays listed for display
// but stops triggering collisions.
func (h *IncidentHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req dto.IncidentIDRequest
	if !postBody(w, r, &req) {
		return
	}

	if !h.Store.ResolveIncident(req.IncidentID) {
		writeError(w, r, http.StatusNotFound, "incident not found or already resolved")
		return
	}
	h.journal(r, ports.Event{Type: ports.EventIncidentCleared, IncidentID: req.IncidentID})

	writeJSON(w, r, http.StatusOK, map[string]string{"resolved": req.IncidentID})
}

func (h *IncidentHandler) journal(r *http.Request, ev ports.Event) {
	if h.Journal == nil {
		return
	}
	ev.At = time.Now()
	if err := h.Journal.Record(r.Context(), ev); err != nil {
		log.Printf("journal write failed: type=%s err=%v", ev.Type, err)
	}
}
