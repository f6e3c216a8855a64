package api

import (
	"net/http"

	"parcel-sim-service/internal/api/handlers"
	"parcel-sim-service/internal/ports"
	"parcel-sim-service/internal/services"
	"parcel-sim-service/internal/store"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(st *store.Store, svc *services.ParcelService, recalc *services.Recalculator, journal ports.EventJournal) http.Handler {
	mux := http.NewServeMux()

	parcelHandler := &handlers.ParcelHandler{Store: st, Svc: svc}
	incidentHandler := &handlers.IncidentHandler{Store: st, Journal: journal}
	playbackHandler := &handlers.PlaybackHandler{Store: st, Recalc: recalc}
	stateHandler := &handlers.StateHandler{Store: st}
	streamHandler := &handlers.StreamHandler{Store: st}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/state", stateHandler.State)
	mux.HandleFunc("/parcels", parcelHandler.Parcels)
	mux.HandleFunc("/parcels/start", parcelHandler.Start)
	mux.HandleFunc("/parcels/remove", parcelHandler.Remove)
	mux.HandleFunc("/parcels/select", parcelHandler.Select)
	mux.HandleFunc("/incidents", incidentHandler.Incidents)
	mux.HandleFunc("/incidents/resolve", incidentHandler.Resolve)
	mux.HandleFunc("/playback", playbackHandler.Playback)
	mux.HandleFunc("/placement", playbackHandler.Placement)
	mux.HandleFunc("/ws", streamHandler.Serve)

	return loggingMiddleware(mux)
}
