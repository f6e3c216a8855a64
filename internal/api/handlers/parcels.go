package handlers

import (
	"errors"
	"log"
	"net/http"

	"parcel-sim-service/internal/adapters/geometry"
	"parcel-sim-service/internal/api/dto"
	"parcel-sim-service/internal/services"
	"parcel-sim-service/internal/store"
)

// ParcelHandler exposes parcel lifecycle endpoints. Reads come straight
// from the store; writes go through the parcel service.
type ParcelHandler struct {
	Store *store.Store
	Svc   *services.ParcelService
}

// Parcels dispatches GET (list) and POST (create) on /parcels.
func (h *ParcelHandler) Parcels(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *ParcelHandler) list(w http.ResponseWriter, r *http.Request) {
	state := dto.FromState(h.Store.Snapshot())
	writeJSON(w, r, http.StatusOK, dto.ListParcelsResponse{Parcels: state.Parcels})
}

func (h *ParcelHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateParcelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if (req.OriginHubID == "") != (req.DestinationHubID == "") {
		writeError(w, r, http.StatusBadRequest, "origin_hub_id and destination_hub_id must be set together")
		return
	}
	if req.SpeedKmh < 0 {
		writeError(w, r, http.StatusBadRequest, "speed_kmh must be positive")
		return
	}

	p, err := h.Svc.Create(r.Context(), services.CreateParcelRequest{
		TrackingCode:     req.TrackingCode,
		OriginHubID:      req.OriginHubID,
		DestinationHubID: req.DestinationHubID,
		SpeedKmh:         req.SpeedKmh,
		Start:            req.Start,
	})
	switch {
	case err == nil:
	case errors.Is(err, services.ErrUnknownHub):
		writeError(w, r, http.StatusBadRequest, "unknown hub id")
		return
	case errors.Is(err, geometry.ErrInvalidGeometry):
		writeError(w, r, http.StatusBadGateway, "route service returned unusable geometry")
		return
	default:
		log.Printf("create parcel failed: %v", err)
		writeError(w, r, http.StatusBadGateway, "route service unavailable")
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.FromParcel(p))
}

// Start promotes a PLANNED parcel to TRANSIT.
func (h *ParcelHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req dto.ParcelIDRequest
	if !postBody(w, r, &req) {
		return
	}

	p, err := h.Svc.Start(r.Context(), req.ParcelID)
	if err != nil {
		writeError(w, r, http.StatusConflict, "parcel cannot be started")
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromParcel(p))
}

func (h *ParcelHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req dto.ParcelIDRequest
	if !postBody(w, r, &req) {
		return
	}

	if !h.Svc.Remove(r.Context(), req.ParcelID) {
		writeError(w, r, http.StatusNotFound, "parcel not found")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"removed": req.ParcelID})
}

func (h *ParcelHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req dto.ParcelIDRequest
	if !postBody(w, r, &req) {
		return
	}

	h.Store.SelectParcel(req.ParcelID)
	writeJSON(w, r, http.StatusOK, map[string]string{"selected": req.ParcelID})
}

// postBody enforces POST and decodes the body, writing the error
// response itself on failure.
func postBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if err := decodeBody(r, v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}
