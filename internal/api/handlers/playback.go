package handlers

import (
	"net/http"

	"parcel-sim-service/internal/api/dto"
	"parcel-sim-service/internal/services"
	"parcel-sim-service/internal/store"
)

const maxSpeedMultiplier = 100

// PlaybackHandler controls the simulation's play/pause state, speed
// multiplier, and incident-placement mode.
type PlaybackHandler struct {
	Store  *store.Store
	Recalc *services.Recalculator
}

func (h *PlaybackHandler) Playback(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaybackRequest
	if !postBody(w, r, &req) {
		return
	}
	if req.Playing == nil && req.SpeedMultiplier == nil {
		writeError(w, r, http.StatusBadRequest, "playing or speed_multiplier is required")
		return
	}

	if req.SpeedMultiplier != nil {
		m := *req.SpeedMultiplier
		if m <= 0 || m > maxSpeedMultiplier {
			writeError(w, r, http.StatusBadRequest, "speed_multiplier out of range")
			return
		}
		h.Store.SetSpeedMultiplier(m)
	}

	if req.Playing != nil {
		h.Store.SetPlaying(*req.Playing)
		if !*req.Playing && h.Recalc != nil {
			// Pausing also abandons recalculations still in flight.
			h.Recalc.CancelAll()
		}
	}

	snap := h.Store.Snapshot()
	writeJSON(w, r, http.StatusOK, map[string]any{
		"playing":          snap.Playing,
		"speed_multiplier": snap.SpeedMultiplier,
	})
}

func (h *PlaybackHandler) Placement(w http.ResponseWriter, r *http.Request) {
	var req dto.PlacementRequest
	if !postBody(w, r, &req) {
		return
	}

	h.Store.SetPlacementMode(req.Enabled)
	writeJSON(w, r, http.StatusOK, map[string]bool{"placement_mode": req.Enabled})
}
