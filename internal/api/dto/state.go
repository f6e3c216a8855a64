package dto

import (
	"sort"

	"parcel-sim-service/internal/domain"
	"parcel-sim-service/internal/store"
)

type PlaybackRequest struct {
	Playing         *bool    `json:"playing"`
	SpeedMultiplier *float64 `json:"speed_multiplier"`
}

type PlacementRequest struct {
	Enabled bool `json:"enabled"`
}

type HubResponse struct {
	HubID    string        `json:"hub_id"`
	Name     string        `json:"name"`
	Position PointResponse `json:"position"`
}

type StateResponse struct {
	Hubs             []HubResponse      `json:"hubs"`
	Parcels          []ParcelResponse   `json:"parcels"`
	Incidents        []IncidentResponse `json:"incidents"`
	Playing          bool               `json:"playing"`
	SpeedMultiplier  float64            `json:"speed_multiplier"`
	SelectedParcelID string             `json:"selected_parcel_id,omitempty"`
	PlacementMode    bool               `json:"placement_mode"`
	Version          uint64             `json:"version"`
}

func FromHub(h domain.Hub) HubResponse {
	return HubResponse{HubID: h.ID, Name: h.Name, Position: FromPoint(h.Position)}
}

func FromState(s store.State) StateResponse {
	res := StateResponse{
		Hubs:             make([]HubResponse, 0, len(s.Hubs)),
		Parcels:          make([]ParcelResponse, 0, len(s.Parcels)),
		Incidents:        make([]IncidentResponse, 0, len(s.Incidents)),
		Playing:          s.Playing,
		SpeedMultiplier:  s.SpeedMultiplier,
		SelectedParcelID: s.SelectedParcelID,
		PlacementMode:    s.PlacementMode,
		Version:          s.Version,
	}
	for _, h := range s.Hubs {
		res.Hubs = append(res.Hubs, FromHub(h))
	}
	for _, p := range s.Parcels {
		res.Parcels = append(res.Parcels, FromParcel(p))
	}
	// Map iteration order is random; keep payloads stable for consumers.
	sort.Slice(res.Parcels, func(i, j int) bool { return res.Parcels[i].ParcelID < res.Parcels[j].ParcelID })
	for _, inc := range s.Incidents {
		res.Incidents = append(res.Incidents, FromIncident(inc))
	}
	return res
}
