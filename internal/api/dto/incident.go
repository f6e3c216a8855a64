package dto

import (
	"time"

	"parcel-sim-service/internal/domain"
)

type ReportIncidentRequest struct {
	Type         string        `json:"type"`
	Position     PointResponse `json:"position"`
	RadiusMeters float64       `json:"radius_meters"`
	Description  string        `json:"description"`
}

type IncidentIDRequest struct {
	IncidentID string `json:"incident_id"`
}

type IncidentResponse struct {
	IncidentID       string        `json:"incident_id"`
	Type             string        `json:"type"`
	Position         PointResponse `json:"position"`
	RadiusMeters     float64       `json:"radius_meters"`
	Resolved         bool          `json:"resolved"`
	Timestamp        time.Time     `json:"timestamp"`
	Description      string        `json:"description,omitempty"`
	AffectedRouteIDs []string      `json:"affected_route_ids,omitempty"`
}

type ListIncidentsResponse struct {
	Incidents []IncidentResponse `json:"incidents"`
}

func FromIncident(inc domain.Incident) IncidentResponse {
	return IncidentResponse{
		IncidentID:       inc.ID,
		Type:             string(inc.Type),
		Position:         FromPoint(inc.Position),
		RadiusMeters:     inc.RadiusMeters,
		Resolved:         inc.Resolved,
		Timestamp:        inc.Timestamp,
		Description:      inc.Description,
		AffectedRouteIDs: inc.AffectedRouteIDs,
	}
}
