package dto

import (
	"time"

	"parcel-sim-service/internal/domain"
)

type CreateParcelRequest struct {
	TrackingCode     string  `json:"tracking_code"`
	OriginHubID      string  `json:"origin_hub_id"`
	DestinationHubID string  `json:"destination_hub_id"`
	SpeedKmh         float64 `json:"speed_kmh"`
	Start            bool    `json:"start"`
}

type ParcelIDRequest struct {
	ParcelID string `json:"parcel_id"`
}

type PointResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type RouteResponse struct {
	ID                       string  `json:"id"`
	Geometry                 string  `json:"geometry"`
	TotalDistanceKm          float64 `json:"total_distance_km"`
	EstimatedDurationMinutes float64 `json:"estimated_duration_minutes"`
}

type ParcelResponse struct {
	ParcelID            string          `json:"parcel_id"`
	TrackingCode        string          `json:"tracking_code"`
	State               string          `json:"state"`
	Position            PointResponse   `json:"position"`
	Progress            float64         `json:"progress"`
	SpeedKmh            float64         `json:"speed_kmh"`
	Route               *RouteResponse  `json:"route,omitempty"`
	Path                []PointResponse `json:"path,omitempty"`
	StartTime           *time.Time      `json:"start_time,omitempty"`
	EstimatedArrival    *time.Time      `json:"estimated_arrival,omitempty"`
	ActualArrival       *time.Time      `json:"actual_arrival,omitempty"`
	AffectedIncidentIDs []string        `json:"affected_incident_ids,omitempty"`
}

type ListParcelsResponse struct {
	Parcels []ParcelResponse `json:"parcels"`
}

func FromPoint(p domain.GeoPoint) PointResponse {
	return PointResponse{Lat: p.Lat, Lng: p.Lng}
}

func FromParcel(p domain.Parcel) ParcelResponse {
	res := ParcelResponse{
		ParcelID:            p.ID,
		TrackingCode:        p.TrackingCode,
		State:               string(p.State),
		Position:            FromPoint(p.Position),
		Progress:            p.Progress,
		SpeedKmh:            p.SpeedKmh,
		StartTime:           p.StartTime,
		EstimatedArrival:    p.EstimatedArrival,
		ActualArrival:       p.ActualArrival,
		AffectedIncidentIDs: p.AffectedIncidentIDs,
	}
	if p.Assignment != nil {
		r := p.Assignment.Route
		res.Route = &RouteResponse{
			ID:                       r.ID,
			Geometry:                 r.Geometry,
			TotalDistanceKm:          r.TotalDistanceKm,
			EstimatedDurationMinutes: r.EstimatedDurationMinutes,
		}
		res.Path = make([]PointResponse, 0, len(p.Assignment.Path))
		for _, pt := range p.Assignment.Path {
			res.Path = append(res.Path, FromPoint(pt))
		}
	}
	return res
}
