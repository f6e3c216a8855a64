package domain

import "time"

type IncidentType string

const (
	IncidentAccident     IncidentType = "ACCIDENT"
	IncidentRoadClosure  IncidentType = "ROAD_CLOSURE"
	IncidentFlood        IncidentType = "FLOOD"
	IncidentConstruction IncidentType = "CONSTRUCTION"
)

func (t IncidentType) Valid() bool {
	switch t {
	case IncidentAccident, IncidentRoadClosure, IncidentFlood, IncidentConstruction:
		return true
	}
	return false
}

// Incident is a hazard zone placed on the map. It is mutated only by
// flipping Resolved and is never deleted; resolved incidents stay
// around for audit and display but no longer trigger collisions.
type Incident struct {
	ID               string
	Type             IncidentType
	Position         GeoPoint
	RadiusMeters     float64
	Resolved         bool
	Timestamp        time.Time
	Description      string
	AffectedRouteIDs []string
}

// Contains reports whether a point lies inside the incident's geofence.
func (i Incident) Contains(p GeoPoint) bool {
	return HaversineMeters(i.Position, p) <= i.RadiusMeters
}
