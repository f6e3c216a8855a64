package domain

import (
	"slices"
	"time"
)

type ParcelState string

const (
	StatePlanned   ParcelState = "PLANNED"
	StateTransit   ParcelState = "TRANSIT"
	StateIncident  ParcelState = "INCIDENT"
	StateDelivered ParcelState = "DELIVERED"
)

// Assignment couples a route descriptor with its decoded path geometry.
// A parcel with a nil assignment is unrouted; a non-nil assignment always
// carries a usable path of at least two points.
type Assignment struct {
	Route Route
	Path  []GeoPoint
}

// Parcel is a single delivery unit moving along an assigned route.
// The store owns the canonical record; the simulation engine only
// produces replacement values and never mutates one in place.
type Parcel struct {
	ID           string
	TrackingCode string
	Assignment   *Assignment
	Position     GeoPoint
	State        ParcelState
	// Progress is the fractional completion of the path in [0,1].
	// It only moves while the parcel is in TRANSIT.
	Progress float64
	// PathSegmentIndex caches the last interpolation segment. Advisory only.
	PathSegmentIndex    int
	StartTime           *time.Time
	EstimatedArrival    *time.Time
	ActualArrival       *time.Time
	SpeedKmh            float64
	AffectedIncidentIDs []string
}

func (p Parcel) Routed() bool {
	return p.Assignment != nil && len(p.Assignment.Path) >= 2
}

// Affected reports whether the incident has already been triggered for
// this parcel. Membership here is what prevents the same incident from
// re-triggering without an intervening recalculation.
func (p Parcel) Affected(incidentID string) bool {
	return slices.Contains(p.AffectedIncidentIDs, incidentID)
}

// Clone returns a copy safe to hand out of the store. The path is shared
// (it is never mutated after assignment); the affected-incident list is not.
func (p Parcel) Clone() Parcel {
	p.AffectedIncidentIDs = slices.Clone(p.AffectedIncidentIDs)
	return p
}
