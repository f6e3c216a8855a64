package sim

import (
	"slices"
	"time"

	"parcel-sim-service/internal/domain"
)

// deliveryThreshold is the progress at which a parcel counts as delivered.
// Slightly under 1.0 to absorb floating-point error in the final segment.
const deliveryThreshold = 0.99

// Advance moves a parcel along its path for the elapsed delta and returns
// the replacement value. Parcels that are not in TRANSIT, have no usable
// path, or sit on a degenerate zero-length route are returned unchanged.
//
// Units: parcel speed is km/h, route total distance is km, the multiplier
// is the operator-chosen playback scale.
func Advance(p domain.Parcel, delta time.Duration, speedMultiplier float64, now time.Time) domain.Parcel {
	if p.State != domain.StateTransit || !p.Routed() {
		return p
	}
	if delta <= 0 || speedMultiplier <= 0 {
		return p
	}

	total := p.Assignment.Route.TotalDistanceKm
	if total <= 0 {
		// Degenerate route: treat as no movement rather than dividing by zero.
		return p
	}

	traveledKm := p.SpeedKmh * speedMultiplier * delta.Hours()
	progress := clamp01(p.Progress + traveledKm/total)

	p.Position, p.PathSegmentIndex = PointAlongPath(p.Assignment.Path, progress)
	p.Progress = progress

	if progress >= deliveryThreshold {
		p.State = domain.StateDelivered
		arrived := now
		p.ActualArrival = &arrived
	}

	return p
}

// DetectCollision returns the first unresolved incident, in insertion
// order, whose geofence contains the parcel's position and which has not
// already been triggered for this parcel. The first-match tie-break is a
// deliberate choice over nearest-incident.
func DetectCollision(p domain.Parcel, incidents []domain.Incident) (domain.Incident, bool) {
	for _, inc := range incidents {
		if inc.Resolved {
			continue
		}
		if p.Affected(inc.ID) {
			continue
		}
		if inc.Contains(p.Position) {
			return inc, true
		}
	}
	return domain.Incident{}, false
}

// MarkIncident halts the parcel and records the triggering incident.
// The id is appended, not deduplicated; DetectCollision's exclusion check
// is what keeps a single incident from being marked twice.
func MarkIncident(p domain.Parcel, incidentID string) domain.Parcel {
	p.State = domain.StateIncident
	p.AffectedIncidentIDs = append(slices.Clone(p.AffectedIncidentIDs), incidentID)
	return p
}

// Reanchor places the parcel on a new route at its current progress
// fraction and puts it back in TRANSIT. The same fraction maps to a
// different absolute distance on the new path, so the position may jump;
// that discontinuity is accepted rather than attempting a
// distance-preserving remap.
func Reanchor(p domain.Parcel, route domain.Route, path []domain.GeoPoint, now time.Time) domain.Parcel {
	p.Assignment = &domain.Assignment{Route: route, Path: path}
	p.Position, p.PathSegmentIndex = PointAlongPath(path, p.Progress)
	p.State = domain.StateTransit

	remaining := (1 - p.Progress) * route.EstimatedDurationMinutes
	eta := now.Add(time.Duration(remaining * float64(time.Minute)))
	p.EstimatedArrival = &eta

	return p
}

// EstimateArrival projects the arrival time from current progress and
// speed. Outside TRANSIT (or without a usable route) it returns the
// stored estimate. It never mutates the parcel.
func EstimateArrival(p domain.Parcel, now time.Time) *time.Time {
	if p.State != domain.StateTransit || !p.Routed() || p.SpeedKmh <= 0 {
		return p.EstimatedArrival
	}

	remainingKm := (1 - p.Progress) * p.Assignment.Route.TotalDistanceKm
	eta := now.Add(time.Duration(remainingKm / p.SpeedKmh * float64(time.Hour)))
	return &eta
}

// PointAlongPath linearly interpolates the position at a progress fraction
// along consecutive path points, returning the position and the index of
// the segment it falls in.
func PointAlongPath(path []domain.GeoPoint, progress float64) (domain.GeoPoint, int) {
	switch len(path) {
	case 0:
		return domain.GeoPoint{}, 0
	case 1:
		return path[0], 0
	}

	progress = clamp01(progress)
	if progress >= 1 {
		return path[len(path)-1], len(path) - 2
	}

	segments := make([]float64, len(path)-1)
	total := 0.0
	for i := 0; i < len(path)-1; i++ {
		segments[i] = domain.HaversineMeters(path[i], path[i+1])
		total += segments[i]
	}
	if total == 0 {
		return path[0], 0
	}

	target := progress * total
	covered := 0.0
	for i, seg := range segments {
		if covered+seg >= target {
			t := 0.0
			if seg > 0 {
				t = (target - covered) / seg
			}
			return domain.GeoPoint{
				Lat: path[i].Lat + (path[i+1].Lat-path[i].Lat)*t,
				Lng: path[i].Lng + (path[i+1].Lng-path[i].Lng)*t,
			}, i
		}
		covered += seg
	}

	return path[len(path)-1], len(path) - 2
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
