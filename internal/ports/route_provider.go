package ports

import (
	"context"

	"parcel-sim-service/internal/domain"
)

// RouteConstraints narrows how a route is computed.
type RouteConstraints struct {
	// Profile selects the routing vehicle profile, e.g. "driving-car".
	// Empty means the provider default.
	Profile string
}

// Contract for the external routing service. Both calls may fail with
// network or server errors; a failure must leave caller state untouched.
type RouteProvider interface {
	// CalculateRoute computes a route between two points and returns its
	// descriptor. The geometry is an encoded polyline.
	CalculateRoute(ctx context.Context, origin, destination domain.GeoPoint, constraints RouteConstraints) (domain.Route, error)

	// RecalculateRoute recomputes a previously calculated route so that it
	// avoids the incident's geofence.
	RecalculateRoute(ctx context.Context, routeID string, incident domain.Incident) (domain.Route, error)
}
