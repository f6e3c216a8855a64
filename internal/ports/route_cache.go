package ports

import (
	"context"

	"parcel-sim-service/internal/domain"
)

// Cache of calculated route descriptors keyed by endpoint pair.
// Recalculated routes are incident-specific and never cached.
type RouteCache interface {
	// Get returns the cached route for an endpoint pair, with a hit flag.
	Get(ctx context.Context, origin, destination domain.GeoPoint) (domain.Route, bool, error)

	// Put stores the route for an endpoint pair.
	Put(ctx context.Context, origin, destination domain.GeoPoint, route domain.Route) error
}
