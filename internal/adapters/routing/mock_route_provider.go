package routing

import (
	"context"
	"fmt"

	"parcel-sim-service/internal/domain"
	"parcel-sim-service/internal/ports"
)

// MockRoute pairs endpoint coordinates with the route to return for them.
type MockRoute struct {
	Origin      domain.GeoPoint
	Destination domain.GeoPoint
	Route       domain.Route
}

// MockRouteProvider serves canned routes for tests. RecalculateRoute
// returns the route registered under RecalcRoutes for the incident's id,
// or fails like the real service would.
type MockRouteProvider struct {
	routes       map[string]domain.Route
	RecalcRoutes map[string]domain.Route
	RecalcErr    error
}

func NewMockRouteProvider(routes []MockRoute) *MockRouteProvider {
	m := make(map[string]domain.Route, len(routes))
	for _, r := range routes {
		m[endpointKey(r.Origin, r.Destination)] = r.Route
	}
	return &MockRouteProvider{routes: m, RecalcRoutes: map[string]domain.Route{}}
}

func endpointKey(o, d domain.GeoPoint) string {
	return fmt.Sprintf("%.6f,%.6f|%.6f,%.6f", o.Lat, o.Lng, d.Lat, d.Lng)
}

func (m *MockRouteProvider) CalculateRoute(ctx context.Context, origin, destination domain.GeoPoint, _ ports.RouteConstraints) (domain.Route, error) {
	r, ok := m.routes[endpointKey(origin, destination)]
	if !ok {
		return domain.Route{}, fmt.Errorf("no route from %+v to %+v", origin, destination)
	}
	return r, nil
}

func (m *MockRouteProvider) RecalculateRoute(ctx context.Context, routeID string, incident domain.Incident) (domain.Route, error) {
	if m.RecalcErr != nil {
		return domain.Route{}, m.RecalcErr
	}
	r, ok := m.RecalcRoutes[incident.ID]
	if !ok {
		return domain.Route{}, fmt.Errorf("recalculate route %q: %w", routeID, ErrRouteNotFound)
	}
	return r, nil
}
