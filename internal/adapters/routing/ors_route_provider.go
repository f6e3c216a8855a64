package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"parcel-sim-service/internal/domain"
	"parcel-sim-service/internal/platform/obs"
	"parcel-sim-service/internal/ports"
)

// ErrRouteNotFound is returned by RecalculateRoute for a route id this
// provider never issued (or that belongs to a previous process).
var ErrRouteNotFound = errors.New("unknown route id")

// ORSRouteProvider implements RouteProvider against the OpenRouteService
// directions API.
//
// It coordinates:
//   - Persistent route caching (initial calculations only)
//   - Route id bookkeeping so recalculation needs only the id
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSRouteProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
	cache   ports.RouteCache

	mu        sync.Mutex
	endpoints map[string]routeEndpoints
}

type routeEndpoints struct {
	origin      domain.GeoPoint
	destination domain.GeoPoint
	profile     string
}

func NewORSRouteProvider(apiKey string, cache ports.RouteCache) (*ORSRouteProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	return &ORSRouteProvider{
		session:   &http.Client{Timeout: 10 * time.Second},
		apiKey:    apiKey,
		baseURL:   "https://api.openrouteservice.org",
		profile:   "driving-car",
		cache:     cache,
		endpoints: make(map[string]routeEndpoints),
	}, nil
}

type directionsRequest struct {
	Coordinates [][]float64        `json:"coordinates"`
	Options     *directionsOptions `json:"options,omitempty"`
}

type directionsOptions struct {
	AvoidPolygons *geoJSONPolygon `json:"avoid_polygons,omitempty"`
}

type geoJSONPolygon struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// CalculateRoute computes a route between two points, consulting the
// route cache before issuing external API calls.
func (o *ORSRouteProvider) CalculateRoute(
	ctx context.Context,
	origin, destination domain.GeoPoint,
	constraints ports.RouteConstraints,
) (_ domain.Route, err error) {
	defer obs.Time(ctx, "ors.CalculateRoute")(&err)

	if !origin.IsValid() || !destination.IsValid() {
		return domain.Route{}, errors.New("calculate route: origin and destination must be valid points")
	}

	profile := constraints.Profile
	if profile == "" {
		profile = o.profile
	}

	if o.cache != nil {
		cached, hit, err := o.cache.Get(ctx, origin, destination)
		if err != nil {
			return domain.Route{}, fmt.Errorf("calculate route: read route cache: %w", err)
		}
		if hit {
			o.remember(cached.ID, routeEndpoints{origin: origin, destination: destination, profile: profile})
			return cached, nil
		}
	}

	route, err := o.fetchDirections(ctx, profile, origin, destination, nil)
	if err != nil {
		return domain.Route{}, fmt.Errorf("calculate route: %w", err)
	}

	o.remember(route.ID, routeEndpoints{origin: origin, destination: destination, profile: profile})

	if o.cache != nil {
		if err := o.cache.Put(ctx, origin, destination, route); err != nil {
			log.Printf("route cache write failed: %v", err)
		}
	}

	return route, nil
}

// RecalculateRoute reissues directions for a known route with the
// incident's geofence as an avoid polygon. Results are never cached;
// they are specific to one incident.
func (o *ORSRouteProvider) RecalculateRoute(
	ctx context.Context,
	routeID string,
	incident domain.Incident,
) (_ domain.Route, err error) {
	defer obs.Time(ctx, "ors.RecalculateRoute")(&err)

	o.mu.Lock()
	ep, ok := o.endpoints[routeID]
	o.mu.Unlock()
	if !ok {
		return domain.Route{}, fmt.Errorf("recalculate route %q: %w", routeID, ErrRouteNotFound)
	}

	avoid := circlePolygon(incident.Position, incident.RadiusMeters)
	route, err := o.fetchDirections(ctx, ep.profile, ep.origin, ep.destination, avoid)
	if err != nil {
		return domain.Route{}, fmt.Errorf("recalculate route %q: %w", routeID, err)
	}

	// The replacement route may itself collide again later; keep its
	// endpoints so it can be recalculated too.
	o.remember(route.ID, ep)

	return route, nil
}

func (o *ORSRouteProvider) remember(routeID string, ep routeEndpoints) {
	o.mu.Lock()
	o.endpoints[routeID] = ep
	o.mu.Unlock()
}

func (o *ORSRouteProvider) fetchDirections(
	ctx context.Context,
	profile string,
	origin, destination domain.GeoPoint,
	avoid *geoJSONPolygon,
) (domain.Route, error) {
	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, profile)

	bodyObj := directionsRequest{
		Coordinates: [][]float64{origin.CoordsToList(), destination.CoordsToList()},
	}
	if avoid != nil {
		bodyObj.Options = &directionsOptions{AvoidPolygons: avoid}
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return domain.Route{}, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.sendWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return domain.Route{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return domain.Route{}, fmt.Errorf("decode directions response: %w", err)
	}
	if len(dr.Routes) == 0 {
		return domain.Route{}, errors.New("directions response contained no routes")
	}

	r := dr.Routes[0]
	if r.Geometry == "" {
		return domain.Route{}, errors.New("directions response contained no geometry")
	}

	return domain.Route{
		ID:                       uuid.NewString(),
		Geometry:                 r.Geometry,
		TotalDistanceKm:          r.Summary.Distance / 1000,
		EstimatedDurationMinutes: r.Summary.Duration / 60,
	}, nil
}

// circlePolygon approximates an incident geofence as a GeoJSON polygon
// suitable for the directions avoid_polygons option.
func circlePolygon(center domain.GeoPoint, radiusMeters float64) *geoJSONPolygon {
	const vertices = 16

	// Meters-to-degrees approximation; good enough for a few hundred
	// meters of geofence well away from the poles.
	dLat := radiusMeters / 111320
	dLng := radiusMeters / (111320 * math.Cos(center.Lat*math.Pi/180))

	ring := make([][]float64, 0, vertices+1)
	for i := 0; i < vertices; i++ {
		theta := 2 * math.Pi * float64(i) / vertices
		ring = append(ring, []float64{
			center.Lng + dLng*math.Cos(theta),
			center.Lat + dLat*math.Sin(theta),
		})
	}
	ring = append(ring, ring[0]) // close the ring

	return &geoJSONPolygon{
		Type:        "Polygon",
		Coordinates: [][][]float64{ring},
	}
}
