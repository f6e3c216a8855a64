package routing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"parcel-sim-service/internal/domain"
	"parcel-sim-service/internal/ports"
)

func directionsJSON(meters, seconds float64, geometry string) string {
	return `{"routes":[{"summary":{"distance":` +
		jsonNumber(meters) + `,"duration":` + jsonNumber(seconds) +
		`},"geometry":"` + geometry + `"}]}`
}

func jsonNumber(v float64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func testProvider(t *testing.T, handler http.Handler) (*ORSRouteProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewORSRouteProvider("test-key", nil)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	p.baseURL = srv.URL
	return p, srv
}

func TestCalculateRouteParsesDirections(t *testing.T) {
	var gotPath string
	var gotAuth string
	p, _ := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		var req directionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Coordinates) != 2 {
			t.Errorf("coordinates = %v, want origin+destination", req.Coordinates)
		}
		if req.Options != nil {
			t.Error("initial calculation must not carry avoid polygons")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(directionsJSON(12500, 900, "_p~iF~ps|U_ulLnnqC")))
	}))

	origin := domain.GeoPoint{Lat: 33.45, Lng: -112.07}
	dest := domain.GeoPoint{Lat: 33.40, Lng: -112.00}
	route, err := p.CalculateRoute(context.Background(), origin, dest, ports.RouteConstraints{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v2/directions/driving-car" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "test-key" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if route.ID == "" {
		t.Fatal("route id not assigned")
	}
	if route.TotalDistanceKm != 12.5 {
		t.Fatalf("distance = %v km, want 12.5", route.TotalDistanceKm)
	}
	if route.EstimatedDurationMinutes != 15 {
		t.Fatalf("duration = %v min, want 15", route.EstimatedDurationMinutes)
	}
	if route.Geometry != "_p~iF~ps|U_ulLnnqC" {
		t.Fatalf("geometry = %q", route.Geometry)
	}
}

func TestRecalculateRouteSendsAvoidPolygon(t *testing.T) {
	var avoid *geoJSONPolygon
	p, _ := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req directionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Options != nil {
			avoid = req.Options.AvoidPolygons
		}
		w.Write([]byte(directionsJSON(14000, 1200, "_p~iF~ps|U_ulLnnqC")))
	}))

	origin := domain.GeoPoint{Lat: 33.45, Lng: -112.07}
	dest := domain.GeoPoint{Lat: 33.40, Lng: -112.00}
	first, err := p.CalculateRoute(context.Background(), origin, dest, ports.RouteConstraints{})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	inc := domain.Incident{
		ID:           "inc-1",
		Type:         domain.IncidentFlood,
		Position:     domain.GeoPoint{Lat: 33.42, Lng: -112.03},
		RadiusMeters: 300,
	}
	second, err := p.RecalculateRoute(context.Background(), first.ID, inc)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	if avoid == nil || avoid.Type != "Polygon" {
		t.Fatalf("avoid polygon missing: %+v", avoid)
	}
	ring := avoid.Coordinates[0]
	if len(ring) != 17 || ring[0][0] != ring[len(ring)-1][0] {
		t.Fatalf("ring not closed: %d vertices", len(ring))
	}
	if second.ID == first.ID {
		t.Fatal("recalculated route reused the old id")
	}

	// The replacement route is recalculable as well.
	if _, err := p.RecalculateRoute(context.Background(), second.ID, inc); err != nil {
		t.Fatalf("recalculate replacement: %v", err)
	}
}

func TestRecalculateUnknownRoute(t *testing.T) {
	p, _ := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request for an unknown route id")
	}))

	_, err := p.RecalculateRoute(context.Background(), "nope", domain.Incident{ID: "inc-1"})
	if !errors.Is(err, ErrRouteNotFound) {
		t.Fatalf("err = %v, want ErrRouteNotFound", err)
	}
}

func TestSendWithRetryRecoversFromServerErrors(t *testing.T) {
	var calls atomic.Int32
	p, _ := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(directionsJSON(1000, 60, "_p~iF~ps|U_ulLnnqC")))
	}))

	origin := domain.GeoPoint{Lat: 33.45, Lng: -112.07}
	dest := domain.GeoPoint{Lat: 33.40, Lng: -112.00}
	if _, err := p.CalculateRoute(context.Background(), origin, dest, ports.RouteConstraints{}); err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	p, _ := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad coordinates", http.StatusBadRequest)
	}))

	origin := domain.GeoPoint{Lat: 33.45, Lng: -112.07}
	dest := domain.GeoPoint{Lat: 33.40, Lng: -112.00}
	_, err := p.CalculateRoute(context.Background(), origin, dest, ports.RouteConstraints{})

	var he *httpStatusError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400 status error", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("attempts = %d, want 1", got)
	}
}
