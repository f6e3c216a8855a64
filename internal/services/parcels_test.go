package services

import (
	"context"
	"errors"
	"testing"

	"parcel-sim-service/internal/adapters/geometry"
	"parcel-sim-service/internal/adapters/routing"
	"parcel-sim-service/internal/domain"
	"parcel-sim-service/internal/store"
)

// Two-point line decodable by the polyline decoder.
const testGeometry = "_p~iF~ps|U_ulLnnqC"

var testHubs = []domain.Hub{
	{ID: "hub-west", Name: "West Depot", Position: domain.GeoPoint{Lat: 33.45, Lng: -112.07}},
	{ID: "hub-east", Name: "East Depot", Position: domain.GeoPoint{Lat: 33.40, Lng: -112.00}},
}

func testParcelService(t *testing.T, provider *routing.MockRouteProvider) (*ParcelService, *store.Store) {
	t.Helper()
	st := store.New()
	st.SetHubs(testHubs)
	svc := &ParcelService{
		Store:    st,
		Provider: provider,
		Decoder:  geometry.NewPolylineDecoder(),
	}
	return svc, st
}

func TestCreateRoutedParcel(t *testing.T) {
	provider := routing.NewMockRouteProvider([]routing.MockRoute{{
		Origin:      testHubs[0].Position,
		Destination: testHubs[1].Position,
		Route: domain.Route{
			ID:                       "r-1",
			Geometry:                 testGeometry,
			TotalDistanceKm:          12.5,
			EstimatedDurationMinutes: 20,
		},
	}})
	svc, st := testParcelService(t, provider)

	p, err := svc.Create(context.Background(), CreateParcelRequest{
		OriginHubID:      "hub-west",
		DestinationHubID: "hub-east",
		SpeedKmh:         50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.State != domain.StatePlanned {
		t.Fatalf("state = %s, want PLANNED", p.State)
	}
	if !p.Routed() {
		t.Fatal("parcel has no usable assignment")
	}
	if p.Position != p.Assignment.Path[0] {
		t.Fatalf("position = %+v, want first path point %+v", p.Position, p.Assignment.Path[0])
	}
	if p.TrackingCode == "" {
		t.Fatal("tracking code not generated")
	}
	if _, ok := st.Snapshot().Parcels[p.ID]; !ok {
		t.Fatal("parcel not added to the store")
	}
}

func TestCreateStartsWhenRequested(t *testing.T) {
	provider := routing.NewMockRouteProvider([]routing.MockRoute{{
		Origin:      testHubs[0].Position,
		Destination: testHubs[1].Position,
		Route:       domain.Route{ID: "r-1", Geometry: testGeometry, TotalDistanceKm: 10, EstimatedDurationMinutes: 15},
	}})
	svc, st := testParcelService(t, provider)

	p, err := svc.Create(context.Background(), CreateParcelRequest{
		OriginHubID:      "hub-west",
		DestinationHubID: "hub-east",
		Start:            true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.State != domain.StateTransit {
		t.Fatalf("state = %s, want TRANSIT", p.State)
	}
	if p.SpeedKmh != defaultSpeedKmh {
		t.Fatalf("speed = %v, want default %v", p.SpeedKmh, defaultSpeedKmh)
	}

	stored := st.Snapshot().Parcels[p.ID]
	if stored.StartTime == nil || stored.EstimatedArrival == nil {
		t.Fatal("start did not stamp timestamps")
	}
}

func TestCreateAbortsOnRouteFailure(t *testing.T) {
	// Empty mock: every calculation fails.
	svc, st := testParcelService(t, routing.NewMockRouteProvider(nil))

	_, err := svc.Create(context.Background(), CreateParcelRequest{
		OriginHubID:      "hub-west",
		DestinationHubID: "hub-east",
	})
	if err == nil {
		t.Fatal("expected route calculation failure")
	}
	if len(st.Snapshot().Parcels) != 0 {
		t.Fatal("failed creation mutated the store")
	}
}

func TestCreateAbortsOnGeometryFailure(t *testing.T) {
	provider := routing.NewMockRouteProvider([]routing.MockRoute{{
		Origin:      testHubs[0].Position,
		Destination: testHubs[1].Position,
		Route:       domain.Route{ID: "r-1", Geometry: "_p~iF~ps|U", TotalDistanceKm: 10},
	}})
	svc, st := testParcelService(t, provider)

	_, err := svc.Create(context.Background(), CreateParcelRequest{
		OriginHubID:      "hub-west",
		DestinationHubID: "hub-east",
	})
	if !errors.Is(err, geometry.ErrInvalidGeometry) {
		t.Fatalf("err = %v, want ErrInvalidGeometry", err)
	}
	if len(st.Snapshot().Parcels) != 0 {
		t.Fatal("failed creation mutated the store")
	}
}

func TestCreateRejectsUnknownHub(t *testing.T) {
	svc, _ := testParcelService(t, routing.NewMockRouteProvider(nil))

	_, err := svc.Create(context.Background(), CreateParcelRequest{
		OriginHubID:      "hub-west",
		DestinationHubID: "hub-nowhere",
	})
	if !errors.Is(err, ErrUnknownHub) {
		t.Fatalf("err = %v, want ErrUnknownHub", err)
	}
}

func TestCreateUnroutedParcel(t *testing.T) {
	svc, st := testParcelService(t, routing.NewMockRouteProvider(nil))

	p, err := svc.Create(context.Background(), CreateParcelRequest{TrackingCode: "PCL-BARE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.State != domain.StatePlanned || p.Routed() {
		t.Fatalf("unrouted parcel: state=%s routed=%v, want bare PLANNED", p.State, p.Routed())
	}
	if p.Position != testHubs[0].Position {
		t.Fatalf("position = %+v, want pinned at first hub", p.Position)
	}

	// It must stay PLANNED: starting a routeless parcel fails.
	if _, err := svc.Start(context.Background(), p.ID); err == nil {
		t.Fatal("started a parcel with no route")
	}
	if got := st.Snapshot().Parcels[p.ID].State; got != domain.StatePlanned {
		t.Fatalf("state = %s, want PLANNED", got)
	}
}

func TestRemoveParcel(t *testing.T) {
	svc, st := testParcelService(t, routing.NewMockRouteProvider(nil))

	p, err := svc.Create(context.Background(), CreateParcelRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !svc.Remove(context.Background(), p.ID) {
		t.Fatal("remove failed")
	}
	if svc.Remove(context.Background(), p.ID) {
		t.Fatal("second remove reported success")
	}
	if len(st.Snapshot().Parcels) != 0 {
		t.Fatal("parcel still in store")
	}
}
