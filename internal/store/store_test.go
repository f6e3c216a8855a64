package store

import (
	"testing"
	"time"

	"parcel-sim-service/internal/domain"
)

func routedParcel(id string) domain.Parcel {
	return domain.Parcel{
		ID:           id,
		TrackingCode: "PCL-" + id,
		State:        domain.StatePlanned,
		SpeedKmh:     40,
		Position:     domain.GeoPoint{Lat: 33.45, Lng: -112.07},
		Assignment: &domain.Assignment{
			Route: domain.Route{ID: "r-" + id, TotalDistanceKm: 10, EstimatedDurationMinutes: 15},
			Path: []domain.GeoPoint{
				{Lat: 33.45, Lng: -112.07},
				{Lat: 33.45, Lng: -112.00},
			},
		},
	}
}

func TestSnapshotIsolation(t *testing.T) {
	st := New()
	st.AddParcel(routedParcel("a"))
	st.AddIncident(domain.Incident{ID: "inc-1", Type: domain.IncidentFlood})

	snap := st.Snapshot()
	p := snap.Parcels["a"]
	p.Progress = 0.9
	p.AffectedIncidentIDs = append(p.AffectedIncidentIDs, "inc-1")
	snap.Parcels["a"] = p
	snap.Incidents[0].Resolved = true
	delete(snap.Parcels, "a")

	fresh := st.Snapshot()
	if fresh.Parcels["a"].Progress != 0 || len(fresh.Parcels["a"].AffectedIncidentIDs) != 0 {
		t.Fatal("mutating a snapshot leaked into the store")
	}
	if fresh.Incidents[0].Resolved {
		t.Fatal("mutating a snapshot incident leaked into the store")
	}
}

func TestStartParcel(t *testing.T) {
	st := New()
	st.AddParcel(routedParcel("a"))

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	p, ok := st.StartParcel("a", now)
	if !ok {
		t.Fatal("start failed for a routed PLANNED parcel")
	}
	if p.State != domain.StateTransit {
		t.Fatalf("state = %s, want TRANSIT", p.State)
	}
	if p.StartTime == nil || !p.StartTime.Equal(now) {
		t.Fatalf("start time = %v, want %v", p.StartTime, now)
	}
	if p.EstimatedArrival == nil || !p.EstimatedArrival.Equal(now.Add(15*time.Minute)) {
		t.Fatalf("eta = %v, want %v", p.EstimatedArrival, now.Add(15*time.Minute))
	}

	// Already in TRANSIT: no second promotion.
	if _, ok := st.StartParcel("a", now); ok {
		t.Fatal("started an already started parcel")
	}
}

func TestStartParcelRequiresRoute(t *testing.T) {
	st := New()
	st.AddParcel(domain.Parcel{ID: "bare", State: domain.StatePlanned})

	if _, ok := st.StartParcel("bare", time.Now()); ok {
		t.Fatal("a parcel with no assigned route must remain PLANNED")
	}
}

func TestUpdateParcelDropsUnknownID(t *testing.T) {
	st := New()
	st.AddParcel(routedParcel("a"))
	st.RemoveParcel("a")

	// A late asynchronous result must not resurrect the parcel.
	if st.UpdateParcel(routedParcel("a")) {
		t.Fatal("update accepted for a removed parcel")
	}
	if len(st.Snapshot().Parcels) != 0 {
		t.Fatal("removed parcel reappeared")
	}
}

func TestApplyTickSkipsRemoved(t *testing.T) {
	st := New()
	st.AddParcel(routedParcel("a"))
	st.AddParcel(routedParcel("b"))

	batch := []domain.Parcel{routedParcel("a"), routedParcel("b")}
	batch[0].Progress = 0.5
	batch[1].Progress = 0.5

	st.RemoveParcel("b")
	st.ApplyTick(batch)

	snap := st.Snapshot()
	if snap.Parcels["a"].Progress != 0.5 {
		t.Fatalf("a progress = %v, want 0.5", snap.Parcels["a"].Progress)
	}
	if _, ok := snap.Parcels["b"]; ok {
		t.Fatal("tick batch resurrected a removed parcel")
	}
}

func TestIncidentInsertionOrderPreserved(t *testing.T) {
	st := New()
	for _, id := range []string{"first", "second", "third"} {
		st.AddIncident(domain.Incident{ID: id, Type: domain.IncidentAccident})
	}

	snap := st.Snapshot()
	for i, want := range []string{"first", "second", "third"} {
		if snap.Incidents[i].ID != want {
			t.Fatalf("incidents[%d] = %s, want %s", i, snap.Incidents[i].ID, want)
		}
	}
}

func TestResolveIncident(t *testing.T) {
	st := New()
	st.AddIncident(domain.Incident{ID: "inc-1", Type: domain.IncidentConstruction})

	if !st.ResolveIncident("inc-1") {
		t.Fatal("resolve failed")
	}
	if !st.Snapshot().Incidents[0].Resolved {
		t.Fatal("incident not marked resolved")
	}
	if st.ResolveIncident("inc-1") {
		t.Fatal("resolving twice reported success")
	}
	if st.ResolveIncident("missing") {
		t.Fatal("resolved an unknown incident")
	}
	if len(st.Snapshot().Incidents) != 1 {
		t.Fatal("incident deleted; resolved incidents must remain")
	}
}

func TestPlaybackActions(t *testing.T) {
	st := New()

	snap := st.Snapshot()
	if snap.Playing || snap.SpeedMultiplier != 1 {
		t.Fatalf("defaults = playing:%v mult:%v, want paused at 1x", snap.Playing, snap.SpeedMultiplier)
	}

	st.SetPlaying(true)
	if !st.SetSpeedMultiplier(8) {
		t.Fatal("valid multiplier rejected")
	}
	if st.SetSpeedMultiplier(0) || st.SetSpeedMultiplier(-1) {
		t.Fatal("non-positive multiplier accepted")
	}
	st.SetPlacementMode(true)
	st.SelectParcel("p-1")

	snap = st.Snapshot()
	if !snap.Playing || snap.SpeedMultiplier != 8 || !snap.PlacementMode || snap.SelectedParcelID != "p-1" {
		t.Fatalf("unexpected playback state: %+v", snap)
	}

	// Removing the selected parcel clears the selection.
	st.AddParcel(routedParcel("p-1"))
	st.SelectParcel("p-1")
	st.RemoveParcel("p-1")
	if st.Snapshot().SelectedParcelID != "" {
		t.Fatal("selection survived parcel removal")
	}
}

func TestSubscribeDeliversLatestSnapshot(t *testing.T) {
	st := New()
	ch, cancel := st.Subscribe()
	defer cancel()

	// Two rapid mutations: a slow consumer may miss the first but must
	// end up seeing the latest state.
	st.AddParcel(routedParcel("a"))
	st.AddParcel(routedParcel("b"))

	var last State
	for {
		select {
		case s := <-ch:
			last = s
			continue
		default:
		}
		break
	}
	if len(last.Parcels) != 2 {
		t.Fatalf("latest snapshot has %d parcels, want 2", len(last.Parcels))
	}
}
