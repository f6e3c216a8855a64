package store

import (
	"slices"
	"sync"
	"time"

	"parcel-sim-service/internal/domain"
)

// State is one immutable snapshot of the simulation. Incidents keep their
// insertion order; collision detection's tie-break depends on it.
type State struct {
	Hubs             []domain.Hub
	Parcels          map[string]domain.Parcel
	Incidents        []domain.Incident
	Playing          bool
	SpeedMultiplier  float64
	SelectedParcelID string
	PlacementMode    bool
	Version          uint64
}

// Store is the single authoritative holder of simulation state. All
// mutation goes through the named actions below; each one bumps the
// version and hands subscribers a fresh snapshot. The store does no I/O
// and no async work.
type Store struct {
	mu    sync.Mutex
	state State
	subs  map[chan State]struct{}
}

func New() *Store {
	return &Store{
		state: State{
			Parcels:         map[string]domain.Parcel{},
			SpeedMultiplier: 1,
		},
		subs: map[chan State]struct{}{},
	}
}

// Snapshot returns a deep copy of the current state. Callers may read it
// freely; writing to it has no effect on the store.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *Store) copyLocked() State {
	out := s.state
	out.Hubs = slices.Clone(s.state.Hubs)
	out.Incidents = make([]domain.Incident, len(s.state.Incidents))
	for i, inc := range s.state.Incidents {
		inc.AffectedRouteIDs = slices.Clone(inc.AffectedRouteIDs)
		out.Incidents[i] = inc
	}
	out.Parcels = make(map[string]domain.Parcel, len(s.state.Parcels))
	for id, p := range s.state.Parcels {
		out.Parcels[id] = p.Clone()
	}
	return out
}

// Subscribe registers a snapshot channel fed on every mutation. Slow
// consumers miss intermediate snapshots rather than blocking the writer.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) notifyLocked() {
	s.state.Version++
	if len(s.subs) == 0 {
		return
	}
	snap := s.copyLocked()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so the latest one can land.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (s *Store) SetHubs(hubs []domain.Hub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Hubs = slices.Clone(hubs)
	s.notifyLocked()
}

func (s *Store) AddParcel(p domain.Parcel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Parcels[p.ID] = p.Clone()
	s.notifyLocked()
}

// UpdateParcel replaces an existing parcel record, last-write-wins.
// An unknown id is silently dropped so a removed parcel cannot be
// resurrected by a late asynchronous result.
func (s *Store) UpdateParcel(p domain.Parcel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.Parcels[p.ID]; !ok {
		return false
	}
	s.state.Parcels[p.ID] = p.Clone()
	s.notifyLocked()
	return true
}

func (s *Store) RemoveParcel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.Parcels[id]; !ok {
		return false
	}
	delete(s.state.Parcels, id)
	if s.state.SelectedParcelID == id {
		s.state.SelectedParcelID = ""
	}
	s.notifyLocked()
	return true
}

// ReplaceParcels swaps the whole parcel map in one action.
func (s *Store) ReplaceParcels(parcels []domain.Parcel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]domain.Parcel, len(parcels))
	for _, p := range parcels {
		next[p.ID] = p.Clone()
	}
	s.state.Parcels = next
	s.notifyLocked()
}

// StartParcel promotes a routed PLANNED parcel to TRANSIT, stamping its
// start time and initial arrival estimate from the route duration.
func (s *Store) StartParcel(id string, now time.Time) (domain.Parcel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.state.Parcels[id]
	if !ok || p.State != domain.StatePlanned || !p.Routed() {
		return domain.Parcel{}, false
	}

	start := now
	eta := now.Add(time.Duration(p.Assignment.Route.EstimatedDurationMinutes * float64(time.Minute)))
	p.State = domain.StateTransit
	p.StartTime = &start
	p.EstimatedArrival = &eta

	s.state.Parcels[id] = p
	s.notifyLocked()
	return p.Clone(), true
}

// ApplyTick merges one tick's batch of parcel updates in a single action.
// Ids removed since the tick's snapshot are skipped.
func (s *Store) ApplyTick(updated []domain.Parcel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for _, p := range updated {
		if _, ok := s.state.Parcels[p.ID]; !ok {
			continue
		}
		s.state.Parcels[p.ID] = p.Clone()
		changed = true
	}
	if changed {
		s.notifyLocked()
	}
}

func (s *Store) AddIncident(inc domain.Incident) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Incidents = append(s.state.Incidents, inc)
	s.notifyLocked()
}

// ResolveIncident flips the resolved flag. Incidents are never deleted;
// a resolved one stays for display but is excluded from collision checks.
func (s *Store) ResolveIncident(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Incidents {
		if s.state.Incidents[i].ID == id && !s.state.Incidents[i].Resolved {
			s.state.Incidents[i].Resolved = true
			s.notifyLocked()
			return true
		}
	}
	return false
}

func (s *Store) SetPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Playing = playing
	s.notifyLocked()
}

func (s *Store) SetSpeedMultiplier(mult float64) bool {
	if mult <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SpeedMultiplier = mult
	s.notifyLocked()
	return true
}

func (s *Store) SetPlacementMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PlacementMode = enabled
	s.notifyLocked()
}

func (s *Store) SelectParcel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedParcelID = id
	s.notifyLocked()
}
