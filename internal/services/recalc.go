package services

import (
	"context"
	"log"
	"sync"
	"time"

	"parcel-sim-service/internal/domain"
	"parcel-sim-service/internal/ports"
	"parcel-sim-service/internal/sim"
	"parcel-sim-service/internal/store"
)

// Recalculator runs fire-and-forget route recalculations, one in flight
// per parcel. Each task carries a cancellation token honored on pause
// and on parcel removal; a completed result merges into the store by
// parcel id, last-write-wins, with no check of the parcel's state.
type Recalculator struct {
	Store    *store.Store
	Provider ports.RouteProvider
	Decoder  ports.GeometryDecoder
	Journal  ports.EventJournal

	// Timeout bounds a single recalculation request. Zero means no bound
	// beyond the provider's own transport timeout.
	Timeout time.Duration

	mu       sync.Mutex
	inflight map[string]*recalcTask
	// wg lets tests wait for scheduled tasks to settle.
	wg sync.WaitGroup
}

type recalcTask struct {
	cancel context.CancelFunc
}

func NewRecalculator(st *store.Store, provider ports.RouteProvider, decoder ports.GeometryDecoder, journal ports.EventJournal) *Recalculator {
	return &Recalculator{
		Store:    st,
		Provider: provider,
		Decoder:  decoder,
		Journal:  journal,
		Timeout:  30 * time.Second,
		inflight: make(map[string]*recalcTask),
	}
}

// Schedule starts an asynchronous recalculation for a parcel. A task
// already in flight for the same parcel is superseded.
func (r *Recalculator) Schedule(parcelID, routeID string, incident domain.Incident) {
	ctx, cancel := context.WithCancel(context.Background())
	task := &recalcTask{cancel: cancel}

	r.mu.Lock()
	if prev, ok := r.inflight[parcelID]; ok {
		prev.cancel()
	}
	r.inflight[parcelID] = task
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.finish(parcelID, task)
		r.run(ctx, parcelID, routeID, incident)
	}()
}

// Cancel aborts the in-flight recalculation for one parcel, if any.
func (r *Recalculator) Cancel(parcelID string) {
	r.mu.Lock()
	task, ok := r.inflight[parcelID]
	r.mu.Unlock()
	if ok {
		task.cancel()
	}
}

// CancelAll aborts every in-flight recalculation. Invoked on pause.
func (r *Recalculator) CancelAll() {
	r.mu.Lock()
	tasks := make([]*recalcTask, 0, len(r.inflight))
	for _, t := range r.inflight {
		tasks = append(tasks, t)
	}
	r.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
}

// Wait blocks until all scheduled tasks have settled. Test helper.
func (r *Recalculator) Wait() { r.wg.Wait() }

func (r *Recalculator) finish(parcelID string, task *recalcTask) {
	task.cancel()
	r.mu.Lock()
	if r.inflight[parcelID] == task {
		delete(r.inflight, parcelID)
	}
	r.mu.Unlock()
}

func (r *Recalculator) run(ctx context.Context, parcelID, routeID string, incident domain.Incident) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	r.journal(ports.Event{Type: ports.EventRecalcRequested, ParcelID: parcelID, IncidentID: incident.ID, RouteID: routeID})

	route, err := r.Provider.RecalculateRoute(ctx, routeID, incident)
	if err != nil {
		// The parcel stays INCIDENT; there is no automatic retry.
		log.Printf("recalculation failed: parcel=%s route=%s incident=%s err=%v", parcelID, routeID, incident.ID, err)
		r.journal(ports.Event{Type: ports.EventRecalcFailed, ParcelID: parcelID, IncidentID: incident.ID, RouteID: routeID, Detail: err.Error()})
		return
	}

	path, err := r.Decoder.Decode(route.Geometry)
	if err != nil {
		log.Printf("recalculated geometry unusable: parcel=%s route=%s err=%v", parcelID, route.ID, err)
		r.journal(ports.Event{Type: ports.EventRecalcFailed, ParcelID: parcelID, IncidentID: incident.ID, RouteID: route.ID, Detail: err.Error()})
		return
	}

	snap := r.Store.Snapshot()
	current, ok := snap.Parcels[parcelID]
	if !ok {
		// Removed while the request was in flight; nothing shares the id.
		return
	}

	next := sim.Reanchor(current, route, path, time.Now())
	if r.Store.UpdateParcel(next) {
		r.journal(ports.Event{Type: ports.EventRecalcApplied, ParcelID: parcelID, IncidentID: incident.ID, RouteID: route.ID})
	}
}

func (r *Recalculator) journal(ev ports.Event) {
	if r.Journal == nil {
		return
	}
	ev.At = time.Now()
	// Journal writes use a background context: a cancelled task still
	// records its outcome.
	if err := r.Journal.Record(context.Background(), ev); err != nil {
		log.Printf("journal write failed: type=%s err=%v", ev.Type, err)
	}
}
