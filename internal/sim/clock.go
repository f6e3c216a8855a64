package sim

import (
	"context"
	"sort"
	"time"

	"parcel-sim-service/internal/domain"
	"parcel-sim-service/internal/store"
)

// Recalculator schedules an asynchronous route recalculation for a parcel
// that just collided with an incident. Scheduling must not block the tick.
type Recalculator interface {
	Schedule(parcelID string, routeID string, incident domain.Incident)
}

// Clock drives the simulation. Tick is single-threaded and cooperative:
// the caller invokes it from one goroutine (Run, or a test), each tick
// runs to completion against one pre-tick snapshot, and all resulting
// parcel changes land in a single store action.
type Clock struct {
	store  *store.Store
	recalc Recalculator

	lastTick time.Time
	hasRef   bool
}

func NewClock(st *store.Store, recalc Recalculator) *Clock {
	return &Clock{store: st, recalc: recalc}
}

// Resume resets the elapsed-time reference so time spent paused does not
// produce a catch-up jump.
func (c *Clock) Resume(now time.Time) {
	c.lastTick = now
	c.hasRef = true
}

// Tick runs one simulation step. While playback is paused it only drops
// the time reference; the first tick after resume re-establishes it and
// moves nothing.
func (c *Clock) Tick(now time.Time) {
	snap := c.store.Snapshot()

	if !snap.Playing {
		c.hasRef = false
		return
	}
	if !c.hasRef {
		c.Resume(now)
		return
	}

	delta := now.Sub(c.lastTick)
	c.lastTick = now
	if delta <= 0 {
		return
	}

	// Deterministic iteration order so a tick's batch is reproducible.
	ids := make([]string, 0, len(snap.Parcels))
	for id := range snap.Parcels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Every parcel advances against the same pre-tick snapshot; no update
	// from this tick can see another parcel's update from this tick.
	updated := make([]domain.Parcel, 0, len(ids))
	for _, id := range ids {
		p := snap.Parcels[id]
		if p.State != domain.StateTransit {
			continue
		}

		next := Advance(p, delta, snap.SpeedMultiplier, now)
		if next.State == domain.StateTransit {
			if inc, hit := DetectCollision(next, snap.Incidents); hit {
				next = MarkIncident(next, inc.ID)
				if c.recalc != nil && next.Routed() {
					c.recalc.Schedule(next.ID, next.Assignment.Route.ID, inc)
				}
			}
		}
		updated = append(updated, next)
	}

	if len(updated) > 0 {
		c.store.ApplyTick(updated)
	}
}

// Run drives Tick on a fixed interval until the context is cancelled.
// The timer is re-armed only after a tick completes, so ticks never overlap.
func (c *Clock) Run(ctx context.Context, interval time.Duration) {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-timer.C:
			c.Tick(now)
			timer.Reset(interval)
		}
	}
}
