package ports

import (
	"context"
	"time"
)

const (
	EventParcelCreated   = "parcel_created"
	EventParcelStarted   = "parcel_started"
	EventParcelRemoved   = "parcel_removed"
	EventIncidentPlaced  = "incident_placed"
	EventIncidentCleared = "incident_resolved"
	EventRecalcRequested = "recalc_requested"
	EventRecalcApplied   = "recalc_applied"
	EventRecalcFailed    = "recalc_failed"
)

// Event is one append-only audit record of the simulation lifecycle.
type Event struct {
	Type       string
	ParcelID   string
	IncidentID string
	RouteID    string
	Detail     string
	At         time.Time
}

// Port: a boundary for recording lifecycle events to an audit sink.
// Journaling is write-only; nothing in the simulation reads it back.
type EventJournal interface {
	Record(ctx context.Context, ev Event) error
}
