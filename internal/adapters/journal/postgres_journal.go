package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parcel-sim-service/internal/ports"
)

// PostgresJournal records simulation lifecycle events to an append-only
// table. It is write-only; nothing in the simulation reads it back, so
// the persistence non-goal for simulation state still holds.
type PostgresJournal struct {
	DB *sql.DB
}

func NewPostgresJournal(db *sql.DB) *PostgresJournal {
	return &PostgresJournal{DB: db}
}

// InitSchema creates the journal table if it does not exist.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := `
	CREATE TABLE IF NOT EXISTS simulation_events (
		id          BIGSERIAL PRIMARY KEY,
		event_type  TEXT NOT NULL,
		parcel_id   TEXT NOT NULL DEFAULT '',
		incident_id TEXT NOT NULL DEFAULT '',
		route_id    TEXT NOT NULL DEFAULT '',
		detail      TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_simulation_events_parcel
		ON simulation_events (parcel_id, occurred_at);
	`
	if _, err := tx.Exec(q); err != nil {
		return fmt.Errorf("init schema: create simulation_events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit: %w", err)
	}
	return nil
}

func (j *PostgresJournal) Record(ctx context.Context, ev ports.Event) error {
	if j.DB == nil {
		return errors.New("journal: DB is nil")
	}
	if ev.Type == "" {
		return errors.New("journal: event type must be non-empty")
	}

	q := `
	INSERT INTO simulation_events (event_type, parcel_id, incident_id, route_id, detail, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6);
	`
	if _, err := j.DB.ExecContext(ctx, q, ev.Type, ev.ParcelID, ev.IncidentID, ev.RouteID, ev.Detail, ev.At); err != nil {
		return fmt.Errorf("journal: insert %s event: %w", ev.Type, err)
	}
	return nil
}
