package journal

import (
	"context"

	"parcel-sim-service/internal/ports"
)

// Nop discards all events. It is the default journal when no database
// is configured.
type Nop struct{}

func (Nop) Record(context.Context, ports.Event) error { return nil }
