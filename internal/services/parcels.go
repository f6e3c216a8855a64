package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"parcel-sim-service/internal/domain"
	"parcel-sim-service/internal/ports"
	"parcel-sim-service/internal/store"
)

// ErrUnknownHub is returned when a creation request names a hub id that
// is not seeded in the store.
var ErrUnknownHub = errors.New("unknown hub")

// defaultSpeedKmh is used when a creation request does not set a speed.
const defaultSpeedKmh = 40

// ParcelService orchestrates parcel creation and lifecycle actions:
// route calculation, geometry decoding, store updates, journaling.
type ParcelService struct {
	Store    *store.Store
	Provider ports.RouteProvider
	Decoder  ports.GeometryDecoder
	Journal  ports.EventJournal
	Recalc   *Recalculator
}

type CreateParcelRequest struct {
	TrackingCode string
	// OriginHubID and DestinationHubID select the route endpoints. Both
	// empty creates an unrouted parcel pinned at the first hub.
	OriginHubID      string
	DestinationHubID string
	SpeedKmh         float64
	// Start promotes the parcel to TRANSIT immediately after creation.
	Start bool
}

// Create builds a parcel and adds it to the store. Any routing or
// geometry failure aborts the creation with no state mutation.
func (s *ParcelService) Create(ctx context.Context, req CreateParcelRequest) (domain.Parcel, error) {
	speed := req.SpeedKmh
	if speed == 0 {
		speed = defaultSpeedKmh
	}
	if speed < 0 {
		return domain.Parcel{}, errors.New("create parcel: speed must be positive")
	}

	code := strings.TrimSpace(req.TrackingCode)
	if code == "" {
		code = "PCL-" + strings.ToUpper(uuid.NewString()[:8])
	}

	parcel := domain.Parcel{
		ID:           uuid.NewString(),
		TrackingCode: code,
		State:        domain.StatePlanned,
		SpeedKmh:     speed,
	}

	snap := s.Store.Snapshot()

	if req.OriginHubID == "" && req.DestinationHubID == "" {
		// Unrouted parcel: stays PLANNED, pinned at the first hub.
		if len(snap.Hubs) > 0 {
			parcel.Position = snap.Hubs[0].Position
		}
		s.Store.AddParcel(parcel)
		s.journal(ctx, ports.Event{Type: ports.EventParcelCreated, ParcelID: parcel.ID, Detail: "unrouted"})
		return parcel, nil
	}

	origin, err := findHub(snap.Hubs, req.OriginHubID)
	if err != nil {
		return domain.Parcel{}, fmt.Errorf("create parcel: origin: %w", err)
	}
	destination, err := findHub(snap.Hubs, req.DestinationHubID)
	if err != nil {
		return domain.Parcel{}, fmt.Errorf("create parcel: destination: %w", err)
	}

	route, err := s.Provider.CalculateRoute(ctx, origin.Position, destination.Position, ports.RouteConstraints{})
	if err != nil {
		return domain.Parcel{}, fmt.Errorf("create parcel: calculate route %s -> %s: %w", origin.ID, destination.ID, err)
	}

	path, err := s.Decoder.Decode(route.Geometry)
	if err != nil {
		return domain.Parcel{}, fmt.Errorf("create parcel: %w", err)
	}

	parcel.Assignment = &domain.Assignment{Route: route, Path: path}
	parcel.Position = path[0]

	s.Store.AddParcel(parcel)
	s.journal(ctx, ports.Event{Type: ports.EventParcelCreated, ParcelID: parcel.ID, RouteID: route.ID})

	if req.Start {
		started, err := s.Start(ctx, parcel.ID)
		if err != nil {
			return parcel, fmt.Errorf("create parcel: %w", err)
		}
		return started, nil
	}

	return parcel, nil
}

// Start promotes a routed PLANNED parcel to TRANSIT.
func (s *ParcelService) Start(ctx context.Context, id string) (domain.Parcel, error) {
	p, ok := s.Store.StartParcel(id, time.Now())
	if !ok {
		return domain.Parcel{}, fmt.Errorf("start parcel %q: not found, not PLANNED, or has no route", id)
	}
	s.journal(ctx, ports.Event{Type: ports.EventParcelStarted, ParcelID: p.ID, RouteID: p.Assignment.Route.ID})
	return p, nil
}

// Remove deletes a parcel and cancels any recalculation in flight for it.
func (s *ParcelService) Remove(ctx context.Context, id string) bool {
	if s.Recalc != nil {
		s.Recalc.Cancel(id)
	}
	if !s.Store.RemoveParcel(id) {
		return false
	}
	s.journal(ctx, ports.Event{Type: ports.EventParcelRemoved, ParcelID: id})
	return true
}

func (s *ParcelService) journal(ctx context.Context, ev ports.Event) {
	if s.Journal == nil {
		return
	}
	ev.At = time.Now()
	if err := s.Journal.Record(ctx, ev); err != nil {
		log.Printf("journal write failed: type=%s err=%v", ev.Type, err)
	}
}

func findHub(hubs []domain.Hub, id string) (domain.Hub, error) {
	for _, h := range hubs {
		if h.ID == id {
			return h, nil
		}
	}
	return domain.Hub{}, fmt.Errorf("%w: %q", ErrUnknownHub, id)
}
