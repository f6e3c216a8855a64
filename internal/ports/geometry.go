package ports

import "parcel-sim-service/internal/domain"

// Contract for turning a route's encoded line-string into an ordered
// point sequence. Fewer than two points is a hard decode failure; the
// caller must abort whatever it was doing and mutate nothing.
type GeometryDecoder interface {
	Decode(encoded string) ([]domain.GeoPoint, error)
}
