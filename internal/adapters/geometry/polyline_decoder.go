package geometry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twpayne/go-polyline"

	"parcel-sim-service/internal/domain"
)

// ErrInvalidGeometry marks a line-string that cannot yield a usable path.
// Callers treat it as a hard validation error: abort the operation,
// surface a message, mutate nothing.
var ErrInvalidGeometry = errors.New("invalid route geometry")

// PolylineDecoder decodes Google encoded polylines (the encoding ORS and
// OSRM return for route geometry) into ordered geographic points.
type PolylineDecoder struct{}

func NewPolylineDecoder() *PolylineDecoder { return &PolylineDecoder{} }

func (d *PolylineDecoder) Decode(encoded string) ([]domain.GeoPoint, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, fmt.Errorf("decode geometry: empty line-string: %w", ErrInvalidGeometry)
	}

	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %v: %w", err, ErrInvalidGeometry)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("decode geometry: %d trailing bytes: %w", len(rest), ErrInvalidGeometry)
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("decode geometry: %d points, need at least 2: %w", len(coords), ErrInvalidGeometry)
	}

	points := make([]domain.GeoPoint, 0, len(coords))
	for _, c := range coords {
		p := domain.GeoPoint{Lat: c[0], Lng: c[1]}
		if !p.IsValid() {
			return nil, fmt.Errorf("decode geometry: point %+v out of range: %w", p, ErrInvalidGeometry)
		}
		points = append(points, p)
	}

	return points, nil
}
