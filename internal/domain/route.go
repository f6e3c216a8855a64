package domain

// Route is the descriptor returned by the routing service.
// Geometry is an encoded polyline; decoding it is the geometry
// collaborator's job, not the route's.
type Route struct {
	ID                       string
	Geometry                 string
	TotalDistanceKm          float64
	EstimatedDurationMinutes float64
}

// Hub is a named depot location. Parcels travel hub to hub; a parcel
// created without a route stays pinned at its hub.
type Hub struct {
	ID       string
	Name     string
	Position GeoPoint
}
