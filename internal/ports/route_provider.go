package ports

import (
	"context"
	"route-optimizer-service/internal/domain"
)

// Contract for fetching road geometry through an ordered list of waypoints.
type RouteProvider interface {
	// Return the route through points in order, or nil when the service has none.
	Route(ctx context.Context, points []domain.Coordinates) (*domain.RouteGeometry, error)
}

// Reports whether an external service is currently considered reachable.
type AvailabilityReporter interface {
	Available() bool
}
