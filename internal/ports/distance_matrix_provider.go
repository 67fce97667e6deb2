package ports

import (
	"context"
	"route-optimizer-service/internal/domain"
)

// Contract for producing an n×n distance matrix for a set of points.
// Implementations may return asymmetric matrices; callers must not average them.
type MatrixProvider interface {
	// Name identifies the source in logs and metrics.
	Name() string
	Matrix(ctx context.Context, points []domain.Coordinates) (*domain.DistanceMatrix, error)
}
