package distance

import (
	"context"
	"fmt"
	"sync"

	"route-optimizer-service/internal/domain"
)

// MockMatrixProvider returns a fixed matrix or error. Used in tests and for offline runs.
// Seconds is optional.
type MockMatrixProvider struct {
	Km      [][]float64
	Seconds [][]float64
	Err     error

	mu    sync.Mutex
	calls int
}

func NewMockMatrixProvider(km [][]float64) *MockMatrixProvider {
	return &MockMatrixProvider{Km: km}
}

func (p *MockMatrixProvider) Name() string { return string(domain.SourceRoadNetwork) }

func (p *MockMatrixProvider) Matrix(ctx context.Context, points []domain.Coordinates) (*domain.DistanceMatrix, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}

	if len(p.Km) != len(points) {
		return nil, fmt.Errorf("mock matrix: have %d rows, asked for %d points", len(p.Km), len(points))
	}

	m := domain.NewDistanceMatrix(len(points), domain.SourceRoadNetwork)
	for i := range p.Km {
		copy(m.Km[i], p.Km[i])
	}
	if len(p.Seconds) == len(points) {
		m.WithSeconds()
		for i := range p.Seconds {
			copy(m.Seconds[i], p.Seconds[i])
		}
	}
	return m, nil
}

// Calls reports how many times Matrix was invoked.
func (p *MockMatrixProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// MockRouteProvider returns a fixed geometry or error and records the points it was asked for.
type MockRouteProvider struct {
	Geometry *domain.RouteGeometry
	Err      error

	mu   sync.Mutex
	seen [][]domain.Coordinates
}

func (p *MockRouteProvider) Route(ctx context.Context, points []domain.Coordinates) (*domain.RouteGeometry, error) {
	p.mu.Lock()
	p.seen = append(p.seen, append([]domain.Coordinates(nil), points...))
	p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	return p.Geometry, nil
}

// Requests returns the point lists passed to Route, in call order.
func (p *MockRouteProvider) Requests() [][]domain.Coordinates {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]domain.Coordinates(nil), p.seen...)
}
