package distance

import (
	"context"
	"errors"
	"sync"
	"testing"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu     sync.Mutex
	data   map[string]map[string]ports.DistanceResult
	getErr error
	putErr error
	gets   int
	puts   int
}

func newMemCache() *memCache {
	return &memCache{data: map[string]map[string]ports.DistanceResult{}}
}

func (c *memCache) GetMany(ctx context.Context, origin string, dests []string) (map[string]ports.DistanceResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	out := map[string]ports.DistanceResult{}
	for _, d := range dests {
		if r, ok := c.data[origin][d]; ok {
			out[d] = r
		}
	}
	return out, nil
}

func (c *memCache) PutMany(ctx context.Context, origin string, results map[string]ports.DistanceResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	if c.putErr != nil {
		return c.putErr
	}
	if c.data[origin] == nil {
		c.data[origin] = map[string]ports.DistanceResult{}
	}
	for d, r := range results {
		c.data[origin][d] = r
	}
	return nil
}

func threePoints() []domain.Coordinates {
	return []domain.Coordinates{
		{Lon: 44.80, Lat: 41.70},
		{Lon: 44.81, Lat: 41.71},
		{Lon: 44.82, Lat: 41.72},
	}
}

func TestCachedMatrix_SecondCallServedFromCache(t *testing.T) {
	inner := NewMockMatrixProvider([][]float64{
		{0, 1.2, 2.5},
		{1.3, 0, 1.1},
		{2.4, 1.0, 0},
	})
	cache := newMemCache()
	p := NewCachedMatrixProvider(inner, cache)

	first, err := p.Matrix(context.Background(), threePoints())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.Calls())

	second, err := p.Matrix(context.Background(), threePoints())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.Calls(), "inner provider must not be called on a full hit")
	assert.Equal(t, first.Km, second.Km)
	assert.Equal(t, domain.SourceRoadNetwork, second.Source)
}

func TestCachedMatrix_StoresDurations(t *testing.T) {
	inner := &MockMatrixProvider{
		Km:      [][]float64{{0, 1.2}, {1.3, 0}},
		Seconds: [][]float64{{0, 95.6}, {110, 0}},
	}
	cache := newMemCache()
	p := NewCachedMatrixProvider(inner, cache)
	pts := threePoints()[:2]

	_, err := p.Matrix(context.Background(), pts)
	require.NoError(t, err)

	assert.Equal(t, ports.DistanceResult{DistanceMeters: 1200, DurationSeconds: 96}, cache.data[pts[0].Key()][pts[1].Key()])
	assert.Equal(t, ports.DistanceResult{DistanceMeters: 1300, DurationSeconds: 110}, cache.data[pts[1].Key()][pts[0].Key()])

	hit, err := p.Matrix(context.Background(), pts)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.Calls())
	assert.Equal(t, [][]float64{{0, 96}, {110, 0}}, hit.Seconds)
}

func TestCachedMatrix_UnreachableCellsNotStored(t *testing.T) {
	inner := NewMockMatrixProvider([][]float64{
		{0, 0, 2.5},
		{1.3, 0, 1.1},
		{2.4, 1.0, 0},
	})
	cache := newMemCache()
	p := NewCachedMatrixProvider(inner, cache)

	_, err := p.Matrix(context.Background(), threePoints())
	require.NoError(t, err)

	pts := threePoints()
	_, ok := cache.data[pts[0].Key()][pts[1].Key()]
	assert.False(t, ok)

	_, err = p.Matrix(context.Background(), threePoints())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.Calls())
}

func TestCachedMatrix_DuplicatePointsAreZero(t *testing.T) {
	pt := domain.Coordinates{Lon: 44.8, Lat: 41.7}
	inner := NewMockMatrixProvider(nil)
	p := NewCachedMatrixProvider(inner, newMemCache())

	m, err := p.Matrix(context.Background(), []domain.Coordinates{pt, pt})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0}, {0, 0}}, m.Km)
	assert.Zero(t, inner.Calls())
}

func TestCachedMatrix_ReadErrorFallsThrough(t *testing.T) {
	inner := NewMockMatrixProvider([][]float64{{0, 1}, {1, 0}})
	cache := newMemCache()
	cache.getErr = errors.New("redis down")
	p := NewCachedMatrixProvider(inner, cache)

	m, err := p.Matrix(context.Background(), threePoints()[:2])
	require.NoError(t, err)
	assert.Equal(t, 1, inner.Calls())
	assert.InDelta(t, 1.0, m.Km[0][1], 1e-9)
}

func TestCachedMatrix_WriteErrorIgnored(t *testing.T) {
	inner := NewMockMatrixProvider([][]float64{{0, 1}, {1, 0}})
	cache := newMemCache()
	cache.putErr = errors.New("disk full")
	p := NewCachedMatrixProvider(inner, cache)

	_, err := p.Matrix(context.Background(), threePoints()[:2])
	require.NoError(t, err)
}

func TestCachedMatrix_InnerErrorPropagates(t *testing.T) {
	inner := &MockMatrixProvider{Err: ports.ErrPairwiseNotApplicable}
	p := NewCachedMatrixProvider(inner, newMemCache())

	_, err := p.Matrix(context.Background(), threePoints())
	assert.ErrorIs(t, err, ports.ErrPairwiseNotApplicable)
}
