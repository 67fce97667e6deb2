package distance

import (
	"context"
	"math"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/logger"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"

	"go.uber.org/zap"
)

// CachedMatrixProvider serves road matrices from a persistent cache and
// delegates to the wrapped provider when any pair is missing.
type CachedMatrixProvider struct {
	inner ports.MatrixProvider
	cache ports.DistanceCache
}

func NewCachedMatrixProvider(inner ports.MatrixProvider, cache ports.DistanceCache) *CachedMatrixProvider {
	return &CachedMatrixProvider{inner: inner, cache: cache}
}

func (c *CachedMatrixProvider) Name() string { return c.inner.Name() }

func (c *CachedMatrixProvider) Matrix(
	ctx context.Context,
	points []domain.Coordinates,
) (_ *domain.DistanceMatrix, err error) {
	defer obs.Time(ctx, "distance.CachedMatrix")(&err)

	if len(points) < 2 || c.cache == nil {
		return c.inner.Matrix(ctx, points)
	}

	keys := make([]string, len(points))
	for i, p := range points {
		keys[i] = p.Key()
	}

	if m, ok := c.lookup(ctx, keys); ok {
		obs.CacheLookups.WithLabelValues("hit").Inc()
		return m, nil
	}
	obs.CacheLookups.WithLabelValues("miss").Inc()

	m, err := c.inner.Matrix(ctx, points)
	if err != nil {
		return nil, err
	}

	c.store(ctx, keys, m)
	return m, nil
}

// lookup builds the matrix from cache alone. It reports false on the first
// missing pair or on any cache error.
func (c *CachedMatrixProvider) lookup(ctx context.Context, keys []string) (*domain.DistanceMatrix, bool) {
	n := len(keys)
	m := domain.NewDistanceMatrix(n, domain.SourceRoadNetwork).WithSeconds()

	for i, origin := range keys {
		dests := make([]string, 0, n-1)
		for j, dest := range keys {
			if i != j && dest != origin {
				dests = append(dests, dest)
			}
		}
		if len(dests) == 0 {
			continue
		}

		hits, err := c.cache.GetMany(ctx, origin, dests)
		if err != nil {
			obs.CacheLookups.WithLabelValues("error").Inc()
			logger.Warn("distance cache read failed",
				zap.String("req_id", obs.RequestID(ctx)),
				zap.String("origin", origin),
				zap.Error(err),
			)
			return nil, false
		}

		for j, dest := range keys {
			if i == j || dest == origin {
				continue
			}
			r, ok := hits[dest]
			if !ok {
				return nil, false
			}
			m.Km[i][j] = float64(r.DistanceMeters) / 1000
			m.Seconds[i][j] = float64(r.DurationSeconds)
		}
	}

	return m, true
}

// store writes every reachable cell with its travel time, 0 when the source
// reported none. Zero-distance cells are skipped so unreachable pairs are
// asked for again next time.
func (c *CachedMatrixProvider) store(ctx context.Context, keys []string, m *domain.DistanceMatrix) {
	for i, origin := range keys {
		results := make(map[string]ports.DistanceResult, len(keys))
		for j, dest := range keys {
			if i == j || dest == origin || m.Km[i][j] <= 0 {
				continue
			}
			results[dest] = ports.DistanceResult{
				DistanceMeters:  int(math.Round(m.Km[i][j] * 1000)),
				DurationSeconds: int(math.Round(m.DurationSeconds(i, j))),
			}
		}
		if len(results) == 0 {
			continue
		}

		if err := c.cache.PutMany(ctx, origin, results); err != nil {
			logger.Warn("distance cache write failed",
				zap.String("req_id", obs.RequestID(ctx)),
				zap.String("origin", origin),
				zap.Error(err),
			)
			return
		}
	}
}
