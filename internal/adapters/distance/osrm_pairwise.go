package distance

import (
	"context"
	"fmt"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"

	"golang.org/x/time/rate"
)

// pairwiseMatrix builds the matrix from one route request per unordered pair.
//
// Requests are issued strictly one at a time, at most one per pairwiseDelay,
// because the public OSRM server is shared and rate limited. The route
// endpoint does not distinguish direction here, so each result fills both
// (i,j) and (j,i).
func (o *OSRMProvider) pairwiseMatrix(
	ctx context.Context,
	points []domain.Coordinates,
) (_ *domain.DistanceMatrix, err error) {
	defer obs.Time(ctx, "osrm.pairwiseMatrix")(&err)

	n := len(points)
	m := domain.NewDistanceMatrix(n, domain.SourceRoadNetwork).WithSeconds()
	limiter := rate.NewLimiter(rate.Every(o.pairwiseDelay), 1)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("pairwise %d-%d: wait: %w", i, j, err)
			}

			route, err := o.fetchRoute(ctx, []domain.Coordinates{points[i], points[j]})
			if err != nil {
				return nil, fmt.Errorf("pairwise %d-%d: %w", i, j, err)
			}
			if route == nil {
				return nil, fmt.Errorf("pairwise %d-%d: %w", i, j, errNoRoute)
			}

			m.Km[i][j] = route.DistanceKm
			m.Km[j][i] = route.DistanceKm
			m.Seconds[i][j] = route.DurationMinutes * 60
			m.Seconds[j][i] = route.DurationMinutes * 60
		}
	}

	return m, nil
}
