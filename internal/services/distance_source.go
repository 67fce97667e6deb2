package services

import (
	"context"
	"errors"
	"fmt"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/geo"
	"route-optimizer-service/internal/platform/logger"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"

	"go.uber.org/zap"
)

// geodesicSource computes great-circle matrices locally and never fails.
type geodesicSource struct {
	model geo.Model
}

func (g geodesicSource) Name() string { return string(domain.SourceGeodesic) }

func (g geodesicSource) Matrix(ctx context.Context, points []domain.Coordinates) (*domain.DistanceMatrix, error) {
	return &domain.DistanceMatrix{
		Km:     g.model.BuildMatrix(points),
		Source: domain.SourceGeodesic,
	}, nil
}

// resolveMatrix walks the distance sources in order and returns the first
// usable matrix.
//
// A source is skipped when it fails with a recoverable error or returns no
// positive off-diagonal distance. ErrPairwiseNotApplicable is never
// recovered. The last source is trusted as-is.
func resolveMatrix(
	ctx context.Context,
	sources []ports.MatrixProvider,
	points []domain.Coordinates,
) (*domain.DistanceMatrix, error) {
	if len(sources) == 0 {
		return nil, errors.New("resolve matrix: no distance sources configured")
	}

	for i, src := range sources {
		last := i == len(sources)-1

		m, err := src.Matrix(ctx, points)
		if last {
			if err != nil {
				return nil, fmt.Errorf("resolve matrix: %s: %w", src.Name(), err)
			}
			return m, nil
		}

		if err == nil && m.HasDistances() {
			return m, nil
		}

		if errors.Is(err, ports.ErrPairwiseNotApplicable) {
			return nil, fmt.Errorf("resolve matrix: %s: %w", src.Name(), err)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("resolve matrix: %w", ctx.Err())
		}

		reason := fallbackReason(err)
		obs.SourceFallbacks.WithLabelValues(src.Name(), reason).Inc()
		logger.Warn("distance source unusable, falling back",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.String("source", src.Name()),
			zap.String("next", sources[i+1].Name()),
			zap.String("reason", reason),
			zap.Int("stops", len(points)),
			zap.Error(err),
		)
	}

	// Unreachable: the last source always returns above.
	return nil, errors.New("resolve matrix: no usable distance source")
}

func fallbackReason(err error) string {
	switch {
	case err == nil, errors.Is(err, ports.ErrEmptyMatrix):
		return "empty"
	case errors.Is(err, ports.ErrServiceCoolingDown):
		return "cooling_down"
	default:
		return "error"
	}
}
