package services

import (
	"context"
	"errors"
	"fmt"

	"route-optimizer-service/internal/config"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/geo"
	"route-optimizer-service/internal/platform/logger"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"

	"go.uber.org/zap"
)

// Options are per-call settings. Zero values select the engine defaults.
type Options struct {
	Algorithm domain.Algorithm
	// UseRealRoads defaults to true when nil.
	UseRealRoads *bool
	MaxStops     int
	StartTime    string
}

// Optimizer orders stops to minimize travel distance.
//
// Distances come from the road network when requested and available, and
// from the geodesic model otherwise. An Optimizer holds no per-call state and
// is safe for concurrent use.
type Optimizer struct {
	cfg      config.Engine
	geo      geo.Model
	road     ports.MatrixProvider
	routes   ports.RouteProvider
	geodesic ports.MatrixProvider
}

// NewOptimizer wires an optimizer. road and routes may be nil, in which case
// only geodesic distances are used and no geometry is attached.
func NewOptimizer(cfg config.Engine, road ports.MatrixProvider, routes ports.RouteProvider) *Optimizer {
	model := geo.Model{EarthRadiusKm: cfg.EarthRadiusKm, AverageSpeedKph: cfg.AverageSpeedKph}
	return &Optimizer{
		cfg:      cfg,
		geo:      model,
		road:     road,
		routes:   routes,
		geodesic: geodesicSource{model: model},
	}
}

// Optimize returns the stops in a shorter visiting order.
//
// Input beyond the stop cap is dropped without error. opts.MaxStops can only
// lower the configured cap. Cancellation of ctx is checked before ordering and
// between 2-opt sweeps. Road-network failures
// fall back to geodesic distances, except when the batched lookup failed for
// an input too large for the pairwise fallback: that error is returned and
// wraps ports.ErrPairwiseNotApplicable.
func (o *Optimizer) Optimize(
	ctx context.Context,
	stops []domain.Stop,
	opts Options,
) (_ *domain.OptimizationResult, err error) {
	defer obs.Time(ctx, "optimizer.Optimize")(&err)

	if len(stops) == 0 {
		return nil, domain.ErrNoStops
	}

	alg, err := domain.ParseAlgorithm(string(opts.Algorithm))
	if err != nil {
		return nil, err
	}

	startStr := opts.StartTime
	if startStr == "" {
		startStr = o.cfg.DefaultStartTime
	}
	start, err := domain.ParseClock(startStr)
	if err != nil {
		return nil, &domain.InputError{Field: "start_time", Reason: err.Error()}
	}

	// The configured cap is a ceiling; callers may only lower it.
	maxStops := o.cfg.MaxStops
	if opts.MaxStops > 0 && opts.MaxStops < maxStops {
		maxStops = opts.MaxStops
	}

	log := logger.With(zap.String("req_id", obs.RequestID(ctx)))

	if len(stops) > maxStops {
		log.Info("truncating stops",
			zap.Int("received", len(stops)),
			zap.Int("max_stops", maxStops),
		)
		stops = stops[:maxStops]
	}

	if err := domain.ValidateStops(stops); err != nil {
		return nil, err
	}

	n := len(stops)
	points := make([]domain.Coordinates, n)
	for i, s := range stops {
		points[i] = s.Coordinates()
	}

	useRoads := opts.UseRealRoads == nil || *opts.UseRealRoads
	m, err := resolveMatrix(ctx, o.sources(useRoads, n), points)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	tour, err := o.order(ctx, alg, m.Km)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	items, duration, longest := o.buildItinerary(stops, m, tour, start)
	total := tour.Distance(m.Km)
	original := domain.IdentityTour(n).Distance(m.Km)
	usingRoads := m.Source == domain.SourceRoadNetwork

	avgLeg := 0.0
	if n > 1 {
		avgLeg = total / float64(n-1)
	}

	res := &domain.OptimizationResult{
		Stops:                items,
		TotalDistanceKm:      geo.Round(total, 2),
		OriginalDistanceKm:   geo.Round(original, 2),
		ImprovementPct:       improvementPct(original, total),
		Efficiency:           efficiencyScore(total, n),
		TotalDurationMinutes: duration,
		EstimatedStart:       start,
		EstimatedEnd:         start.Add(duration),
		AverageLegKm:         geo.Round(avgLeg, 2),
		LongestLegKm:         geo.Round(longest, 2),
		Algorithm:            alg,
		Metadata: domain.ResultMetadata{
			NumStops:         n,
			UsingRealRoads:   usingRoads,
			DistanceSource:   m.Source,
			UnreachablePairs: m.Unreachable,
		},
	}

	if usingRoads && n <= o.cfg.GeometryMaxStops {
		o.attachGeometry(ctx, res, tourPoints(points, tour))
	}

	obs.Optimizations.WithLabelValues(string(alg), string(m.Source)).Inc()
	log.Info("route optimized",
		zap.String("algorithm", string(alg)),
		zap.String("source", string(m.Source)),
		zap.Int("stops", n),
		zap.Float64("total_km", res.TotalDistanceKm),
		zap.Float64("original_km", res.OriginalDistanceKm),
		zap.Float64("improvement_pct", res.ImprovementPct),
	)

	return res, nil
}

// sources returns the distance sources to try, best first. A single stop has
// no legs, so the road network is not consulted.
func (o *Optimizer) sources(useRoads bool, n int) []ports.MatrixProvider {
	if useRoads && o.road != nil && n >= 2 && n <= o.cfg.RoadNetworkMaxStops {
		return []ports.MatrixProvider{o.road, o.geodesic}
	}
	return []ports.MatrixProvider{o.geodesic}
}

func (o *Optimizer) order(ctx context.Context, alg domain.Algorithm, km [][]float64) (domain.Tour, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch alg {
	case domain.AlgorithmNearestNeighbor:
		return NearestNeighborTour(km), nil
	case domain.AlgorithmTwoOpt:
		return TwoOptContext(ctx, km, domain.IdentityTour(len(km)), o.cfg.TwoOptMaxSweeps)
	default:
		return TwoOptContext(ctx, km, NearestNeighborTour(km), o.cfg.TwoOptMaxSweeps)
	}
}

// attachGeometry adds the road path to res. Failures are logged and ignored.
func (o *Optimizer) attachGeometry(ctx context.Context, res *domain.OptimizationResult, points []domain.Coordinates) {
	if o.routes == nil {
		return
	}

	geom, err := o.routes.Route(ctx, points)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("route geometry unavailable",
				zap.String("req_id", obs.RequestID(ctx)),
				zap.Int("stops", len(points)),
				zap.Error(err),
			)
		}
		return
	}
	if geom == nil {
		return
	}

	dist := geo.Round(geom.DistanceKm, 2)
	dur := geo.Round(geom.DurationMinutes, 1)
	res.Metadata.RouteGeometry = geom.Coordinates
	res.Metadata.RoadDistanceKm = &dist
	res.Metadata.RoadDurationMinutes = &dur
}

func tourPoints(points []domain.Coordinates, tour domain.Tour) []domain.Coordinates {
	out := make([]domain.Coordinates, len(tour))
	for i, idx := range tour {
		out[i] = points[idx]
	}
	return out
}
