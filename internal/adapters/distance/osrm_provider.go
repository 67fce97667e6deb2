package distance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/logger"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"

	"go.uber.org/zap"
)

// DefaultPairwiseDelay paces pairwise route requests when no delay is configured.
const DefaultPairwiseDelay = 100 * time.Millisecond

// OSRMConfig configures an OSRMProvider. Zero values fall back to the public demo server defaults.
type OSRMConfig struct {
	BaseURL          string
	Profile          string
	Timeout          time.Duration
	Cooldown         time.Duration
	PairwiseMaxStops int
	PairwiseDelay    time.Duration
	GeometryMaxStops int
	HTTPClient       *http.Client
}

// OSRMProvider implements MatrixProvider and RouteProvider on top of an OSRM server.
//
// It coordinates:
//   - One batched /table request per matrix
//   - A sequential, paced /route request per pair when the table call fails for small inputs
//   - /route geometry lookups for map display
//   - A cool-down window after rate limiting, 5xx responses, or transport failures
//
// The provider is safe for concurrent use.
type OSRMProvider struct {
	session          *http.Client
	baseURL          string
	profile          string
	pairwiseMaxStops int
	pairwiseDelay    time.Duration
	geometryMaxStops int
	cooldown         time.Duration
	now              func() time.Time

	mu               sync.Mutex
	unavailableUntil time.Time
}

func NewOSRMProvider(cfg OSRMConfig) *OSRMProvider {
	session := cfg.HTTPClient
	if session == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		session = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://router.project-osrm.org"
	}

	profile := strings.TrimSpace(cfg.Profile)
	if profile == "" {
		profile = "driving"
	}

	delay := cfg.PairwiseDelay
	if delay <= 0 {
		delay = DefaultPairwiseDelay
	}

	return &OSRMProvider{
		session:          session,
		baseURL:          baseURL,
		profile:          profile,
		pairwiseMaxStops: cfg.PairwiseMaxStops,
		pairwiseDelay:    delay,
		geometryMaxStops: cfg.GeometryMaxStops,
		cooldown:         cfg.Cooldown,
		now:              time.Now,
	}
}

func (o *OSRMProvider) Name() string { return string(domain.SourceRoadNetwork) }

// Available reports whether the provider is outside its cool-down window.
func (o *OSRMProvider) Available() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.now().Before(o.unavailableUntil)
}

func (o *OSRMProvider) markUnavailable(reason error) {
	if o.cooldown <= 0 {
		return
	}

	o.mu.Lock()
	o.unavailableUntil = o.now().Add(o.cooldown)
	o.mu.Unlock()

	logger.Warn("osrm marked unavailable",
		zap.Duration("cooldown", o.cooldown),
		zap.Error(reason),
	)
}

func (o *OSRMProvider) markAvailable() {
	o.mu.Lock()
	o.unavailableUntil = time.Time{}
	o.mu.Unlock()
}

// Matrix returns road distances in km between every pair of points.
//
// The batched table lookup is tried first. If it fails or has no usable
// distances, inputs of at most pairwiseMaxStops points fall back to one route
// request per unordered pair; larger inputs fail with ErrPairwiseNotApplicable,
// also while cooling down.
func (o *OSRMProvider) Matrix(
	ctx context.Context,
	points []domain.Coordinates,
) (_ *domain.DistanceMatrix, err error) {
	defer obs.Time(ctx, "osrm.Matrix")(&err)

	n := len(points)
	if n < 2 {
		return domain.NewDistanceMatrix(n, domain.SourceRoadNetwork), nil
	}

	if !o.Available() {
		if n > o.pairwiseMaxStops {
			return nil, fmt.Errorf(
				"osrm matrix: %w (%d stops, limit %d): %w",
				ports.ErrPairwiseNotApplicable, n, o.pairwiseMaxStops, ports.ErrServiceCoolingDown,
			)
		}
		return nil, ports.ErrServiceCoolingDown
	}

	m, tableErr := o.fetchTable(ctx, points)
	if tableErr == nil {
		return m, nil
	}

	if n > o.pairwiseMaxStops {
		return nil, fmt.Errorf(
			"osrm matrix: %w (%d stops, limit %d): %w",
			ports.ErrPairwiseNotApplicable, n, o.pairwiseMaxStops, tableErr,
		)
	}

	if !o.Available() {
		return nil, fmt.Errorf("osrm matrix: table lookup: %w: pairwise skipped: %w", tableErr, ports.ErrServiceCoolingDown)
	}

	logger.Info("osrm table lookup failed, falling back to pairwise routes",
		zap.String("req_id", obs.RequestID(ctx)),
		zap.Int("stops", n),
		zap.Error(tableErr),
	)

	m, err = o.pairwiseMatrix(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("osrm matrix: table lookup: %w: pairwise fallback: %w", tableErr, err)
	}

	return m, nil
}

// Route returns the road path through points in order. It returns nil, nil
// when the service has no route or is cooling down.
func (o *OSRMProvider) Route(
	ctx context.Context,
	points []domain.Coordinates,
) (_ *domain.RouteGeometry, err error) {
	defer obs.Time(ctx, "osrm.Route")(&err)

	if len(points) < 2 {
		return nil, nil
	}

	if o.geometryMaxStops > 0 && len(points) > o.geometryMaxStops {
		points = points[:o.geometryMaxStops]
	}

	if !o.Available() {
		return nil, nil
	}

	return o.fetchRoute(ctx, points)
}

// formatCoordinates serializes points as lng,lat;lng,lat;...
func formatCoordinates(points []domain.Coordinates) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
	}
	return strings.Join(parts, ";")
}

// isRetryableStatus reports whether a status code should trigger the cool-down window.
func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

var errNoRoute = errors.New("osrm: no route")
