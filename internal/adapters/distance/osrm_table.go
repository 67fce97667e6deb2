package distance

import (
	"context"
	"fmt"
	"net/url"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/logger"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"

	"go.uber.org/zap"
)

type tableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// fetchTable retrieves the full n×n distance matrix with a single OSRM table request.
//
// Null cells (unreachable pairs) are stored as 0 km and counted in
// DistanceMatrix.Unreachable; the heuristics cannot tell them from real zeros.
// Durations are optional and kept only when their shape matches.
func (o *OSRMProvider) fetchTable(
	ctx context.Context,
	points []domain.Coordinates,
) (*domain.DistanceMatrix, error) {
	n := len(points)

	q := url.Values{}
	q.Set("annotations", "distance,duration")
	endpoint := fmt.Sprintf("%s/table/v1/%s/%s?%s", o.baseURL, o.profile, formatCoordinates(points), q.Encode())

	var tr tableResponse
	if err := o.getJSON(ctx, "table", endpoint, &tr); err != nil {
		return nil, err
	}

	if tr.Code != "Ok" {
		return nil, &CodeError{Code: tr.Code, Message: tr.Message}
	}

	if len(tr.Distances) != n {
		return nil, fmt.Errorf("osrm table: expected %d rows, got %d", n, len(tr.Distances))
	}

	m := domain.NewDistanceMatrix(n, domain.SourceRoadNetwork)
	for i, row := range tr.Distances {
		if len(row) != n {
			return nil, fmt.Errorf("osrm table: row %d has %d cells, want %d", i, len(row), n)
		}
		for j, meters := range row {
			if i == j {
				continue
			}
			if meters == nil {
				m.Unreachable++
				continue
			}
			m.Km[i][j] = *meters / 1000
		}
	}

	if squareShape(tr.Durations, n) {
		m.WithSeconds()
		for i, row := range tr.Durations {
			for j, secs := range row {
				if i != j && secs != nil {
					m.Seconds[i][j] = *secs
				}
			}
		}
	}

	if m.Unreachable > 0 {
		logger.Warn("osrm table returned unreachable pairs; stored as 0 km",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.Int("stops", n),
			zap.Int("unreachable", m.Unreachable),
		)
	}

	if !m.HasDistances() {
		return nil, ports.ErrEmptyMatrix
	}

	o.markAvailable()
	return m, nil
}

func squareShape(rows [][]*float64, n int) bool {
	if len(rows) != n {
		return false
	}
	for _, row := range rows {
		if len(row) != n {
			return false
		}
	}
	return true
}
