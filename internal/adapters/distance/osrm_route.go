package distance

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"route-optimizer-service/internal/domain"
)

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Type        string       `json:"type"`
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// fetchRoute requests the route through points in order with full GeoJSON geometry.
// It returns nil, nil when OSRM reports that no route exists.
func (o *OSRMProvider) fetchRoute(
	ctx context.Context,
	points []domain.Coordinates,
) (*domain.RouteGeometry, error) {
	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "geojson")
	q.Set("steps", "false")
	endpoint := fmt.Sprintf("%s/route/v1/%s/%s?%s", o.baseURL, o.profile, formatCoordinates(points), q.Encode())

	var rr routeResponse
	if err := o.getJSON(ctx, "route", endpoint, &rr); err != nil {
		var se *StatusError
		if errors.As(err, &se) && isNoRouteCode(se.OSRMCode) {
			return nil, nil
		}
		return nil, err
	}

	if isNoRouteCode(rr.Code) {
		return nil, nil
	}
	if rr.Code != "Ok" {
		return nil, &CodeError{Code: rr.Code, Message: rr.Message}
	}
	if len(rr.Routes) == 0 {
		return nil, nil
	}

	o.markAvailable()

	r := rr.Routes[0]
	return &domain.RouteGeometry{
		DistanceKm:      r.Distance / 1000,
		DurationMinutes: r.Duration / 60,
		Coordinates:     r.Geometry.Coordinates,
	}, nil
}

func isNoRouteCode(code string) bool {
	return code == "NoRoute" || code == "NoSegment"
}
