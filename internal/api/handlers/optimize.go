package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/logger"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
	"route-optimizer-service/internal/services"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// RouteOptimizer is the subset of services.Optimizer the handler needs.
type RouteOptimizer interface {
	Optimize(ctx context.Context, stops []domain.Stop, opts services.Options) (*domain.OptimizationResult, error)
}

type OptimizeHandler struct {
	Optimizer RouteOptimizer
	// Now is overridable in tests.
	Now func() time.Time
}

// Optimize decodes a stop list, runs the optimizer and returns the ordered itinerary.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.OptimizeRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if len(req.Stops) == 0 {
		writeError(w, r, http.StatusBadRequest, "stops array is required and must not be empty")
		return
	}
	if req.MaxStops < 0 {
		writeError(w, r, http.StatusBadRequest, "max_stops must be >= 0")
		return
	}

	stops := make([]domain.Stop, 0, len(req.Stops))
	for _, s := range req.Stops {
		if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" || s.Lat == nil || s.Lng == nil {
			writeError(w, r, http.StatusBadRequest, "each stop must have id, name, lat, and lng")
			return
		}
		stops = append(stops, toDomainStop(s))
	}

	opts := services.Options{
		Algorithm:    domain.Algorithm(req.Algorithm),
		UseRealRoads: req.UseRealRoads,
		MaxStops:     req.MaxStops,
		StartTime:    req.StartTime,
	}

	res, err := h.Optimizer.Optimize(r.Context(), stops, opts)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, ports.ErrPairwiseNotApplicable):
			logger.Warn("optimize: road network unavailable",
				zap.String("req_id", obs.RequestID(r.Context())),
				zap.Error(err),
			)
			writeError(w, r, http.StatusBadGateway, "road network distances unavailable for this many stops; retry with use_real_roads=false")
		default:
			logger.Error("optimize failed",
				zap.String("req_id", obs.RequestID(r.Context())),
				zap.Error(err),
			)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	writeJSON(w, r, http.StatusOK, dto.OptimizeResponse{
		Success: true,
		Route:   toRouteResponse(res),
		Metadata: dto.OptimizeMetadata{
			InputStops:     len(req.Stops),
			OutputStops:    len(res.Stops),
			Algorithm:      string(res.Algorithm),
			UsingRealRoads: res.Metadata.UsingRealRoads,
			Timestamp:      now().UTC(),
		},
	})
}

func toDomainStop(s dto.Stop) domain.Stop {
	out := domain.Stop{
		ID:             strings.TrimSpace(s.ID),
		Name:           s.Name,
		Lat:            *s.Lat,
		Lng:            *s.Lng,
		Address:        s.Address,
		Priority:       s.Priority,
		ServiceMinutes: s.ServiceDuration,
	}
	if s.TimeWindow != nil {
		out.TimeWindow = &domain.TimeWindow{Start: s.TimeWindow.Start, End: s.TimeWindow.End}
	}
	return out
}

func toRouteResponse(res *domain.OptimizationResult) dto.Route {
	stops := make([]dto.RouteStop, 0, len(res.Stops))
	for _, s := range res.Stops {
		rs := dto.RouteStop{
			ID:                   s.ID,
			Name:                 s.Name,
			Lat:                  s.Lat,
			Lng:                  s.Lng,
			Address:              s.Address,
			Priority:             s.Priority,
			Position:             s.Position,
			DistanceFromPrevious: s.DistanceFromPreviousKm,
			ServiceDuration:      s.ServiceMinutes,
			ArriveAt:             s.ArriveAt.String(),
			DepartAt:             s.DepartAt.String(),
			OutsideTimeWindow:    s.OutsideTimeWindow,
		}
		if s.TimeWindow != nil {
			rs.TimeWindow = &dto.TimeWindow{Start: s.TimeWindow.Start, End: s.TimeWindow.End}
		}
		stops = append(stops, rs)
	}

	return dto.Route{
		Stops:            stops,
		TotalDistance:    res.TotalDistanceKm,
		OriginalDistance: res.OriginalDistanceKm,
		Improvement:      res.ImprovementPct,
		Algorithm:        string(res.Algorithm),
		Efficiency:       res.Efficiency,
		TotalDuration:    res.TotalDurationMinutes,
		EstimatedStart:   res.EstimatedStart.String(),
		EstimatedEnd:     res.EstimatedEnd.String(),
		AverageLegKm:     res.AverageLegKm,
		LongestLegKm:     res.LongestLegKm,
		Metadata: dto.RouteMetadata{
			NumLocations:        res.Metadata.NumStops,
			UsingRealRoads:      res.Metadata.UsingRealRoads,
			DistanceSource:      string(res.Metadata.DistanceSource),
			UnreachablePairs:    res.Metadata.UnreachablePairs,
			RouteGeometry:       res.Metadata.RouteGeometry,
			RoadDistanceKm:      res.Metadata.RoadDistanceKm,
			RoadDurationMinutes: res.Metadata.RoadDurationMinutes,
		},
	}
}
