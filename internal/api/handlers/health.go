package handlers

import (
	"net/http"

	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/ports"
)

// HealthHandler reports liveness and whether the road network is currently usable.
type HealthHandler struct {
	// Road is nil when no routing service is configured.
	Road ports.AvailabilityReporter
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	res := dto.HealthResponse{Status: "ok", RoadNetwork: "disabled"}
	if h.Road != nil {
		res.RoadNetwork = "available"
		if !h.Road.Available() {
			res.RoadNetwork = "cooling_down"
		}
	}

	writeJSON(w, r, http.StatusOK, res)
}
