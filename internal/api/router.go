package api

import (
	"net/http"

	"route-optimizer-service/internal/api/handlers"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
// road may be nil when no routing service is configured.
func NewRouter(optimizer handlers.RouteOptimizer, road ports.AvailabilityReporter) http.Handler {
	mux := http.NewServeMux()

	optimizeHandler := &handlers.OptimizeHandler{Optimizer: optimizer}
	healthHandler := &handlers.HealthHandler{Road: road}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/optimize", optimizeHandler.Optimize)
	mux.Handle("/metrics", promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{}))

	paths := []string{"/health", "/optimize", "/metrics"}
	return requestIDMiddleware(loggingMiddleware(paths, mux))
}
