package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// OperationDuration records timed internal operations (see Time).
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "route_optimizer_operation_duration_seconds", Help: "Duration of internal operations in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"op", "outcome"},
	)

	// Optimizations counts completed optimizations by algorithm and distance source.
	Optimizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_optimizations_total", Help: "Completed route optimizations."},
		[]string{"algorithm", "source"},
	)
	// SourceFallbacks counts distance sources abandoned in favour of the next one.
	SourceFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "distance_source_fallbacks_total", Help: "Distance sources that failed and were skipped."},
		[]string{"source", "reason"},
	)
	// RoutingRequests counts calls to the external routing service by endpoint and outcome.
	RoutingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "routing_service_requests_total", Help: "Requests sent to the routing service."},
		[]string{"endpoint", "outcome"},
	)
	// CacheLookups counts road distance cache lookups by result.
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "distance_cache_lookups_total", Help: "Road distance cache lookups."},
		[]string{"result"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(OperationDuration)
		Registry.MustRegister(Optimizations)
		Registry.MustRegister(SourceFallbacks)
		Registry.MustRegister(RoutingRequests)
		Registry.MustRegister(CacheLookups)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
