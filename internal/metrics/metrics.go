package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobtracker"

// Store Metrics
var (
	// StoreOpsTotal counts Record Store operations by operation and result
	StoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Record store operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Record store operation duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// CircuitBreakerState tracks the storage breaker (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Current storage circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// Application Metrics
var (
	ApplicationsAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applications_added_total",
			Help:      "Applications added",
		},
	)

	// ApplicationsGhosted counts records reclassified by the ghosting policy
	ApplicationsGhosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applications_ghosted_total",
			Help:      "Applications automatically moved to ghosted",
		},
	)

	StatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_changes_total",
			Help:      "Manual status changes by target status",
		},
		[]string{"status"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
