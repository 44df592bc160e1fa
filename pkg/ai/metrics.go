package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ideascope",
		Subsystem: "ai",
		Name:      "backend_duration_seconds",
		Help:      "Duration of backend probe and generation calls",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"provider", "operation"})

	backendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ideascope",
		Subsystem: "ai",
		Name:      "backend_failures_total",
		Help:      "Number of failed backend calls by failure kind",
	}, []string{"provider", "operation", "kind"})

	evaluationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ideascope",
		Subsystem: "ai",
		Name:      "evaluation_outcomes_total",
		Help:      "Evaluations by extraction strategy or fallback reason",
	}, []string{"outcome", "detail"})
)

func observeBackendFailure(err *GatewayError) {
	backendFailures.WithLabelValues(err.Provider, err.Operation, string(err.Kind)).Inc()
}
