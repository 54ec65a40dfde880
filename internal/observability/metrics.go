// Package observability exposes Prometheus metrics for the triage
// service.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportflow_turns_total",
			Help: "Total number of conversation turns handled",
		},
		[]string{"intent", "handoff"},
	)

	turnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supportflow_turn_duration_seconds",
			Help:    "Conversation turn duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"intent"},
	)

	storeOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportflow_store_ops_total",
			Help: "Total number of session store operations",
		},
		[]string{"op", "status"},
	)

	storeOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supportflow_store_op_duration_seconds",
			Help:    "Session store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	flowTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportflow_flow_transitions_total",
			Help: "Total number of flow state transitions",
		},
		[]string{"state"},
	)

	sessionsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supportflow_sessions_swept_total",
			Help: "Total number of expired sessions removed by the sweeper",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers all metrics with the default registry.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			turnsTotal,
			turnDuration,
			storeOpsTotal,
			storeOpDuration,
			flowTransitionsTotal,
			sessionsSwept,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordTurn records one handled conversation turn.
func RecordTurn(intent string, handoff bool, duration time.Duration) {
	h := "false"
	if handoff {
		h = "true"
	}
	turnsTotal.WithLabelValues(intent, h).Inc()
	turnDuration.WithLabelValues(intent).Observe(duration.Seconds())
}

// RecordStoreOp records a session store operation.
func RecordStoreOp(op, status string, duration time.Duration) {
	storeOpsTotal.WithLabelValues(op, status).Inc()
	storeOpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordFlowTransition records the state a flow landed in after a turn.
func RecordFlowTransition(state string) {
	flowTransitionsTotal.WithLabelValues(state).Inc()
}

// RecordSweep records expired sessions removed by a sweep pass.
func RecordSweep(removed int) {
	sessionsSwept.Add(float64(removed))
}
