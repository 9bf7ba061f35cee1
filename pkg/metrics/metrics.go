package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Query cache metrics
	QueryHits          *prometheus.CounterVec
	QueryMisses        *prometheus.CounterVec
	QueryDeduplicated  *prometheus.CounterVec
	QueryErrors        *prometheus.CounterVec
	QueryInvalidations prometheus.Counter
	QueryLatency       *prometheus.HistogramVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec

	// Auth metrics
	ActiveSessions prometheus.Gauge
	AdminChecks    *prometheus.CounterVec
}

// New builds unregistered collectors. Call MustRegister to expose them.
func New(namespace string) *Metrics {
	return &Metrics{
		QueryHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "cache_hits_total",
			Help:      "Reads served from a fresh cache entry",
		}, []string{"entity"}),
		QueryMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "cache_misses_total",
			Help:      "Reads that had to call the backend",
		}, []string{"entity"}),
		QueryDeduplicated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "deduplicated_total",
			Help:      "Reads that joined an identical in-flight request",
		}, []string{"entity"}),
		QueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "fetch_errors_total",
			Help:      "Backend reads that returned an error",
		}, []string{"entity"}),
		QueryInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "invalidations_total",
			Help:      "Cache keys invalidated after writes",
		}),
		QueryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of backend reads issued by the query layer",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"entity"}),

		DatabaseOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),

		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "active_sessions",
			Help:      "Sessions currently held by the auth context",
		}),
		AdminChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "admin_checks_total",
			Help:      "Admin-role checks by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.QueryHits,
		m.QueryMisses,
		m.QueryDeduplicated,
		m.QueryErrors,
		m.QueryInvalidations,
		m.QueryLatency,
		m.DatabaseOperations,
		m.DatabaseLatency,
		m.ActiveSessions,
		m.AdminChecks,
	)
}
