package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Query Prometheus metrics.
var (
	QueryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docset",
			Name:      "query_executions_total",
			Help:      "Total number of backend executions",
		},
		[]string{"kind", "status"},
	)

	QueryExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docset",
			Name:      "query_execution_duration_seconds",
			Help:      "Backend execution duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"kind"},
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docset",
			Name:      "query_cache_total",
			Help:      "Query set cache hits and misses",
		},
		[]string{"kind", "result"}, // "hit" / "miss"
	)

	RecordCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docset",
			Name:      "record_cache_total",
			Help:      "Record cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers Prometheus query metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryExecutionsTotal)
	prometheus.MustRegister(QueryExecutionDuration)
	prometheus.MustRegister(QueryCacheTotal)
	prometheus.MustRegister(RecordCacheTotal)
	queryMetricsRegistered = true
}

// QueryObserver feeds query set events into the query metrics.
// It implements queryset.Observer.
type QueryObserver struct{}

// ObserveExecution records one backend execution.
func (QueryObserver) ObserveExecution(kind string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	QueryExecutionsTotal.WithLabelValues(kind, status).Inc()
	QueryExecutionDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveCache records a cache lookup.
func (QueryObserver) ObserveCache(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	QueryCacheTotal.WithLabelValues(kind, result).Inc()
}
