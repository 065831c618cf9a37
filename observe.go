package docset

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// sdkMetrics holds prometheus metrics registered for the client.
type sdkMetrics struct {
	executions  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	resultCache *prometheus.CounterVec
	recordCache *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docset",
			Subsystem: "sdk",
			Name:      "executions_total",
			Help:      "Backend executions by kind and status.",
		}, []string{"kind", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docset",
			Subsystem: "sdk",
			Name:      "execution_duration_seconds",
			Help:      "Backend execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		resultCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docset",
			Subsystem: "sdk",
			Name:      "result_cache_total",
			Help:      "Query result cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		recordCache: newRecordCacheCounter(),
	}
	if err := registerOrReuse(reg, &m.executions); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.resultCache); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.recordCache); err != nil {
		return nil, err
	}
	return m, nil
}

func newRecordCacheCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docset",
		Subsystem: "sdk",
		Name:      "record_cache_total",
		Help:      "Record cache lookups by result.",
	}, []string{"result"})
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("docset: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("docset: register metric: %w", err)
	}
	return nil
}

// observer logs and counts query executions, then forwards to next.
type observer struct {
	logger  *zap.Logger
	metrics *sdkMetrics
	next    Observer
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer, next Observer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		if m, err = newSDKMetrics(reg); err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m, next: next}, nil
}

func (o *observer) ObserveExecution(kind string, dur time.Duration, err error) {
	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.executions.WithLabelValues(kind, status).Inc()
		o.metrics.duration.WithLabelValues(kind).Observe(dur.Seconds())
	}

	if err != nil {
		o.logger.Warn("query failed",
			zap.String("kind", kind),
			zap.Duration("duration", dur),
			zap.Error(err),
		)
	} else {
		o.logger.Debug("query executed",
			zap.String("kind", kind),
			zap.Duration("duration", dur),
		)
	}

	if o.next != nil {
		o.next.ObserveExecution(kind, dur, err)
	}
}

func (o *observer) ObserveCache(kind string, hit bool) {
	if o.metrics != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		o.metrics.resultCache.WithLabelValues(kind, result).Inc()
	}
	if o.next != nil {
		o.next.ObserveCache(kind, hit)
	}
}

// recordCacheCounter returns the registered record cache counter, or a
// private one when the client has no registerer.
func (o *observer) recordCacheCounter() *prometheus.CounterVec {
	if o.metrics != nil {
		return o.metrics.recordCache
	}
	return newRecordCacheCounter()
}
