package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP Prometheus metrics. Labels use the chi route pattern and the
// {kind} URL parameter, never the raw path.
var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docset",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"route", "kind"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docset",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "kind", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration, httpRequestsTotal)
}

// Middleware records HTTP request duration and count per route and kind.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route, kind := routeLabels(r)

			httpRequestDuration.WithLabelValues(route, kind).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, route, kind, strconv.Itoa(status)).Inc()
		})
	}
}

// routeLabels reads the matched route pattern and kind after routing.
// Unmatched requests share one label so probes cannot inflate cardinality.
func routeLabels(r *http.Request) (route, kind string) {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		return "unmatched", ""
	}
	route = rc.RoutePattern()
	if route == "" {
		route = "unmatched"
	}
	return route, rc.URLParam("kind")
}
