package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pageRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_frontend_http_requests_total",
			Help: "Total number of page requests served",
		},
		[]string{"service", "method", "route", "status"},
	)

	pageRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lms_frontend_http_request_duration_seconds",
			Help:    "Page request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "route", "status"},
	)

	pageRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lms_frontend_http_requests_in_flight",
			Help: "Page requests currently being served",
		},
		[]string{"service"},
	)
)

// PrometheusMetrics records request counts and latencies labelled by the chi
// route pattern, so /courses/{id} is one series rather than one per course.
func PrometheusMetrics(serviceName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			inFlight := pageRequestsInFlight.WithLabelValues(serviceName)
			inFlight.Inc()
			defer inFlight.Dec()

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := strconv.Itoa(rec.status)

			pageRequestsTotal.WithLabelValues(serviceName, r.Method, route, status).Inc()
			pageRequestDuration.WithLabelValues(serviceName, r.Method, route, status).
				Observe(time.Since(start).Seconds())
		})
	}
}
