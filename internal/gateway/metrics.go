package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var (
	upstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_frontend_upstream_requests_total",
			Help: "Calls made to the LMS API by outcome",
		},
		[]string{"method", "outcome"},
	)

	upstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lms_frontend_upstream_request_duration_seconds",
			Help:    "Duration of LMS API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lms_frontend_circuit_breaker_state",
			Help: "Current state of the LMS API circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	unauthorizedEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lms_frontend_forced_logouts_total",
			Help: "401 responses that triggered a session teardown",
		},
	)
)

const (
	outcomeSuccess     = "success"
	outcomeClientError = "client_error"
	outcomeServerError = "server_error"
	outcomeNetwork     = "network"
	outcomeOpen        = "breaker_open"
	outcomeCanceled    = "canceled"
	outcomeStore       = "store_error"
	outcomeEncode      = "encode_error"
)

func outcomeForStatus(status int) string {
	switch {
	case status >= 500:
		return outcomeServerError
	case status >= 400:
		return outcomeClientError
	default:
		return outcomeSuccess
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
