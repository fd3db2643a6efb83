package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_frontend_session_transitions_total",
			Help: "Session lifecycle transitions by kind",
		},
		[]string{"kind"},
	)

	resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_frontend_session_resolutions_total",
			Help: "Session resolutions by resulting state",
		},
		[]string{"state"},
	)
)
