package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectMetric(t *testing.T, c prometheus.Collector, labels map[string]string) *dto.Metric {
	t.Helper()
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		if err := m.Write(d); err != nil {
			continue
		}
		matched := 0
		for _, lp := range d.GetLabel() {
			if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
				matched++
			}
		}
		if matched == len(labels) {
			return d
		}
	}
	return nil
}

func TestPrometheusMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-route-test"))
	r.Get("/lessons/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/lessons/"+id, nil))
	}

	m := collectMetric(t, pageRequestsTotal, map[string]string{
		"service": "metrics-route-test",
		"route":   "/lessons/{id}",
		"status":  "418",
	})
	require.NotNil(t, m)
	assert.Equal(t, float64(3), m.GetCounter().GetValue())

	h := collectMetric(t, pageRequestDuration, map[string]string{"service": "metrics-route-test"})
	require.NotNil(t, h)
	assert.Equal(t, uint64(3), h.GetHistogram().GetSampleCount())
}

func TestPrometheusMetrics_InFlightReturnsToZero(t *testing.T) {
	var during float64
	handler := PrometheusMetrics("metrics-inflight-test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := collectMetric(t, pageRequestsInFlight, map[string]string{"service": "metrics-inflight-test"})
		during = m.GetGauge().GetValue()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, float64(1), during)
	after := collectMetric(t, pageRequestsInFlight, map[string]string{"service": "metrics-inflight-test"})
	assert.Equal(t, float64(0), after.GetGauge().GetValue())
}

func TestPrometheusMetrics_UnmatchedRoute(t *testing.T) {
	handler := PrometheusMetrics("metrics-unmatched-test")(http.NotFoundHandler())
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	m := collectMetric(t, pageRequestsTotal, map[string]string{
		"service": "metrics-unmatched-test",
		"route":   "unmatched",
		"status":  "404",
	})
	require.NotNil(t, m)
}
