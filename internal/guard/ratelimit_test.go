package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimit_RejectsAfterBurst(t *testing.T) {
	store := newVisitorStore(rate.Limit(1.0/60), 2, time.Minute)
	h := rateLimit(store, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5001").Code)

	rec := send("10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")

	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:5000").Code)
}

func TestVisitorStore_Cleanup(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newVisitorStore(rate.Limit(1), 1, time.Minute)
	store.nowFunc = func() time.Time { return now }

	store.get("10.0.0.1")
	now = now.Add(30 * time.Second)
	store.get("10.0.0.2")
	now = now.Add(45 * time.Second)

	store.cleanup()
	assert.Equal(t, 1, store.len())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.9:1", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.9:1", "198.51.100.4"},
		{"garbage header", map[string]string{"X-Forwarded-For": "nope"}, "10.0.0.9:1234", "10.0.0.9"},
		{"remote only", nil, "192.0.2.1:8080", "192.0.2.1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, clientIP(req))
		})
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 6, retryAfterSeconds(rate.Limit(10.0/60)))
	assert.Equal(t, 1, retryAfterSeconds(rate.Limit(100)))
	assert.Equal(t, 1, retryAfterSeconds(0))
}
