package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveReadiness(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLivenessHandler_AlwaysReturns200(t *testing.T) {
	h := NewHandler()
	h.Register("session_store", func(ctx context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestReadiness(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	fail := func(ctx context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		critical   Checker
		backend    Checker
		wantCode   int
		wantStatus Status
	}{
		{"all healthy", ok, ok, http.StatusOK, StatusUp},
		{"backend down degrades", ok, fail, http.StatusOK, StatusDegraded},
		{"session store down", fail, ok, http.StatusServiceUnavailable, StatusDown},
		{"both down", fail, fail, http.StatusServiceUnavailable, StatusDown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler()
			h.Register("session_store", tc.critical)
			h.RegisterNonCritical("lms_api", tc.backend)

			code, resp := serveReadiness(t, h)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantStatus, resp.Status)
			assert.True(t, resp.Checks["session_store"].Critical)
			assert.False(t, resp.Checks["lms_api"].Critical)
		})
	}
}

func TestReadiness_ReportsCheckError(t *testing.T) {
	h := NewHandler()
	h.Register("session_store", func(ctx context.Context) error { return errors.New("dial tcp: refused") })

	_, resp := serveReadiness(t, h)
	assert.Equal(t, "dial tcp: refused", resp.Checks["session_store"].Error)
}

func TestReadiness_NoChecksIsUp(t *testing.T) {
	code, resp := serveReadiness(t, NewHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.Empty(t, resp.Checks)
}

func TestCheck_RunsConcurrently(t *testing.T) {
	h := NewHandler()
	slow := func(ctx context.Context) error {
		time.Sleep(100 * time.Millisecond)
		return nil
	}
	h.Register("a", slow)
	h.Register("b", slow)
	h.Register("c", slow)

	start := time.Now()
	resp := h.Check(context.Background())
	assert.Less(t, time.Since(start), 250*time.Millisecond)
	assert.Len(t, resp.Checks, 3)
}

func TestCheck_HonoursDeadline(t *testing.T) {
	h := NewHandler()
	h.Register("stuck", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	resp := h.Check(ctx)
	assert.Equal(t, StatusDown, resp.Status)
	assert.Contains(t, resp.Checks["stuck"].Error, "deadline exceeded")
}
