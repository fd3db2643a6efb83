package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucifer-699/EduCourseFrontend/pkg/logger"
	"github.com/lucifer-699/EduCourseFrontend/pkg/middleware"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticToken(token string) TokenSource {
	return TokenSourceFunc(func(context.Context) (string, error) { return token, nil })
}

func newTestClient(t *testing.T, h http.HandlerFunc, tokens TokenSource) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, tokens, testLogger()), srv
}

func upstreamCount(t *testing.T, method, outcome string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, upstreamRequests.WithLabelValues(method, outcome).Write(m))
	return m.GetCounter().GetValue()
}

type course struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestSend_AttachesHeaders(t *testing.T) {
	var got http.Header
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"id":"c1","title":"Go"}`))
	}, staticToken("tok-123"))

	ctx := logger.WithCorrelationID(context.Background(), "corr-9")
	_, err := Post[course](ctx, c, "/courses", map[string]string{"title": "Go"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "corr-9", got.Get(middleware.CorrelationHeader))
}

func TestSend_AnonymousHasNoAuthorization(t *testing.T) {
	var got http.Header
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}, staticToken(""))

	require.NoError(t, Exec(context.Background(), c, http.MethodGet, "/courses", nil))
	assert.Empty(t, got.Get("Authorization"))
	assert.Empty(t, got.Get("Content-Type"))
}

func TestSend_TokenSourceError(t *testing.T) {
	var hits atomic.Int32
	boom := errors.New("store offline")
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}, TokenSourceFunc(func(context.Context) (string, error) { return "", boom }))

	storeBefore := upstreamCount(t, http.MethodGet, outcomeStore)
	networkBefore := upstreamCount(t, http.MethodGet, outcomeNetwork)

	err := Exec(context.Background(), c, http.MethodGet, "/courses", nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "read credential")
	_, isAPIErr := AsAPIError(err)
	assert.False(t, isAPIErr)
	assert.Zero(t, hits.Load())

	assert.Equal(t, storeBefore+1, upstreamCount(t, http.MethodGet, outcomeStore))
	assert.Equal(t, networkBefore, upstreamCount(t, http.MethodGet, outcomeNetwork))
}

func TestDo_DecodesBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/courses/c1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"c1","title":"Go"}`))
	}, nil)

	got, err := Get[course](context.Background(), c, "courses/c1")
	require.NoError(t, err)
	assert.Equal(t, course{ID: "c1", Title: "Go"}, got)
}

func TestDo_EmptyBodyIsZeroValue(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	got, err := Get[course](context.Background(), c, "/courses/c1")
	require.NoError(t, err)
	assert.Equal(t, course{}, got)
}

func TestDo_InvalidSuccessBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}, nil)

	_, err := Get[course](context.Background(), c, "/courses/c1")
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, apiErr.Status)
	assert.Equal(t, MsgInvalidResponse, apiErr.Message)
}

func TestSend_ErrorMessageResolution(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantDetails any
	}{
		{
			name:        "message field",
			status:      http.StatusBadRequest,
			body:        `{"message":"Email already registered"}`,
			wantMessage: "Email already registered",
			wantDetails: map[string]any{"message": "Email already registered"},
		},
		{
			name:        "non-string message",
			status:      http.StatusBadRequest,
			body:        `{"message":{"field":"email"}}`,
			wantMessage: "HTTP 400: Bad Request",
			wantDetails: map[string]any{"message": map[string]any{"field": "email"}},
		},
		{
			name:        "json string body",
			status:      http.StatusConflict,
			body:        `"already enrolled"`,
			wantMessage: "already enrolled",
			wantDetails: "already enrolled",
		},
		{
			name:        "unparseable body",
			status:      http.StatusBadGateway,
			body:        `upstream exploded`,
			wantMessage: "HTTP 502: Bad Gateway",
			wantDetails: map[string]any{},
		},
		{
			name:        "null body",
			status:      http.StatusNotFound,
			body:        `null`,
			wantMessage: "HTTP 404: Not Found",
			wantDetails: map[string]any{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}, nil)

			err := Exec(context.Background(), c, http.MethodGet, "/x", nil)
			apiErr, ok := AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.wantMessage, apiErr.Message)
			assert.Equal(t, tc.wantDetails, apiErr.Details)
		})
	}
}

func TestAPIError_JSONShape(t *testing.T) {
	data, err := json.Marshal(&APIError{Message: "nope", Status: 403, Details: map[string]any{}, Method: "GET", Path: "/x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"nope","status":403,"details":{}}`, string(data))
}

func TestSend_UnauthorizedNotifiesBeforeReturn(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token expired"}`))
	}, staticToken("stale"))

	var calls int
	var seen *APIError
	unsubscribe := c.OnUnauthorized(func(_ context.Context, e *APIError) {
		calls++
		seen = e
	})

	err := Exec(context.Background(), c, http.MethodGet, "/courses", nil)
	require.Equal(t, 1, calls)
	require.NotNil(t, seen)
	assert.Equal(t, "Token expired", seen.Message)
	assert.Equal(t, "stale", seen.Credential)
	assert.True(t, IsUnauthorized(err))

	unsubscribe()
	_ = Exec(context.Background(), c, http.MethodGet, "/courses", nil)
	assert.Equal(t, 1, calls)
}

func TestSend_ForbiddenDoesNotNotify(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, nil)

	called := false
	c.OnUnauthorized(func(context.Context, *APIError) { called = true })

	err := Exec(context.Background(), c, http.MethodGet, "/admin/users", nil)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Empty(t, apiErr.Credential)
	assert.False(t, called)
}

func TestSend_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	c := New(Config{BaseURL: baseURL, Timeout: time.Second}, nil, testLogger())
	err := Exec(context.Background(), c, http.MethodGet, "/courses", nil)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, MsgNetwork, apiErr.Message)
	assert.True(t, IsNetwork(err))
	assert.Equal(t, KindNetwork, apiErr.Kind())
}

func TestSend_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"database down"}`))
	}))
	t.Cleanup(srv.Close)

	c := New(Config{
		BaseURL: srv.URL,
		Timeout: time.Second,
		Breaker: &BreakerConfig{
			Name:         "lms-api-test",
			MaxRequests:  1,
			Timeout:      time.Minute,
			FailureRatio: 0.5,
			MinRequests:  2,
		},
	}, nil, testLogger())

	for i := 0; i < 2; i++ {
		err := Exec(context.Background(), c, http.MethodGet, "/courses", nil)
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
		assert.Equal(t, "database down", apiErr.Message)
	}
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState())

	err := Exec(context.Background(), c, http.MethodGet, "/courses", nil)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, MsgUnavailable, apiErr.Message)
	assert.Equal(t, int32(2), hits.Load())
}

func TestSend_CanceledBeforeStart(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Exec(ctx, c, http.MethodGet, "/courses", nil)
	require.ErrorIs(t, err, context.Canceled)
	_, ok := AsAPIError(err)
	assert.False(t, ok)
}

func TestSend_CanceledInFlight(t *testing.T) {
	started := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	err := Exec(ctx, c, http.MethodGet, "/courses", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsNetwork(err))
}

func TestURL_JoinsWithSingleSlash(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://api", "/courses", "http://api/courses"},
		{"http://api/", "courses", "http://api/courses"},
		{"http://api/", "/courses", "http://api/courses"},
		{"http://api/v1", "users/me", "http://api/v1/users/me"},
	}
	for _, tc := range tests {
		c := New(Config{BaseURL: tc.base}, nil, testLogger())
		assert.Equal(t, tc.want, c.URL(tc.path))
	}
}

func TestNew_DefaultBaseURL(t *testing.T) {
	c := New(Config{}, nil, testLogger())
	assert.Equal(t, DefaultBaseURL+"/auth/login", c.URL("/auth/login"))
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}
