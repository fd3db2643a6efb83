package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		cfg         CORSConfig
		origin      string
		wantOrigin  string
		wantCreds   string
		wantHeaders bool
	}{
		{
			name:        "wildcard without credentials",
			cfg:         CORSConfig{AllowedOrigins: []string{"*"}},
			origin:      "https://learn.example.com",
			wantOrigin:  "*",
			wantHeaders: true,
		},
		{
			name:        "wildcard with credentials echoes origin",
			cfg:         CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true},
			origin:      "https://learn.example.com",
			wantOrigin:  "https://learn.example.com",
			wantCreds:   "true",
			wantHeaders: true,
		},
		{
			name:        "listed origin",
			cfg:         CORSConfig{AllowedOrigins: []string{"https://learn.example.com/"}, AllowCredentials: true},
			origin:      "https://learn.example.com",
			wantOrigin:  "https://learn.example.com",
			wantCreds:   "true",
			wantHeaders: true,
		},
		{
			name:   "unlisted origin",
			cfg:    CORSConfig{AllowedOrigins: []string{"https://learn.example.com"}, AllowCredentials: true},
			origin: "https://evil.example.com",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/courses", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()
			CORS(tc.cfg)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tc.wantCreds, rec.Header().Get("Access-Control-Allow-Credentials"))
			assert.Equal(t, tc.wantHeaders, rec.Header().Get("Access-Control-Allow-Methods") != "")
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "https://learn.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	CORS(DefaultCORSConfig())(okHandler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), CorrelationHeader)
}

func TestCORS_PlainOptionsReachesHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	rec := httptest.NewRecorder()

	CORS(DefaultCORSConfig())(okHandler).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
