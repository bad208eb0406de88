package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"phase":"Initial Healing"}`))
	})
}

func TestResponseOptimization_GzipAndNoStore(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/recovery/s-1/snapshot", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	ResponseOptimization(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.JSONEq(t, `{"phase":"Initial Healing"}`, string(body))
}

func TestResponseOptimization_PlainClient(t *testing.T) {
	rec := httptest.NewRecorder()
	ResponseOptimization(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestLoggingMiddleware_CapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	LoggingMiddleware(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/triage", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCORSMiddleware(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.org, https://staging.example.org")
	handler := CORSMiddleware(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/triage", nil)
	req.Header.Set("Origin", "https://app.example.org")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/triage", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCORSMiddleware_WildcardByDefault(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/triage", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	CORSMiddleware(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestObservabilityMiddleware_NilMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	ObservabilityMiddleware(nil)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCompression_SkipsEmptyResponses(t *testing.T) {
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodOptions, "/api/triage", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Zero(t, rec.Body.Len())
}

func TestCompression_SniffsContentTypeBeforeCompressing(t *testing.T) {
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("challenge-1234"))
	}))
	req := httptest.NewRequest(http.MethodGet, "/webhooks/whatsapp", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	gz, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, "challenge-1234", string(body))
}

func TestRouteOf(t *testing.T) {
	mux := http.NewServeMux()
	var seen string
	mux.HandleFunc("GET /api/recovery/{senderID}/snapshot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := r.WithContext(r.Context())
		mux.ServeHTTP(w, req)
		seen = routeOf(req)
	})

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/recovery/s-42/snapshot", nil))
	assert.Equal(t, "GET /api/recovery/{senderID}/snapshot", seen)

	assert.Equal(t, unmatchedRoute, routeOf(httptest.NewRequest(http.MethodGet, "/nowhere", nil)))
}
