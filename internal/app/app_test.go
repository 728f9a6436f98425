package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bissquit/incident-tracker/internal/config"
	"github.com/bissquit/incident-tracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.URL = filepath.Join(t.TempDir(), "app.db")
	cfg.Log.Level = "error"
	if mutate != nil {
		mutate(&cfg)
	}

	a, err := New(&cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})
	return a
}

var loadValidator = sync.OnceValues(testutil.LoadOpenAPIValidator)

// serve runs a request through the router and checks the response against
// the OpenAPI document.
func serve(t *testing.T, a *App, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)

	validator, err := loadValidator()
	require.NoError(t, err)
	validator.ValidateRecorder(t, req, rec)
	return rec
}

func TestApp_HealthEndpoints(t *testing.T) {
	a := newTestApp(t, nil)

	rec := serve(t, a, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.NotEmpty(t, health["timestamp"])

	rec = serve(t, a, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, serviceName, info["service"])
	assert.Contains(t, info["endpoints"], "/api/incidents")

	rec = serve(t, a, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = serve(t, a, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, a, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)

	rec = serve(t, a, http.MethodGet, "/api/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openapi: 3.0.3")
}

func TestApp_IncidentRoutes(t *testing.T) {
	a := newTestApp(t, nil)

	rec := serve(t, a, http.MethodPost, "/api/incidents", `{"title":"Disk full","service":"storage","severity":"SEV2"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(t, a, http.MethodGet, "/api/incidents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalPages":1`)

	rec = serve(t, a, http.MethodGet, "/api/services", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["storage"]`, rec.Body.String())
}

func TestApp_ReadyzFailsAfterClose(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.storage.Close())

	rec := serve(t, a, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestApp_RateLimit(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) {
		c.RateLimit.Enabled = true
		c.RateLimit.RPS = 0.001
		c.RateLimit.Burst = 2
	})

	for range 2 {
		rec := serve(t, a, http.MethodGet, "/api/owners", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(t, a, http.MethodGet, "/api/owners", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// health checks are outside the limited group
	rec = serve(t, a, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	_, err := OpenStorage(context.Background(), config.DatabaseConfig{Driver: "mysql", URL: "x"}, NewLogger(config.LogConfig{Level: "error"}))
	assert.Error(t, err)
}

func TestRequestTimeout(t *testing.T) {
	assert.Equal(t, defaultRequestTimeout, requestTimeout(0))
	assert.Equal(t, time.Second, requestTimeout(time.Second))
}

func TestApp_ErrorResponses(t *testing.T) {
	a := newTestApp(t, nil)

	rec := serve(t, a, http.MethodGet, "/api/incidents/not-an-id", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, a, http.MethodPost, "/api/incidents", `{"title":"","service":"api","severity":"SEV9"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"details"`)

	rec = serve(t, a, http.MethodPatch, "/api/incidents/not-an-id", `{"status":"RESOLVED"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApp_RateLimitIgnoresForwardedHeadersFromUntrustedPeers(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) {
		c.RateLimit.Enabled = true
		c.RateLimit.RPS = 0.001
		c.RateLimit.Burst = 2
	})

	send := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/owners", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		a.Router().ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.1"))
	assert.Equal(t, http.StatusOK, send("203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.3"))
}

func TestApp_RateLimitUsesForwardedClientBehindTrustedProxy(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) {
		c.Server.TrustedProxies = []string{"10.0.0.0/8"}
		c.RateLimit.Enabled = true
		c.RateLimit.RPS = 0.001
		c.RateLimit.Burst = 1
	})

	send := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/owners", nil)
		req.RemoteAddr = "10.0.0.2:5000"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		a.Router().ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.1"))
	assert.Equal(t, http.StatusOK, send("203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.1"))
}

func TestNew_InvalidTrustedProxy(t *testing.T) {
	cfg := config.Default()
	cfg.Server.TrustedProxies = []string{"not-an-ip"}

	_, err := New(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.trusted_proxies")
}
