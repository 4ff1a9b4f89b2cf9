package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"sharify/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestHealthChecks(t *testing.T) {
	env := setupServer(t)

	var live map[string]any
	env.getJSON(http.MethodGet, "/health/live", "", nil, http.StatusOK, &live)
	assert.Equal(t, "up", live["status"])

	var ready struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	env.getJSON(http.MethodGet, "/health/ready", "", nil, http.StatusOK, &ready)
	assert.Contains(t, ready.Checks, "database")
	assert.Contains(t, ready.Checks, "storage")
}

func TestAPIKey(t *testing.T) {
	env := setupServer(t, func(c *config.Config) { c.PublicAPIKey = "anon-key" })

	status, _ := env.do(http.MethodGet, "/api/posts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("apikey", "anon-key")
	status, _ = env.send(req)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(http.MethodGet, "/api/posts?apikey=anon-key", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status, "health checks skip the key")
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	env := setupServer(t, func(c *config.Config) { c.AllowedOrigins = "http://localhost:5173" })

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}
