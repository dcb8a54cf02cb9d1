package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHealth(t *testing.T, h *HealthHandler) (int, map[string]any) {
	t.Helper()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/status", nil), httptest.NewRecorder())
	require.NoError(t, h.CheckHealth(c))

	rec := c.Response().Writer.(*httptest.ResponseRecorder)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("dial tcp: connection refused") }

func TestHealthAllPassing(t *testing.T) {
	h := newHealthHandler(testServer(), map[string]HealthCheck{"database": ok, "redis": ok})

	status, body := runHealth(t, h)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["environment"])
	assert.Len(t, body["checks"], 2)
}

func TestHealthRequiredCheckFailing(t *testing.T) {
	h := newHealthHandler(testServer(), map[string]HealthCheck{"database": failing, "redis": ok})

	status, body := runHealth(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", body["status"])

	db := body["checks"].(map[string]any)["database"].(map[string]any)
	assert.Equal(t, "unhealthy", db["status"])
	assert.Contains(t, db["error"], "connection refused")
}

func TestHealthOptionalCheckFailingStaysHealthy(t *testing.T) {
	srv := testServer()
	srv.Config.Observability.HealthChecks.Checks = []string{"database"}
	h := newHealthHandler(srv, map[string]HealthCheck{"database": ok, "redis": failing})

	status, body := runHealth(t, h)
	assert.Equal(t, http.StatusOK, status)
	redis := body["checks"].(map[string]any)["redis"].(map[string]any)
	assert.Equal(t, "unhealthy", redis["status"])
}

func TestHealthChecksDisabled(t *testing.T) {
	srv := testServer()
	srv.Config.Observability.HealthChecks.Enabled = false
	h := newHealthHandler(srv, map[string]HealthCheck{"database": failing})

	status, body := runHealth(t, h)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["checks"])
}

func TestServeOpenAPIDocument(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil), rec)

	require.NoError(t, NewOpenAPIHandler(testServer()).ServeOpenAPIDocument(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "/api/applicants/{id}/policies:")
}
