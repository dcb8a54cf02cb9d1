package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/policydesk/internal/handler"
	"github.com/deppfellow/policydesk/internal/server"
)

// registerSystemRoutes registers endpoints outside the business API:
// health, the API document and Prometheus metrics.
func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)
	r.GET("/docs/openapi.yaml", h.OpenAPI.ServeOpenAPIDocument)

	if s.Metrics != nil {
		r.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}
}
