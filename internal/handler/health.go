package handler

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/policydesk/internal/middleware"
	"github.com/deppfellow/policydesk/internal/server"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves /status for load balancers and uptime monitors.
//
// Only the checks named in observability.health_checks.checks decide the
// overall status; others are reported but cannot make the service
// unhealthy.
type HealthHandler struct {
	Handler
	checks map[string]HealthCheck
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	checks := map[string]HealthCheck{}
	if s.DB != nil {
		checks["database"] = func(ctx context.Context) error {
			return s.DB.Pool.Ping(ctx)
		}
	}
	if s.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return s.Redis.Ping(ctx).Err()
		}
	}
	return newHealthHandler(s, checks)
}

func newHealthHandler(s *server.Server, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
		checks:  checks,
	}
}

func (h *HealthHandler) recordFailure(checkType, errorType string, attrs map[string]interface{}) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}
	attrs["check_type"] = checkType
	attrs["operation"] = "health_check"
	attrs["error_type"] = errorType
	h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", attrs)
}

// CheckHealth answers 200 when every required check passes and 503
// otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	hc := h.server.Config.Observability.HealthChecks
	checks := make(map[string]interface{}, len(h.checks))
	isHealthy := true

	if hc.Enabled {
		for name, check := range h.checks {
			ctx, cancel := context.WithTimeout(c.Request().Context(), hc.Timeout)
			checkStart := time.Now()
			err := check(ctx)
			elapsed := time.Since(checkStart)
			cancel()

			if err == nil {
				checks[name] = map[string]interface{}{
					"status":        "healthy",
					"response_time": elapsed.String(),
				}
				logger.Debug().Str("check", name).Dur("response_time", elapsed).Msg("health check passed")
				continue
			}

			checks[name] = map[string]interface{}{
				"status":        "unhealthy",
				"response_time": elapsed.String(),
				"error":         err.Error(),
			}
			if slices.Contains(hc.Checks, name) {
				isHealthy = false
			}

			logger.Error().
				Err(err).
				Str("check", name).
				Dur("response_time", elapsed).
				Msg("health check failed")

			h.recordFailure(name, name+"_unhealthy", map[string]interface{}{
				"response_time_ms": elapsed.Milliseconds(),
				"error_message":    err.Error(),
			})
		}
	}

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordFailure("overall", "overall_unhealthy", map[string]interface{}{
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}
