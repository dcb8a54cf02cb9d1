// Package router builds the Echo instance: global middleware in order,
// the error handler, and every route group.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/policydesk/internal/handler"
	"github.com/deppfellow/policydesk/internal/middleware"
	"github.com/deppfellow/policydesk/internal/server"
)

func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	// Order matters: the request id must exist before the logger is built,
	// the New Relic transaction before EnhanceTracing reads it, and the
	// limiter sits inside logging and metrics so throttled requests are
	// recorded too.
	router.Use(
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Metrics(),
		middlewares.RateLimit.Limit(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, s, h)

	api := router.Group("/api")
	registerApplicantRoutes(api, h)

	return router
}

func registerApplicantRoutes(api *echo.Group, h *handler.Handlers) {
	ah, ph := h.Applicant, h.Policy

	applicants := api.Group("/applicants")
	applicants.GET("", handler.Handle(ah.Handler, ah.ListApplicants, http.StatusOK, &handler.ListApplicantsRequest{}))
	applicants.POST("", handler.Handle(ah.Handler, ah.CreateApplicant, http.StatusCreated, &handler.CreateApplicantRequest{}))
	applicants.GET("/:id", handler.Handle(ah.Handler, ah.GetApplicant, http.StatusOK, &handler.ApplicantIDRequest{}))
	applicants.PUT("/:id", handler.Handle(ah.Handler, ah.UpdateApplicant, http.StatusOK, &handler.UpdateApplicantRequest{}))
	applicants.DELETE("/:id", handler.HandleNoContent(ah.Handler, ah.DeleteApplicant, http.StatusNoContent, &handler.ApplicantIDRequest{}))

	policies := applicants.Group("/:id/policies")
	policies.GET("", handler.Handle(ph.Handler, ph.ListPolicies, http.StatusOK, &handler.ListPoliciesRequest{}))
	policies.POST("", handler.Handle(ph.Handler, ph.CreatePolicy, http.StatusCreated, &handler.CreatePolicyRequest{}))
	policies.GET("/:policyId", handler.Handle(ph.Handler, ph.GetPolicy, http.StatusOK, &handler.GetPolicyRequest{}))
}
