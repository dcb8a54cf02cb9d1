package handler

import (
	"github.com/deppfellow/policydesk/internal/server"
	"github.com/deppfellow/policydesk/internal/service"
)

// Handlers groups every HTTP handler so the router receives a single value.
type Handlers struct {
	Health    *HealthHandler
	OpenAPI   *OpenAPIHandler
	Applicant *ApplicantHandler
	Policy    *PolicyHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(s),
		OpenAPI:   NewOpenAPIHandler(s),
		Applicant: NewApplicantHandler(s, services.Applicant),
		Policy:    NewPolicyHandler(s, services.Policy),
	}
}
