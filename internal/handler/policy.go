package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/policydesk/internal/model"
	"github.com/deppfellow/policydesk/internal/server"
	"github.com/deppfellow/policydesk/internal/validation"
)

// PolicyManager is the service surface used by PolicyHandler.
type PolicyManager interface {
	List(ctx context.Context, applicantID int64) ([]model.Policy, error)
	Get(ctx context.Context, applicantID, policyID int64) (*model.Policy, error)
	Create(ctx context.Context, applicantID int64, fields model.PolicyFields) (*model.Policy, error)
}

type ListPoliciesRequest struct {
	ApplicantID int64 `param:"id" validate:"gt=0"`
}

func (r *ListPoliciesRequest) Validate() error {
	return validation.Struct(r)
}

type GetPolicyRequest struct {
	ApplicantID int64 `param:"id" validate:"gt=0"`
	PolicyID    int64 `param:"policyId" validate:"gt=0"`
}

func (r *GetPolicyRequest) Validate() error {
	return validation.Struct(r)
}

// CreatePolicyRequest carries dates as strings so format errors surface as
// field errors instead of a generic bind failure.
type CreatePolicyRequest struct {
	ApplicantID    int64  `param:"id" json:"-" validate:"gt=0"`
	BusinessLines  string `json:"business_lines" validate:"required,max=255"`
	PolicyNo       string `json:"policy_no" validate:"required,max=64"`
	EffectiveDate  string `json:"effective_date" validate:"required,datetime=2006-01-02"`
	ExpirationDate string `json:"expiration_date" validate:"required,datetime=2006-01-02"`

	effective  model.Date
	expiration model.Date
}

func (r *CreatePolicyRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}

	var err error
	if r.effective, err = model.ParseDate(r.EffectiveDate); err != nil {
		return validation.CustomValidationErrors{{Field: "effective_date", Message: err.Error()}}
	}
	if r.expiration, err = model.ParseDate(r.ExpirationDate); err != nil {
		return validation.CustomValidationErrors{{Field: "expiration_date", Message: err.Error()}}
	}
	// Date ordering is not enforced; an expiration before the effective
	// date is stored as given.
	return nil
}

// Fields is only meaningful after Validate succeeded.
func (r *CreatePolicyRequest) Fields() model.PolicyFields {
	return model.PolicyFields{
		BusinessLines:  r.BusinessLines,
		PolicyNo:       r.PolicyNo,
		EffectiveDate:  r.effective,
		ExpirationDate: r.expiration,
	}
}

type PolicyHandler struct {
	Handler
	policies PolicyManager
}

func NewPolicyHandler(s *server.Server, policies PolicyManager) *PolicyHandler {
	return &PolicyHandler{
		Handler:  NewHandler(s),
		policies: policies,
	}
}

func (h *PolicyHandler) ListPolicies(c echo.Context, req *ListPoliciesRequest) ([]model.Policy, error) {
	return h.policies.List(c.Request().Context(), req.ApplicantID)
}

func (h *PolicyHandler) GetPolicy(c echo.Context, req *GetPolicyRequest) (*model.Policy, error) {
	return h.policies.Get(c.Request().Context(), req.ApplicantID, req.PolicyID)
}

func (h *PolicyHandler) CreatePolicy(c echo.Context, req *CreatePolicyRequest) (*model.Policy, error) {
	return h.policies.Create(c.Request().Context(), req.ApplicantID, req.Fields())
}
