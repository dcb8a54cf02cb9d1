package handler

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/policydesk/internal/model"
	"github.com/deppfellow/policydesk/internal/server"
	"github.com/deppfellow/policydesk/internal/validation"
)

// ApplicantManager is the service surface used by ApplicantHandler.
type ApplicantManager interface {
	List(ctx context.Context, search string) ([]model.Applicant, error)
	Get(ctx context.Context, id int64) (*model.Applicant, error)
	Create(ctx context.Context, fields model.ApplicantFields) (*model.Applicant, error)
	Update(ctx context.Context, id int64, fields model.ApplicantFields) (*model.Applicant, error)
	Delete(ctx context.Context, id int64) error
}

type ListApplicantsRequest struct {
	Search string `query:"search" validate:"max=255"`
}

func (r *ListApplicantsRequest) Validate() error {
	return validation.Struct(r)
}

type ApplicantIDRequest struct {
	ID int64 `param:"id" validate:"gt=0"`
}

func (r *ApplicantIDRequest) Validate() error {
	return validation.Struct(r)
}

// ApplicantBody is the JSON shape accepted on create and update. Blank
// optional fields are stored as NULL.
type ApplicantBody struct {
	Name    string  `json:"name" validate:"required,max=255"`
	DOT     *string `json:"dot" validate:"omitempty,max=64"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

func (b *ApplicantBody) normalize() {
	b.Name = strings.TrimSpace(b.Name)
	b.DOT = trimOptional(b.DOT)
	b.Address = trimOptional(b.Address)
}

func (b *ApplicantBody) Fields() model.ApplicantFields {
	return model.ApplicantFields{
		Name:    b.Name,
		DOT:     b.DOT,
		Address: b.Address,
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

type CreateApplicantRequest struct {
	ApplicantBody
}

func (r *CreateApplicantRequest) Validate() error {
	r.normalize()
	return validation.Struct(r)
}

type UpdateApplicantRequest struct {
	ID int64 `param:"id" json:"-" validate:"gt=0"`
	ApplicantBody
}

func (r *UpdateApplicantRequest) Validate() error {
	r.normalize()
	return validation.Struct(r)
}

type ApplicantHandler struct {
	Handler
	applicants ApplicantManager
}

func NewApplicantHandler(s *server.Server, applicants ApplicantManager) *ApplicantHandler {
	return &ApplicantHandler{
		Handler:    NewHandler(s),
		applicants: applicants,
	}
}

func (h *ApplicantHandler) ListApplicants(c echo.Context, req *ListApplicantsRequest) ([]model.Applicant, error) {
	return h.applicants.List(c.Request().Context(), req.Search)
}

func (h *ApplicantHandler) GetApplicant(c echo.Context, req *ApplicantIDRequest) (*model.Applicant, error) {
	return h.applicants.Get(c.Request().Context(), req.ID)
}

func (h *ApplicantHandler) CreateApplicant(c echo.Context, req *CreateApplicantRequest) (*model.Applicant, error) {
	return h.applicants.Create(c.Request().Context(), req.Fields())
}

func (h *ApplicantHandler) UpdateApplicant(c echo.Context, req *UpdateApplicantRequest) (*model.Applicant, error) {
	return h.applicants.Update(c.Request().Context(), req.ID, req.Fields())
}

func (h *ApplicantHandler) DeleteApplicant(c echo.Context, req *ApplicantIDRequest) error {
	return h.applicants.Delete(c.Request().Context(), req.ID)
}
