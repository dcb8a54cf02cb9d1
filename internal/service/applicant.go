package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/deppfellow/policydesk/internal/errs"
	"github.com/deppfellow/policydesk/internal/model"
	"github.com/deppfellow/policydesk/internal/repository"
	"github.com/deppfellow/policydesk/internal/sqlerr"
)

// CodeApplicantNotFound is reported when an applicant id matches nothing.
const CodeApplicantNotFound = "APPLICANT_NOT_FOUND"

func applicantNotFound() *errs.HTTPError {
	code := CodeApplicantNotFound
	return errs.NewNotFoundError("Applicant not found", true, &code)
}

// storeFailure logs a failed store operation with the request logger and
// returns err wrapped with the operation name and marked as logged.
// Constraint violations are caller mistakes and log at warn.
func storeFailure(ctx context.Context, op string, err error, fields map[string]any) error {
	log := zerolog.Ctx(ctx)
	event := log.Error()
	if sqlerr.ErrCode(err) != sqlerr.Other {
		event = log.Warn()
	}
	event.Err(err).Str("operation", op).Fields(fields).Msg("store operation failed")
	return errs.MarkLogged(fmt.Errorf("%s: %w", op, err))
}

type ApplicantService struct {
	applicants ApplicantStore
	policies   PolicyStore
	lister     ApplicantLister
}

func NewApplicantService(applicants ApplicantStore, policies PolicyStore, lister ApplicantLister) *ApplicantService {
	return &ApplicantService{
		applicants: applicants,
		policies:   policies,
		lister:     lister,
	}
}

// List returns applicants ordered by name, each with its policies. A
// blank search returns every applicant.
func (s *ApplicantService) List(ctx context.Context, search string) ([]model.Applicant, error) {
	filter := model.ApplicantFilter{Search: strings.TrimSpace(search)}

	applicants, err := s.lister.ListApplicants(ctx, filter)
	if err != nil {
		return nil, storeFailure(ctx, "list applicants", err, map[string]any{"search": filter.Search})
	}
	return applicants, nil
}

// Get returns a single applicant with its policies.
func (s *ApplicantService) Get(ctx context.Context, id int64) (*model.Applicant, error) {
	applicant, err := s.applicants.FindApplicant(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, applicantNotFound()
		}
		return nil, storeFailure(ctx, "get applicant", err, map[string]any{"applicant_id": id})
	}

	if err := s.attachPolicies(ctx, &applicant); err != nil {
		return nil, err
	}
	return &applicant, nil
}

func (s *ApplicantService) Create(ctx context.Context, fields model.ApplicantFields) (*model.Applicant, error) {
	applicant, err := s.applicants.InsertApplicant(ctx, fields)
	if err != nil {
		return nil, storeFailure(ctx, "create applicant", err, nil)
	}

	applicant.Policies = []model.Policy{}

	zerolog.Ctx(ctx).Info().Int64("applicant_id", applicant.ID).Msg("applicant created")
	return &applicant, nil
}

// Update replaces name, dot and address. Unknown ids are a 404.
func (s *ApplicantService) Update(ctx context.Context, id int64, fields model.ApplicantFields) (*model.Applicant, error) {
	applicant, err := s.applicants.UpdateApplicant(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, applicantNotFound()
		}
		return nil, storeFailure(ctx, "update applicant", err, map[string]any{"applicant_id": id})
	}

	if err := s.attachPolicies(ctx, &applicant); err != nil {
		return nil, err
	}
	return &applicant, nil
}

// Delete removes the applicant and, through the schema, its policies.
func (s *ApplicantService) Delete(ctx context.Context, id int64) error {
	if err := s.applicants.DeleteApplicant(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return applicantNotFound()
		}
		return storeFailure(ctx, "delete applicant", err, map[string]any{"applicant_id": id})
	}

	zerolog.Ctx(ctx).Info().Int64("applicant_id", id).Msg("applicant deleted")
	return nil
}

func (s *ApplicantService) attachPolicies(ctx context.Context, applicant *model.Applicant) error {
	policies, err := s.policies.FindPoliciesByApplicant(ctx, applicant.ID)
	if err != nil {
		return storeFailure(ctx, "list policies", err, map[string]any{"applicant_id": applicant.ID})
	}
	applicant.Policies = orEmpty(policies)
	return nil
}
