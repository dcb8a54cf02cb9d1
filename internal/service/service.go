// Package service contains the business logic.
//
// It sits between the handler and repository layers. It receives validated
// data from the handler, composes repository calls and normalizes results:
// an applicant always carries a policies collection, and a missing record
// is reported as a 404 distinct from store failures.
package service

import (
	"context"

	"github.com/deppfellow/policydesk/internal/model"
)

// ApplicantStore is the applicant persistence used by the services.
type ApplicantStore interface {
	FindApplicants(ctx context.Context, filter model.ApplicantFilter) ([]model.Applicant, error)
	FindApplicantsWithPolicies(ctx context.Context, filter model.ApplicantFilter) ([]model.Applicant, error)
	FindApplicant(ctx context.Context, id int64) (model.Applicant, error)
	InsertApplicant(ctx context.Context, fields model.ApplicantFields) (model.Applicant, error)
	UpdateApplicant(ctx context.Context, id int64, fields model.ApplicantFields) (model.Applicant, error)
	DeleteApplicant(ctx context.Context, id int64) error
}

// PolicyStore is the policy persistence used by the services.
type PolicyStore interface {
	FindPoliciesByApplicant(ctx context.Context, applicantID int64) ([]model.Policy, error)
	FindPolicy(ctx context.Context, applicantID, policyID int64) (model.Policy, error)
	InsertPolicy(ctx context.Context, applicantID int64, fields model.PolicyFields) (model.Policy, error)
}

// orEmpty never lets a nil policies slice escape as JSON null.
func orEmpty(policies []model.Policy) []model.Policy {
	if policies == nil {
		return []model.Policy{}
	}
	return policies
}
