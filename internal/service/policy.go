package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/deppfellow/policydesk/internal/errs"
	"github.com/deppfellow/policydesk/internal/lib/job"
	"github.com/deppfellow/policydesk/internal/metrics"
	"github.com/deppfellow/policydesk/internal/model"
	"github.com/deppfellow/policydesk/internal/repository"
)

// CodeApplicantIDRequired is reported when a policy is created without a
// usable applicant id.
const CodeApplicantIDRequired = "APPLICANT_ID_REQUIRED"

// PolicyNotifier hands a policy-created notification to the job queue.
type PolicyNotifier interface {
	EnqueuePolicyCreated(ctx context.Context, p job.PolicyCreatedPayload) error
}

type PolicyService struct {
	applicants ApplicantStore
	policies   PolicyStore
	notifier   PolicyNotifier
	metrics    *metrics.Metrics
}

// NewPolicyService builds the service. notifier may be nil, in which case
// no notifications are sent.
func NewPolicyService(applicants ApplicantStore, policies PolicyStore, notifier PolicyNotifier, m *metrics.Metrics) *PolicyService {
	return &PolicyService{
		applicants: applicants,
		policies:   policies,
		notifier:   notifier,
		metrics:    m,
	}
}

// List returns the applicant's policies, newest effective date first.
// The applicant's existence is not checked; unknown ids list nothing.
func (s *PolicyService) List(ctx context.Context, applicantID int64) ([]model.Policy, error) {
	policies, err := s.policies.FindPoliciesByApplicant(ctx, applicantID)
	if err != nil {
		return nil, storeFailure(ctx, "list policies", err, map[string]any{"applicant_id": applicantID})
	}
	return orEmpty(policies), nil
}

func (s *PolicyService) Get(ctx context.Context, applicantID, policyID int64) (*model.Policy, error) {
	policy, err := s.policies.FindPolicy(ctx, applicantID, policyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			code := "POLICY_NOT_FOUND"
			return nil, errs.NewNotFoundError("Policy not found", true, &code)
		}
		return nil, storeFailure(ctx, "get policy", err, map[string]any{
			"applicant_id": applicantID,
			"policy_id":    policyID,
		})
	}
	return &policy, nil
}

// Create inserts a policy for applicantID. A nonexistent applicant fails
// at the store with a foreign key violation.
func (s *PolicyService) Create(ctx context.Context, applicantID int64, fields model.PolicyFields) (*model.Policy, error) {
	if applicantID <= 0 {
		code := CodeApplicantIDRequired
		return nil, errs.NewBadRequestError("A valid applicant id is required", true, &code, nil, nil)
	}

	policy, err := s.policies.InsertPolicy(ctx, applicantID, fields)
	if err != nil {
		return nil, storeFailure(ctx, "create policy", err, map[string]any{"applicant_id": applicantID})
	}

	s.metrics.IncrementPoliciesCreated()
	zerolog.Ctx(ctx).Info().
		Int64("applicant_id", applicantID).
		Int64("policy_id", policy.ID).
		Msg("policy created")

	s.notify(ctx, policy)
	return &policy, nil
}

// notify is best effort: failures are logged and never fail the request.
func (s *PolicyService) notify(ctx context.Context, policy model.Policy) {
	if s.notifier == nil {
		return
	}
	log := zerolog.Ctx(ctx)

	payload := job.PolicyCreatedPayload{
		ApplicantID:    policy.ApplicantID,
		PolicyID:       policy.ID,
		PolicyNo:       policy.PolicyNo,
		BusinessLines:  policy.BusinessLines,
		EffectiveDate:  policy.EffectiveDate.String(),
		ExpirationDate: policy.ExpirationDate.String(),
	}

	if applicant, err := s.applicants.FindApplicant(ctx, policy.ApplicantID); err == nil {
		payload.ApplicantName = applicant.Name
	} else {
		log.Warn().Err(err).Int64("applicant_id", policy.ApplicantID).Msg("applicant lookup for notification failed")
	}

	if err := s.notifier.EnqueuePolicyCreated(ctx, payload); err != nil {
		log.Error().Err(err).Int64("policy_id", policy.ID).Msg("failed to enqueue policy notification")
	}
}
