package service

import (
	"github.com/deppfellow/policydesk/internal/lib/job"
	"github.com/deppfellow/policydesk/internal/repository"
	"github.com/deppfellow/policydesk/internal/server"
)

type Services struct {
	Applicant *ApplicantService
	Policy    *PolicyService
	Job       *job.JobService
}

// NewService wires every service over the repositories. The listing
// strategy comes from the listing config block.
func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	lister := NewApplicantLister(s.Config.Listing, repos.Applicant, repos.Policy, s.Metrics)

	var notifier PolicyNotifier
	if s.Job != nil && s.Config.Integration.NotificationsEnabled() {
		notifier = s.Job
	}

	return &Services{
		Applicant: NewApplicantService(repos.Applicant, repos.Policy, lister),
		Policy:    NewPolicyService(repos.Applicant, repos.Policy, notifier, s.Metrics),
		Job:       s.Job,
	}, nil
}
