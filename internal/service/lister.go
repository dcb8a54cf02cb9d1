package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/deppfellow/policydesk/internal/config"
	"github.com/deppfellow/policydesk/internal/metrics"
	"github.com/deppfellow/policydesk/internal/model"
)

// ApplicantLister produces applicants with their policies attached.
//
// Implementations return applicants ordered by name with each Policies
// slice non-nil and ordered by effective date, newest first. Any failed
// lookup fails the whole listing.
type ApplicantLister interface {
	ListApplicants(ctx context.Context, filter model.ApplicantFilter) ([]model.Applicant, error)
}

// NewApplicantLister returns the lister selected by cfg.
func NewApplicantLister(cfg *config.ListingConfig, applicants ApplicantStore, policies PolicyStore, m *metrics.Metrics) ApplicantLister {
	if cfg != nil && cfg.Strategy == config.ListingStrategyAggregated {
		return NewAggregatedLister(applicants)
	}
	concurrency := config.DefaultListingConfig().FanOutConcurrency
	if cfg != nil && cfg.FanOutConcurrency > 0 {
		concurrency = cfg.FanOutConcurrency
	}
	return NewFanOutLister(applicants, policies, concurrency, m)
}

// FanOutLister issues one policies lookup per applicant, at most
// concurrency at a time.
type FanOutLister struct {
	applicants  ApplicantStore
	policies    PolicyStore
	concurrency int
	metrics     *metrics.Metrics
}

func NewFanOutLister(applicants ApplicantStore, policies PolicyStore, concurrency int, m *metrics.Metrics) *FanOutLister {
	if concurrency < 1 {
		concurrency = 1
	}
	return &FanOutLister{
		applicants:  applicants,
		policies:    policies,
		concurrency: concurrency,
		metrics:     m,
	}
}

func (l *FanOutLister) ListApplicants(ctx context.Context, filter model.ApplicantFilter) ([]model.Applicant, error) {
	applicants, err := l.applicants.FindApplicants(ctx, filter)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	// Each goroutine owns one slot, so order is kept without locking.
	for i := range applicants {
		g.Go(func() error {
			policies, err := l.policies.FindPoliciesByApplicant(gctx, applicants[i].ID)
			if err != nil {
				l.metrics.ObserveFanOutLookup(metrics.LookupFailed)
				return fmt.Errorf("policies of applicant %d: %w", applicants[i].ID, err)
			}
			l.metrics.ObserveFanOutLookup(metrics.LookupOK)
			applicants[i].Policies = orEmpty(policies)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if applicants == nil {
		applicants = []model.Applicant{}
	}
	return applicants, nil
}

// AggregatedLister reads applicants and policies in a single query.
type AggregatedLister struct {
	applicants ApplicantStore
}

func NewAggregatedLister(applicants ApplicantStore) *AggregatedLister {
	return &AggregatedLister{applicants: applicants}
}

func (l *AggregatedLister) ListApplicants(ctx context.Context, filter model.ApplicantFilter) ([]model.Applicant, error) {
	applicants, err := l.applicants.FindApplicantsWithPolicies(ctx, filter)
	if err != nil {
		return nil, err
	}

	// The database yields NULL for applicants without policies.
	for i := range applicants {
		applicants[i].Policies = orEmpty(applicants[i].Policies)
	}

	if applicants == nil {
		applicants = []model.Applicant{}
	}
	return applicants, nil
}
