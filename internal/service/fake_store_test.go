package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deppfellow/policydesk/internal/model"
	"github.com/deppfellow/policydesk/internal/repository"
)

// memStore is an in-memory ApplicantStore and PolicyStore with the same
// ordering rules as the SQL repositories.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	applicants map[int64]model.Applicant
	policies   map[int64][]model.Policy

	// failPoliciesFor makes FindPoliciesByApplicant fail for that applicant.
	failPoliciesFor int64
	// failAll makes every call fail.
	failAll error

	lookups atomic.Int64
	// inFlight and maxInFlight track concurrent FindPoliciesByApplicant calls.
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	// gate, when set, blocks every policies lookup until closed.
	gate chan struct{}
}

func newMemStore() *memStore {
	return &memStore{
		applicants: map[int64]model.Applicant{},
		policies:   map[int64][]model.Policy{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) matches(a model.Applicant, search string) bool {
	if search == "" {
		return true
	}
	term := strings.ToLower(search)
	if strings.Contains(strings.ToLower(a.Name), term) {
		return true
	}
	return a.Address != nil && strings.Contains(strings.ToLower(*a.Address), term)
}

func (m *memStore) FindApplicants(_ context.Context, filter model.ApplicantFilter) ([]model.Applicant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}

	var out []model.Applicant
	for _, a := range m.applicants {
		if m.matches(a, filter.Search) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) FindApplicantsWithPolicies(ctx context.Context, filter model.ApplicantFilter) ([]model.Applicant, error) {
	applicants, err := m.FindApplicants(ctx, filter)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range applicants {
		// Mirrors json_agg: nil when there are no policies.
		applicants[i].Policies = m.sortedPolicies(applicants[i].ID)
	}
	return applicants, nil
}

func (m *memStore) FindApplicant(_ context.Context, id int64) (model.Applicant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return model.Applicant{}, m.failAll
	}
	a, ok := m.applicants[id]
	if !ok {
		return model.Applicant{}, fmt.Errorf("applicant %d: %w", id, repository.ErrNotFound)
	}
	return a, nil
}

func (m *memStore) InsertApplicant(_ context.Context, fields model.ApplicantFields) (model.Applicant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return model.Applicant{}, m.failAll
	}
	a := model.Applicant{ID: m.id(), Name: fields.Name, DOT: fields.DOT, Address: fields.Address}
	m.applicants[a.ID] = a
	return a, nil
}

func (m *memStore) UpdateApplicant(_ context.Context, id int64, fields model.ApplicantFields) (model.Applicant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return model.Applicant{}, m.failAll
	}
	a, ok := m.applicants[id]
	if !ok {
		return model.Applicant{}, fmt.Errorf("update applicant %d: %w", id, repository.ErrNotFound)
	}
	a.Name, a.DOT, a.Address = fields.Name, fields.DOT, fields.Address
	m.applicants[id] = a
	return a, nil
}

func (m *memStore) DeleteApplicant(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	if _, ok := m.applicants[id]; !ok {
		return fmt.Errorf("delete applicant %d: %w", id, repository.ErrNotFound)
	}
	delete(m.applicants, id)
	delete(m.policies, id)
	return nil
}

func (m *memStore) sortedPolicies(applicantID int64) []model.Policy {
	src := m.policies[applicantID]
	if len(src) == 0 {
		return nil
	}
	out := append([]model.Policy(nil), src...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveDate.Equal(out[j].EffectiveDate.Time) {
			return out[j].EffectiveDate.Before(out[i].EffectiveDate)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memStore) FindPoliciesByApplicant(ctx context.Context, applicantID int64) ([]model.Policy, error) {
	m.lookups.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		prev := m.maxInFlight.Load()
		if n <= prev || m.maxInFlight.CompareAndSwap(prev, n) {
			break
		}
	}

	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	if m.failPoliciesFor == applicantID {
		return nil, errors.New("connection reset by peer")
	}
	return m.sortedPolicies(applicantID), nil
}

func (m *memStore) FindPolicy(_ context.Context, applicantID, policyID int64) (model.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.policies[applicantID] {
		if p.ID == policyID {
			return p, nil
		}
	}
	return model.Policy{}, fmt.Errorf("policy %d: %w", policyID, repository.ErrNotFound)
}

func (m *memStore) InsertPolicy(_ context.Context, applicantID int64, fields model.PolicyFields) (model.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return model.Policy{}, m.failAll
	}
	if _, ok := m.applicants[applicantID]; !ok {
		return model.Policy{}, &pgconn.PgError{
			Code:      "23503",
			TableName: "policies",
			Detail:    fmt.Sprintf("Key (applicant_id)=(%d) is not present in table \"applicants\".", applicantID),
		}
	}
	p := model.Policy{
		ID:             m.id(),
		ApplicantID:    applicantID,
		BusinessLines:  fields.BusinessLines,
		PolicyNo:       fields.PolicyNo,
		EffectiveDate:  fields.EffectiveDate,
		ExpirationDate: fields.ExpirationDate,
	}
	m.policies[applicantID] = append(m.policies[applicantID], p)
	return p, nil
}
