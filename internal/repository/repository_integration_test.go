//go:build integration

package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/deppfellow/policydesk/internal/model"
	"github.com/deppfellow/policydesk/internal/repository"
	"github.com/deppfellow/policydesk/internal/testutil/containers"
)

type RepositorySuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	repos *repository.Repositories
	ctx   context.Context
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T(), 4)
	s.repos = repository.NewRepositoriesWithDB(s.pg.Pool)
	s.ctx = context.Background()
}

func (s *RepositorySuite) SetupTest() {
	s.pg.Truncate(s.T())
}

func ptr(v string) *string { return &v }

func (s *RepositorySuite) insertApplicant(name string, address *string) model.Applicant {
	a, err := s.repos.Applicant.InsertApplicant(s.ctx, model.ApplicantFields{Name: name, Address: address})
	s.Require().NoError(err)
	return a
}

func (s *RepositorySuite) insertPolicy(applicantID int64, no string, effective model.Date) model.Policy {
	p, err := s.repos.Policy.InsertPolicy(s.ctx, applicantID, model.PolicyFields{
		BusinessLines:  "Auto",
		PolicyNo:       no,
		EffectiveDate:  effective,
		ExpirationDate: model.NewDate(effective.Year()+1, effective.Month(), effective.Day()),
	})
	s.Require().NoError(err)
	return p
}

func names(applicants []model.Applicant) []string {
	out := make([]string, len(applicants))
	for i, a := range applicants {
		out[i] = a.Name
	}
	return out
}

func (s *RepositorySuite) TestInsertApplicantRoundTrip() {
	created, err := s.repos.Applicant.InsertApplicant(s.ctx, model.ApplicantFields{
		Name:    "Acme Trucking",
		DOT:     ptr("123"),
		Address: ptr("1 Main St"),
	})
	s.Require().NoError(err)
	s.NotZero(created.ID)
	s.False(created.CreatedAt.IsZero())

	found, err := s.repos.Applicant.FindApplicant(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Name, found.Name)
	s.Equal("123", *found.DOT)
	s.Equal("1 Main St", *found.Address)

	list, err := s.repos.Applicant.FindApplicants(s.ctx, model.ApplicantFilter{Search: "Acme Trucking"})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(created.ID, list[0].ID)
}

func (s *RepositorySuite) TestSearchMatchesNameOrAddressCaseInsensitively() {
	s.insertApplicant("Foothill Freight", nil)
	s.insertApplicant("Blue Line", ptr("9 FOOBAR Ave"))
	s.insertApplicant("Zephyr Logistics", ptr("2 Elm St"))

	list, err := s.repos.Applicant.FindApplicants(s.ctx, model.ApplicantFilter{Search: "foo"})
	s.Require().NoError(err)
	s.Equal([]string{"Blue Line", "Foothill Freight"}, names(list))

	all, err := s.repos.Applicant.FindApplicants(s.ctx, model.ApplicantFilter{})
	s.Require().NoError(err)
	s.Equal([]string{"Blue Line", "Foothill Freight", "Zephyr Logistics"}, names(all))

	none, err := s.repos.Applicant.FindApplicants(s.ctx, model.ApplicantFilter{Search: "nothing"})
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *RepositorySuite) TestSearchTreatsWildcardsLiterally() {
	s.insertApplicant("100% Hauling", nil)
	s.insertApplicant("1000 Hauling", nil)
	s.insertApplicant("Road_King", nil)
	s.insertApplicant("RoadXKing", nil)

	list, err := s.repos.Applicant.FindApplicants(s.ctx, model.ApplicantFilter{Search: "100%"})
	s.Require().NoError(err)
	s.Equal([]string{"100% Hauling"}, names(list))

	list, err = s.repos.Applicant.FindApplicants(s.ctx, model.ApplicantFilter{Search: "d_k"})
	s.Require().NoError(err)
	s.Equal([]string{"Road_King"}, names(list))
}

func (s *RepositorySuite) TestSearchIsNotInjectable() {
	s.insertApplicant("Acme", nil)

	list, err := s.repos.Applicant.FindApplicants(s.ctx, model.ApplicantFilter{Search: "' OR 1=1 --"})
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *RepositorySuite) TestPoliciesOrderedByEffectiveDateDesc() {
	a := s.insertApplicant("Acme", nil)
	oldest := s.insertPolicy(a.ID, "P-1", model.NewDate(2022, time.March, 1))
	newest := s.insertPolicy(a.ID, "P-2", model.NewDate(2024, time.January, 1))
	middle := s.insertPolicy(a.ID, "P-3", model.NewDate(2023, time.June, 1))

	policies, err := s.repos.Policy.FindPoliciesByApplicant(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Require().Len(policies, 3)
	s.Equal([]int64{newest.ID, middle.ID, oldest.ID}, []int64{policies[0].ID, policies[1].ID, policies[2].ID})
	s.Equal("2024-01-01", policies[0].EffectiveDate.String())
}

func (s *RepositorySuite) TestFindPoliciesOfUnknownApplicantIsEmpty() {
	policies, err := s.repos.Policy.FindPoliciesByApplicant(s.ctx, 424242)
	s.Require().NoError(err)
	s.Empty(policies)
}

func (s *RepositorySuite) TestFindPolicyScopedToApplicant() {
	a := s.insertApplicant("Acme", nil)
	b := s.insertApplicant("Beta", nil)
	p := s.insertPolicy(a.ID, "P-1", model.NewDate(2024, time.January, 1))

	got, err := s.repos.Policy.FindPolicy(s.ctx, a.ID, p.ID)
	s.Require().NoError(err)
	s.Equal(p, got)

	_, err = s.repos.Policy.FindPolicy(s.ctx, b.ID, p.ID)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *RepositorySuite) TestInsertPolicyForMissingApplicantFails() {
	_, err := s.repos.Policy.InsertPolicy(s.ctx, 999, model.PolicyFields{
		PolicyNo:       "P-X",
		EffectiveDate:  model.NewDate(2024, time.January, 1),
		ExpirationDate: model.NewDate(2025, time.January, 1),
	})
	s.Require().Error(err)

	var pgErr *pgconn.PgError
	s.Require().True(errors.As(err, &pgErr))
	s.Equal("23503", pgErr.Code)
}

func (s *RepositorySuite) TestUpdateReplacesAllFields() {
	a, err := s.repos.Applicant.InsertApplicant(s.ctx, model.ApplicantFields{Name: "Acme", DOT: ptr("1"), Address: ptr("x")})
	s.Require().NoError(err)

	updated, err := s.repos.Applicant.UpdateApplicant(s.ctx, a.ID, model.ApplicantFields{Name: "Acme Two"})
	s.Require().NoError(err)
	s.Equal("Acme Two", updated.Name)
	s.Nil(updated.DOT)
	s.Nil(updated.Address)
	s.False(updated.UpdatedAt.Before(a.UpdatedAt))
}

func (s *RepositorySuite) TestMissingIDsReportNotFound() {
	_, err := s.repos.Applicant.UpdateApplicant(s.ctx, 999, model.ApplicantFields{Name: "Ghost"})
	s.ErrorIs(err, repository.ErrNotFound)

	s.ErrorIs(s.repos.Applicant.DeleteApplicant(s.ctx, 999), repository.ErrNotFound)

	_, err = s.repos.Applicant.FindApplicant(s.ctx, 999)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *RepositorySuite) TestDeleteCascadesToPolicies() {
	a := s.insertApplicant("Acme", nil)
	s.insertPolicy(a.ID, "P-1", model.NewDate(2024, time.January, 1))

	s.Require().NoError(s.repos.Applicant.DeleteApplicant(s.ctx, a.ID))

	var count int
	s.Require().NoError(s.pg.Pool.QueryRow(s.ctx, `SELECT count(*) FROM policies WHERE applicant_id = $1`, a.ID).Scan(&count))
	s.Zero(count)
}

func (s *RepositorySuite) TestAggregatedReadMatchesFanOutReads() {
	acme := s.insertApplicant("Acme", ptr("1 Main St"))
	s.insertApplicant("Beta", nil)
	s.insertPolicy(acme.ID, "P-1", model.NewDate(2023, time.January, 1))
	s.insertPolicy(acme.ID, "P-2", model.NewDate(2024, time.January, 1))

	aggregated, err := s.repos.Applicant.FindApplicantsWithPolicies(s.ctx, model.ApplicantFilter{})
	s.Require().NoError(err)
	s.Require().Len(aggregated, 2)

	// No policies is NULL from the database, the service coerces it.
	s.Nil(aggregated[1].Policies)

	perRow, err := s.repos.Policy.FindPoliciesByApplicant(s.ctx, acme.ID)
	s.Require().NoError(err)

	s.Require().Len(aggregated[0].Policies, len(perRow))
	for i := range perRow {
		s.Equal(perRow[i].ID, aggregated[0].Policies[i].ID)
		s.Equal(perRow[i].EffectiveDate, aggregated[0].Policies[i].EffectiveDate)
		s.Equal(perRow[i].ExpirationDate, aggregated[0].Policies[i].ExpirationDate)
		s.True(perRow[i].CreatedAt.Equal(aggregated[0].Policies[i].CreatedAt))
	}

	perRowJSON, err := json.Marshal(perRow)
	s.Require().NoError(err)
	aggregatedJSON, err := json.Marshal(aggregated[0].Policies)
	s.Require().NoError(err)
	s.JSONEq(string(perRowJSON), string(aggregatedJSON))
}

func (s *RepositorySuite) TestAggregatedTimestampsIgnoreSessionTimeZone() {
	acme := s.insertApplicant("Acme", nil)
	s.insertPolicy(acme.ID, "P-1", model.NewDate(2024, time.January, 1))

	conn, err := s.pg.Pool.Acquire(s.ctx)
	s.Require().NoError(err)
	defer conn.Release()
	_, err = conn.Exec(s.ctx, `SET TIME ZONE 'Asia/Tokyo'`)
	s.Require().NoError(err)
	defer func() { _, _ = conn.Exec(s.ctx, `RESET TIME ZONE`) }()

	aggregated, err := repository.NewApplicantRepository(conn).FindApplicantsWithPolicies(s.ctx, model.ApplicantFilter{})
	s.Require().NoError(err)
	s.Require().Len(aggregated, 1)
	s.Require().Len(aggregated[0].Policies, 1)
	s.Equal(time.UTC, aggregated[0].Policies[0].CreatedAt.Location())
	s.Equal(time.UTC, aggregated[0].CreatedAt.Location())
}

func (s *RepositorySuite) TestInsertPolicyKeepsDatesAsGiven() {
	acme := s.insertApplicant("Acme", nil)

	p, err := s.repos.Policy.InsertPolicy(s.ctx, acme.ID, model.PolicyFields{
		PolicyNo:       "P-1",
		EffectiveDate:  model.NewDate(2025, time.January, 1),
		ExpirationDate: model.NewDate(2024, time.January, 1),
	})
	s.Require().NoError(err)
	s.Equal(model.NewDate(2024, time.January, 1), p.ExpirationDate)
}

func (s *RepositorySuite) TestConnectionsReleasedAfterFailures() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.repos.Applicant.FindApplicants(ctx, model.ApplicantFilter{})
	s.Error(err)

	_, err = s.repos.Policy.InsertPolicy(s.ctx, 999, model.PolicyFields{
		EffectiveDate:  model.NewDate(2024, time.January, 1),
		ExpirationDate: model.NewDate(2025, time.January, 1),
	})
	s.Error(err)

	_, err = s.repos.Applicant.FindApplicant(s.ctx, 999)
	s.Error(err)

	assert.Eventually(s.T(), func() bool {
		return s.pg.Pool.Stat().AcquiredConns() == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestEscapedSearchAgainstDatabase(t *testing.T) {
	pg := containers.NewPostgresContainer(t, 2)
	repos := repository.NewRepositoriesWithDB(pg.Pool)
	ctx := context.Background()

	_, err := repos.Applicant.InsertApplicant(ctx, model.ApplicantFields{Name: `C:\Trucks`})
	require.NoError(t, err)

	list, err := repos.Applicant.FindApplicants(ctx, model.ApplicantFilter{Search: `:\t`})
	require.NoError(t, err)
	require.Len(t, list, 1)
}
