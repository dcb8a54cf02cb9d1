package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/deppfellow/policydesk/internal/model"
)

const policyColumns = `id, applicant_id, business_lines, policy_no, effective_date, expiration_date, created_at`

type PolicyRepository struct {
	db DBTX
}

func NewPolicyRepository(db DBTX) *PolicyRepository {
	return &PolicyRepository{db: db}
}

func scanPolicy(row pgx.CollectableRow) (model.Policy, error) {
	var p model.Policy
	err := row.Scan(&p.ID, &p.ApplicantID, &p.BusinessLines, &p.PolicyNo, &p.EffectiveDate, &p.ExpirationDate, &p.CreatedAt)
	policyInUTC(&p)
	return p, err
}

// FindPoliciesByApplicant returns the policies of an applicant, most
// recent effective date first. An unknown applicant yields no rows.
func (r *PolicyRepository) FindPoliciesByApplicant(ctx context.Context, applicantID int64) ([]model.Policy, error) {
	query := `
		SELECT ` + policyColumns + `
		FROM policies
		WHERE applicant_id = $1
		ORDER BY effective_date DESC, id DESC`

	rows, err := r.db.Query(ctx, query, applicantID)
	if err != nil {
		return nil, fmt.Errorf("query policies of applicant %d: %w", applicantID, err)
	}

	policies, err := pgx.CollectRows(rows, scanPolicy)
	if err != nil {
		return nil, fmt.Errorf("scan policies of applicant %d: %w", applicantID, err)
	}
	return policies, nil
}

// FindPolicy returns policy policyID if it belongs to applicantID.
func (r *PolicyRepository) FindPolicy(ctx context.Context, applicantID, policyID int64) (model.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies WHERE id = $1 AND applicant_id = $2`

	rows, err := r.db.Query(ctx, query, policyID, applicantID)
	if err != nil {
		return model.Policy{}, fmt.Errorf("query policy %d: %w", policyID, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPolicy)
	if err != nil {
		return model.Policy{}, notFound(err, "policy", policyID)
	}
	return p, nil
}

// InsertPolicy creates a policy for applicantID. A missing applicant
// surfaces as a foreign key violation from the database.
func (r *PolicyRepository) InsertPolicy(ctx context.Context, applicantID int64, fields model.PolicyFields) (model.Policy, error) {
	query := `
		INSERT INTO policies (applicant_id, business_lines, policy_no, effective_date, expiration_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + policyColumns

	rows, err := r.db.Query(ctx, query,
		applicantID,
		fields.BusinessLines,
		fields.PolicyNo,
		fields.EffectiveDate,
		fields.ExpirationDate,
	)
	if err != nil {
		return model.Policy{}, fmt.Errorf("insert policy: %w", err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPolicy)
	if err != nil {
		return model.Policy{}, fmt.Errorf("insert policy: %w", err)
	}
	return p, nil
}
