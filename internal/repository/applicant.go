package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/deppfellow/policydesk/internal/model"
)

const applicantColumns = `a.id, a.name, a.dot, a.address, a.created_at, a.updated_at`

// searchCondition matches the escaped search term as a case-insensitive
// substring of name or address. An empty term matches every row.
const searchCondition = `($1::text = '' OR a.name ILIKE '%' || $1 || '%' OR a.address ILIKE '%' || $1 || '%')`

type ApplicantRepository struct {
	db DBTX
}

func NewApplicantRepository(db DBTX) *ApplicantRepository {
	return &ApplicantRepository{db: db}
}

func scanApplicant(row pgx.CollectableRow) (model.Applicant, error) {
	var a model.Applicant
	err := row.Scan(&a.ID, &a.Name, &a.DOT, &a.Address, &a.CreatedAt, &a.UpdatedAt)
	applicantInUTC(&a)
	return a, err
}

// FindApplicants returns applicants without policies, ordered by name.
func (r *ApplicantRepository) FindApplicants(ctx context.Context, filter model.ApplicantFilter) ([]model.Applicant, error) {
	query := `
		SELECT ` + applicantColumns + `
		FROM applicants a
		WHERE ` + searchCondition + `
		ORDER BY a.name, a.id`

	rows, err := r.db.Query(ctx, query, escapeLike(filter.Search))
	if err != nil {
		return nil, fmt.Errorf("query applicants: %w", err)
	}

	applicants, err := pgx.CollectRows(rows, scanApplicant)
	if err != nil {
		return nil, fmt.Errorf("scan applicants: %w", err)
	}
	return applicants, nil
}

// FindApplicantsWithPolicies returns the same applicants as FindApplicants
// with their policies materialized by the database in a single read.
//
// Applicants without policies come back with a nil Policies slice.
func (r *ApplicantRepository) FindApplicantsWithPolicies(ctx context.Context, filter model.ApplicantFilter) ([]model.Applicant, error) {
	query := `
		SELECT ` + applicantColumns + `,
			json_agg(
				json_build_object(
					'id', p.id,
					'applicant_id', p.applicant_id,
					'business_lines', p.business_lines,
					'policy_no', p.policy_no,
					'effective_date', p.effective_date,
					'expiration_date', p.expiration_date,
					'created_at', p.created_at
				)
				ORDER BY p.effective_date DESC, p.id DESC
			) FILTER (WHERE p.id IS NOT NULL) AS policies
		FROM applicants a
		LEFT JOIN policies p ON p.applicant_id = a.id
		WHERE ` + searchCondition + `
		GROUP BY a.id
		ORDER BY a.name, a.id`

	rows, err := r.db.Query(ctx, query, escapeLike(filter.Search))
	if err != nil {
		return nil, fmt.Errorf("query applicants with policies: %w", err)
	}

	applicants, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Applicant, error) {
		var a model.Applicant
		err := row.Scan(&a.ID, &a.Name, &a.DOT, &a.Address, &a.CreatedAt, &a.UpdatedAt, &a.Policies)
		applicantInUTC(&a)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan applicants with policies: %w", err)
	}
	return applicants, nil
}

func (r *ApplicantRepository) FindApplicant(ctx context.Context, id int64) (model.Applicant, error) {
	query := `SELECT ` + applicantColumns + ` FROM applicants a WHERE a.id = $1`

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return model.Applicant{}, fmt.Errorf("query applicant %d: %w", id, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanApplicant)
	if err != nil {
		return model.Applicant{}, notFound(err, "applicant", id)
	}
	return a, nil
}

func (r *ApplicantRepository) InsertApplicant(ctx context.Context, fields model.ApplicantFields) (model.Applicant, error) {
	query := `
		INSERT INTO applicants (name, dot, address)
		VALUES ($1, $2, $3)
		RETURNING id, name, dot, address, created_at, updated_at`

	var a model.Applicant
	err := r.db.QueryRow(ctx, query, fields.Name, fields.DOT, fields.Address).
		Scan(&a.ID, &a.Name, &a.DOT, &a.Address, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Applicant{}, fmt.Errorf("insert applicant: %w", err)
	}
	applicantInUTC(&a)
	return a, nil
}

// UpdateApplicant replaces name, dot and address of applicant id.
func (r *ApplicantRepository) UpdateApplicant(ctx context.Context, id int64, fields model.ApplicantFields) (model.Applicant, error) {
	query := `
		UPDATE applicants
		SET name = $2, dot = $3, address = $4, updated_at = now()
		WHERE id = $1
		RETURNING id, name, dot, address, created_at, updated_at`

	var a model.Applicant
	err := r.db.QueryRow(ctx, query, id, fields.Name, fields.DOT, fields.Address).
		Scan(&a.ID, &a.Name, &a.DOT, &a.Address, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Applicant{}, notFound(err, "update applicant", id)
	}
	applicantInUTC(&a)
	return a, nil
}

// DeleteApplicant removes applicant id. Its policies go with it.
func (r *ApplicantRepository) DeleteApplicant(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM applicants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete applicant %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete applicant %d: %w", id, ErrNotFound)
	}
	return nil
}

// notFound maps pgx.ErrNoRows onto ErrNotFound and wraps everything else.
func notFound(err error, op string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", op, id, ErrNotFound)
	}
	return fmt.Errorf("%s %d: %w", op, id, err)
}
