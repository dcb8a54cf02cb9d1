// Package repository handles all interactions with the database.
//
// It contains the parameterized SQL and the row scanning for applicants and
// policies. Every caller-supplied value is bound as a query parameter.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deppfellow/policydesk/internal/model"
)

// ErrNotFound is returned (wrapped) when a lookup, update or delete matches
// no row.
var ErrNotFound = errors.New("record not found")

// DBTX is the subset of *pgxpool.Pool used by the repositories.
//
// A pool acquires a connection per call and releases it once the returned
// rows are closed or the row is scanned.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE/ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Timestamps leave the repository in UTC. pgx decodes timestamptz in the
// process zone; json_agg renders it in the session zone.
func applicantInUTC(a *model.Applicant) {
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	for i := range a.Policies {
		policyInUTC(&a.Policies[i])
	}
}

func policyInUTC(p *model.Policy) {
	p.CreatedAt = p.CreatedAt.UTC()
}
