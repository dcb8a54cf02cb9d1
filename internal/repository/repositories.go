package repository

import (
	"github.com/deppfellow/policydesk/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Applicant *ApplicantRepository
	Policy    *PolicyRepository
}

// NewRepositories builds every repository over the shared pool on s.DB.
func NewRepositories(s *server.Server) *Repositories {
	return NewRepositoriesWithDB(s.DB.Pool)
}

// NewRepositoriesWithDB builds the repositories over db.
func NewRepositoriesWithDB(db DBTX) *Repositories {
	return &Repositories{
		Applicant: NewApplicantRepository(db),
		Policy:    NewPolicyRepository(db),
	}
}
