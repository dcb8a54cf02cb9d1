// Package model holds the entities moved between the repository, service
// and handler layers.
package model

import "time"

// Applicant is a business that may hold insurance policies.
//
// Policies is always a non-nil slice once an Applicant leaves the service
// layer, so it serializes as [] and never as null.
type Applicant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	DOT       *string   `json:"dot"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Policies  []Policy  `json:"policies"`
}

// ApplicantFields are the mutable columns of an applicant. Updates replace
// all of them.
type ApplicantFields struct {
	Name    string
	DOT     *string
	Address *string
}

// ApplicantFilter narrows applicant listings. A blank Search matches all.
type ApplicantFilter struct {
	Search string
}

// Policy is a coverage record issued to an applicant.
type Policy struct {
	ID             int64     `json:"id"`
	ApplicantID    int64     `json:"applicant_id"`
	BusinessLines  string    `json:"business_lines"`
	PolicyNo       string    `json:"policy_no"`
	EffectiveDate  Date      `json:"effective_date"`
	ExpirationDate Date      `json:"expiration_date"`
	CreatedAt      time.Time `json:"created_at"`
}

// PolicyFields are the columns supplied when a policy is created.
type PolicyFields struct {
	BusinessLines  string
	PolicyNo       string
	EffectiveDate  Date
	ExpirationDate Date
}
