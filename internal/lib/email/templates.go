package email

// Template is a string-based enum naming email templates.
type Template string

const (
	// TemplatePolicyCreated corresponds to templates/policy_created.html
	TemplatePolicyCreated Template = "policy_created"
)

// PolicyCreatedData feeds the policy_created template.
type PolicyCreatedData struct {
	ApplicantID    int64
	ApplicantName  string
	PolicyID       int64
	PolicyNo       string
	BusinessLines  string
	EffectiveDate  string
	ExpirationDate string
}

// SendPolicyCreatedEmail tells the back office that a policy was issued.
func (c *Client) SendPolicyCreatedEmail(to string, data PolicyCreatedData) error {
	subject := "New policy " + data.PolicyNo
	if data.ApplicantName != "" {
		subject += " for " + data.ApplicantName
	}
	return c.SendEmail(to, subject, TemplatePolicyCreated, data)
}
