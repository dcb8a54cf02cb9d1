package email

// PreviewData contains sample template data for local preview and template
// tests, keyed by template.
var PreviewData = map[Template]any{
	TemplatePolicyCreated: PolicyCreatedData{
		ApplicantID:    1,
		ApplicantName:  "Acme Trucking",
		PolicyID:       10,
		PolicyNo:       "P-1",
		BusinessLines:  "Auto",
		EffectiveDate:  "2024-01-01",
		ExpirationDate: "2025-01-01",
	},
}

// Preview renders templateName with its PreviewData entry.
func Preview(templateName Template) (string, error) {
	return render(templateName, PreviewData[templateName])
}
