package job

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/policydesk/internal/lib/email"
)

type fakeEmails struct {
	to   []string
	data []email.PolicyCreatedData
	err  error
}

func (f *fakeEmails) SendPolicyCreatedEmail(to string, data email.PolicyCreatedData) error {
	f.to = append(f.to, to)
	f.data = append(f.data, data)
	return f.err
}

func newTestService(emails PolicyEmailSender, notifyTo string) *JobService {
	log := zerolog.Nop()
	return &JobService{logger: &log, emails: emails, notifyTo: notifyTo}
}

func policyTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewPolicyCreatedTask(PolicyCreatedPayload{
		ApplicantID:    1,
		ApplicantName:  "Acme Trucking",
		PolicyID:       9,
		PolicyNo:       "P-1",
		BusinessLines:  "Auto",
		EffectiveDate:  "2024-01-01",
		ExpirationDate: "2025-01-01",
	})
	require.NoError(t, err)
	return task
}

func TestNewPolicyCreatedTask(t *testing.T) {
	task := policyTask(t)
	assert.Equal(t, TaskPolicyCreated, task.Type())
	assert.JSONEq(t, `{
		"applicant_id": 1,
		"applicant_name": "Acme Trucking",
		"policy_id": 9,
		"policy_no": "P-1",
		"business_lines": "Auto",
		"effective_date": "2024-01-01",
		"expiration_date": "2025-01-01"
	}`, string(task.Payload()))
}

func TestHandlePolicyCreatedSendsEmail(t *testing.T) {
	fake := &fakeEmails{}
	j := newTestService(fake, "desk@example.com")

	require.NoError(t, j.mux().ProcessTask(context.Background(), policyTask(t)))

	require.Equal(t, []string{"desk@example.com"}, fake.to)
	assert.Equal(t, "Acme Trucking", fake.data[0].ApplicantName)
	assert.Equal(t, "2025-01-01", fake.data[0].ExpirationDate)
}

func TestHandlePolicyCreatedPropagatesSendFailure(t *testing.T) {
	j := newTestService(&fakeEmails{err: errors.New("provider down")}, "desk@example.com")
	assert.Error(t, j.handlePolicyCreatedTask(context.Background(), policyTask(t)))
}

func TestHandlePolicyCreatedWithoutRecipientIsSkipped(t *testing.T) {
	fake := &fakeEmails{}
	j := newTestService(fake, "")

	require.NoError(t, j.handlePolicyCreatedTask(context.Background(), policyTask(t)))
	assert.Empty(t, fake.to)
}

func TestHandlePolicyCreatedRejectsBadPayload(t *testing.T) {
	j := newTestService(&fakeEmails{}, "desk@example.com")

	err := j.handlePolicyCreatedTask(context.Background(), asynq.NewTask(TaskPolicyCreated, []byte("{")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
