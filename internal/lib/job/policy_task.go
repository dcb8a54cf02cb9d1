package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskPolicyCreated is the job type name stored in Redis.
	TaskPolicyCreated = "policy:created"
)

// PolicyCreatedPayload is the JSON payload of a policy-created notification.
type PolicyCreatedPayload struct {
	ApplicantID    int64  `json:"applicant_id"`
	ApplicantName  string `json:"applicant_name,omitempty"`
	PolicyID       int64  `json:"policy_id"`
	PolicyNo       string `json:"policy_no"`
	BusinessLines  string `json:"business_lines"`
	EffectiveDate  string `json:"effective_date"`
	ExpirationDate string `json:"expiration_date"`
}

// NewPolicyCreatedTask constructs the notification task.
//
// Options:
//   - MaxRetry(3): retry up to 3 times on failure
//   - Queue("default")
//   - Timeout(30s): kill the task if the handler runs longer
func NewPolicyCreatedTask(p PolicyCreatedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskPolicyCreated,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}
