package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/deppfellow/policydesk/internal/config"
	"github.com/deppfellow/policydesk/internal/lib/email"
)

// PolicyEmailSender delivers policy notifications.
type PolicyEmailSender interface {
	SendPolicyCreatedEmail(to string, data email.PolicyCreatedData) error
}

// InitHandlers wires the dependencies used by task handlers.
func (j *JobService) InitHandlers(cfg *config.Config, logger *zerolog.Logger) {
	j.emails = email.NewClient(cfg, logger)
	j.notifyTo = cfg.Integration.NotificationEmail
}

// handlePolicyCreatedTask emails the back office about a new policy.
// Returning an error makes asynq retry the task.
func (j *JobService) handlePolicyCreatedTask(ctx context.Context, t *asynq.Task) error {
	var p PolicyCreatedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal policy created payload: %w: %w", err, asynq.SkipRetry)
	}

	log := j.logger.With().
		Str("type", TaskPolicyCreated).
		Int64("applicant_id", p.ApplicantID).
		Int64("policy_id", p.PolicyID).
		Logger()

	if j.emails == nil || j.notifyTo == "" {
		log.Warn().Msg("Policy notification skipped, no recipient configured")
		return nil
	}

	log.Info().Msg("Processing policy created task")

	err := j.emails.SendPolicyCreatedEmail(j.notifyTo, email.PolicyCreatedData{
		ApplicantID:    p.ApplicantID,
		ApplicantName:  p.ApplicantName,
		PolicyID:       p.PolicyID,
		PolicyNo:       p.PolicyNo,
		BusinessLines:  p.BusinessLines,
		EffectiveDate:  p.EffectiveDate,
		ExpirationDate: p.ExpirationDate,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to send policy created email")
		return err
	}

	log.Info().Msg("Successfully sent policy created email")
	return nil
}
