package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/vacq/internal/lib/email"
	"github.com/hibiken/asynq"
)

// handleAppointmentConfirmationTask sends one confirmation email. Returning
// an error makes Asynq retry the task; a malformed payload is never retried.
func (j *JobService) handleAppointmentConfirmationTask(ctx context.Context, t *asynq.Task) error {
	var p AppointmentConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal appointment confirmation payload: %v: %w", err, asynq.SkipRetry)
	}

	logger := j.logger.With().
		Str("type", "appointment_confirmation").
		Str("appointment_id", p.AppointmentID).
		Logger()

	logger.Info().Msg("processing appointment confirmation task")

	err := j.mailer.SendAppointmentConfirmation(ctx, p.To, email.AppointmentDetails{
		AppointmentID: p.AppointmentID,
		HospitalName:  p.HospitalName,
		HospitalTel:   p.HospitalTel,
		ApptDate:      p.ApptDate,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to send appointment confirmation")
		return err
	}

	logger.Info().Msg("sent appointment confirmation")
	return nil
}
