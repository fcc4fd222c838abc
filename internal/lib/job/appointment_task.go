package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TaskAppointmentConfirmation is the job type name stored in Redis.
const TaskAppointmentConfirmation = "email:appointment_confirmation"

// AppointmentConfirmationPayload is the JSON payload of a confirmation task.
type AppointmentConfirmationPayload struct {
	To            string    `json:"to"`
	AppointmentID string    `json:"appointment_id"`
	HospitalName  string    `json:"hospital_name"`
	HospitalTel   string    `json:"hospital_tel"`
	ApptDate      time.Time `json:"appt_date"`
}

// NewAppointmentConfirmationTask builds the task: three retries on the
// default queue, killed after 30 seconds.
func NewAppointmentConfirmationTask(p AppointmentConfirmationPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskAppointmentConfirmation,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}

// EnqueueAppointmentConfirmation queues a confirmation email.
func (j *JobService) EnqueueAppointmentConfirmation(ctx context.Context, p AppointmentConfirmationPayload) error {
	task, err := NewAppointmentConfirmationTask(p)
	if err != nil {
		return fmt.Errorf("failed to build appointment confirmation task: %w", err)
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue appointment confirmation: %w", err)
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Str("appointment_id", p.AppointmentID).
		Msg("appointment confirmation enqueued")

	return nil
}
