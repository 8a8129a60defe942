package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names shared between the enqueuing side and the worker.
const (
	TaskStatusEmail = "email:status"
	TaskOTPPurge    = "otp:purge"
)

// StatusEmailPayload carries a detached status notification. The worker
// reloads the complaint so the email reflects the committed row, not
// the in-flight one.
type StatusEmailPayload struct {
	ComplaintID string `json:"complaint_id"`
	Subject     string `json:"subject"`
}

// OTPPurgePayload identifies the key whose expired codes should be
// removed once the validity window has passed.
type OTPPurgePayload struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
}

// JobClient enqueues background work. Nil-able: services fall back to
// inline best-effort delivery when no queue is configured.
type JobClient interface {
	EnqueueStatusEmail(complaintID, subject string) error
	ScheduleOTPPurge(kind, key string, at time.Time) error
}

// AsynqJobClient is the production JobClient backed by Redis.
type AsynqJobClient struct {
	client *asynq.Client
}

func NewAsynqJobClient(redisAddr string) *AsynqJobClient {
	return &AsynqJobClient{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
	}
}

func (c *AsynqJobClient) EnqueueStatusEmail(complaintID, subject string) error {
	payload, err := json.Marshal(StatusEmailPayload{ComplaintID: complaintID, Subject: subject})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	_, err = c.client.Enqueue(
		asynq.NewTask(TaskStatusEmail, payload),
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue status email: %w", err)
	}
	return nil
}

func (c *AsynqJobClient) ScheduleOTPPurge(kind, key string, at time.Time) error {
	payload, err := json.Marshal(OTPPurgePayload{Kind: kind, Key: key})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	// A minute of slack so the purge never races the expiry check.
	_, err = c.client.Enqueue(
		asynq.NewTask(TaskOTPPurge, payload),
		asynq.ProcessAt(at.Add(time.Minute)),
		asynq.MaxRetry(2),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule OTP purge: %w", err)
	}
	return nil
}

func (c *AsynqJobClient) Close() error {
	return c.client.Close()
}
