package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"grievance/internal/db"
	"grievance/internal/mailer"
	"grievance/internal/service"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type JobServer struct {
	server *asynq.Server
	db     *db.Pool
	mailer mailer.Mailer
	log    *zap.Logger
}

func NewJobServer(redisAddr string, dbPool *db.Pool, m mailer.Mailer, log *zap.Logger) *JobServer {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	return &JobServer{
		server: server,
		db:     dbPool,
		mailer: m,
		log:    log,
	}
}

func (js *JobServer) Start() error {
	mux := asynq.NewServeMux()

	// Register job handlers
	mux.HandleFunc(service.TaskStatusEmail, js.handleStatusEmail)
	mux.HandleFunc(service.TaskOTPPurge, js.handleOTPPurge)

	return js.server.Start(mux)
}

func (js *JobServer) Stop() {
	js.server.Shutdown()
}

// Job handlers

func (js *JobServer) handleStatusEmail(ctx context.Context, t *asynq.Task) error {
	var p service.StatusEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	c, err := js.db.Queries.GetComplaintByID(ctx, p.ComplaintID)
	if err != nil {
		return fmt.Errorf("failed to get complaint: %w", err)
	}

	var body string
	switch p.Subject {
	case mailer.SubjectInProgress:
		body = mailer.InProgressBody(c)
	case mailer.SubjectResolved:
		body = mailer.ResolvedBody(c)
	default:
		return fmt.Errorf("unknown status email subject %q", p.Subject)
	}

	if err := js.mailer.Send(ctx, c.Email, p.Subject, body); err != nil {
		return fmt.Errorf("failed to send status email: %w", err)
	}

	js.log.Info("Status email sent",
		zap.String("complaint_id", p.ComplaintID),
		zap.String("subject", p.Subject))
	return nil
}

func (js *JobServer) handleOTPPurge(ctx context.Context, t *asynq.Task) error {
	var p service.OTPPurgePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	var (
		removed int64
		err     error
	)
	switch p.Kind {
	case "registration":
		removed, err = db.RegistrationOTPs{Queries: js.db.Queries}.DeleteExpiredOTPs(ctx, p.Key)
	default:
		removed, err = db.ComplaintOTPs{Queries: js.db.Queries}.DeleteExpiredOTPs(ctx, p.Key)
	}
	if err != nil {
		return fmt.Errorf("failed to purge expired OTPs: %w", err)
	}

	if removed > 0 {
		js.log.Info("Expired OTPs purged",
			zap.String("kind", p.Kind),
			zap.String("key", p.Key),
			zap.Int64("removed", removed))
	}
	return nil
}
