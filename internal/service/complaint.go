package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grievance/internal/db"
	"grievance/internal/mailer"
	"grievance/internal/model"
	"grievance/internal/triage"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const defaultTriageTimeout = 20 * time.Second

// ComplaintStore persists complaint entities and their narrow update
// operations. *db.Queries is the production implementation.
type ComplaintStore interface {
	CreateComplaint(ctx context.Context, p db.CreateComplaintParams) (model.Complaint, error)
	GetComplaintByID(ctx context.Context, complaintID string) (model.Complaint, error)
	ActivateComplaint(ctx context.Context, complaintID string) (model.Complaint, error)
	SaveTriage(ctx context.Context, complaintID string, v model.Verdict) (model.Complaint, error)
	UpdateComplaintStatus(ctx context.Context, complaintID string, status model.Status) (model.Complaint, error)
	ResolveComplaint(ctx context.Context, complaintID, finalResponse string) (model.Complaint, error)
	ListComplaints(ctx context.Context) ([]model.Complaint, error)
	CreateApproval(ctx context.Context, p db.CreateApprovalParams) (model.Approval, error)
}

var _ ComplaintStore = (*db.Queries)(nil)

// EventBus publishes dashboard and per-complaint events, best effort.
type EventBus interface {
	PublishComplaint(complaintID string, event map[string]interface{}) error
	PublishDashboard(event map[string]interface{}) error
}

// ComplaintService owns the complaint status state machine and the side
// effects attached to its transitions.
type ComplaintService struct {
	store         ComplaintStore
	analyzer      triage.Analyzer
	mailer        mailer.Mailer
	bus           EventBus
	jobs          JobClient
	log           *zap.Logger
	triageTimeout time.Duration
}

func NewComplaintService(store ComplaintStore, analyzer triage.Analyzer, m mailer.Mailer, bus EventBus, log *zap.Logger) *ComplaintService {
	return &ComplaintService{
		store:         store,
		analyzer:      analyzer,
		mailer:        m,
		bus:           bus,
		log:           log,
		triageTimeout: defaultTriageTimeout,
	}
}

// SetJobClient enables detached email delivery through the job queue.
func (s *ComplaintService) SetJobClient(client JobClient) {
	s.jobs = client
}

// SetTriageTimeout overrides the AI call deadline, used by tests.
func (s *ComplaintService) SetTriageTimeout(d time.Duration) {
	s.triageTimeout = d
}

type CreateComplaintInput struct {
	ServiceType    string     `json:"serviceType"`
	ComplaintType  string     `json:"complaintType"`
	ComplaintText  *string    `json:"complaintText,omitempty"`
	Email          string     `json:"email"`
	TrackingNumber *string    `json:"trackingNumber,omitempty"`
	IncidentDate   *time.Time `json:"incidentDate,omitempty"`
	City           *string    `json:"city,omitempty"`
	Pincode        *string    `json:"pincode,omitempty"`
}

// Create validates the mandatory fields, generates the external
// identifier and persists the complaint awaiting email verification.
// OTP issuance is orchestrated by the caller.
func (s *ComplaintService) Create(ctx context.Context, input CreateComplaintInput) (model.Complaint, error) {
	if input.ServiceType == "" || input.ComplaintType == "" || input.Email == "" {
		return model.Complaint{}, fmt.Errorf("serviceType, complaintType and email are required: %w", model.ErrValidation)
	}

	complaintID := model.NewComplaintID()

	c, err := s.store.CreateComplaint(ctx, db.CreateComplaintParams{
		ComplaintID:    complaintID,
		ServiceType:    input.ServiceType,
		ComplaintType:  input.ComplaintType,
		ComplaintText:  emptyToNil(input.ComplaintText),
		Email:          input.Email,
		TrackingNumber: emptyToNil(input.TrackingNumber),
		IncidentDate:   input.IncidentDate,
		City:           emptyToNil(input.City),
		Pincode:        emptyToNil(input.Pincode),
	})
	if err != nil {
		return model.Complaint{}, fmt.Errorf("failed to create complaint: %w", err)
	}

	return c, nil
}

// Get returns a single complaint.
func (s *ComplaintService) Get(ctx context.Context, complaintID string) (model.Complaint, error) {
	c, err := s.store.GetComplaintByID(ctx, complaintID)
	if err != nil {
		if isNotFound(err) {
			return model.Complaint{}, fmt.Errorf("complaint %s: %w", complaintID, model.ErrNotFound)
		}
		return model.Complaint{}, fmt.Errorf("failed to get complaint: %w", err)
	}
	return c, nil
}

// List returns the officer dashboard listing: pending-verification
// complaints excluded, most urgent priority first, newest first within
// a band.
func (s *ComplaintService) List(ctx context.Context) ([]model.Complaint, error) {
	return s.store.ListComplaints(ctx)
}

// Activate flips the complaint to ACTIVE after a successful OTP
// verification. Re-activating an already active complaint is harmless.
func (s *ComplaintService) Activate(ctx context.Context, complaintID string) (model.Complaint, error) {
	c, err := s.store.ActivateComplaint(ctx, complaintID)
	if err != nil {
		if isNotFound(err) {
			return model.Complaint{}, fmt.Errorf("complaint %s: %w", complaintID, model.ErrNotFound)
		}
		return model.Complaint{}, fmt.Errorf("failed to activate complaint: %w", err)
	}

	if s.bus != nil {
		_ = s.bus.PublishDashboard(map[string]interface{}{
			"type":        "complaint.activated",
			"complaintId": complaintID,
		})
	}

	return c, nil
}

// RunTriageAndStore calls the analyzer with a deadline and persists the
// verdict. Any analyzer failure falls back to the fixed verdict; the
// complaint never ends up ACTIVE without a priority and auto-response.
func (s *ComplaintService) RunTriageAndStore(ctx context.Context, complaintID string) (model.Complaint, error) {
	c, err := s.Get(ctx, complaintID)
	if err != nil {
		return model.Complaint{}, err
	}

	text := ""
	if c.ComplaintText != nil {
		text = *c.ComplaintText
	}

	verdict := triage.Fallback(c.ServiceType)
	if s.analyzer != nil {
		triageCtx, cancel := context.WithTimeout(ctx, s.triageTimeout)
		v, err := s.analyzer.Analyze(triageCtx, triage.Input{
			ServiceType:   c.ServiceType,
			ComplaintType: c.ComplaintType,
			ComplaintText: text,
		})
		cancel()
		if err != nil {
			s.log.Warn("AI triage failed, applying fallback verdict",
				zap.String("complaint_id", complaintID),
				zap.Error(err),
			)
		} else {
			verdict = v
		}
	}

	updated, err := s.store.SaveTriage(ctx, complaintID, verdict)
	if err != nil {
		return model.Complaint{}, fmt.Errorf("failed to store triage verdict: %w", err)
	}

	if s.bus != nil {
		_ = s.bus.PublishDashboard(map[string]interface{}{
			"type":        "complaint.triaged",
			"complaintId": complaintID,
			"priority":    string(verdict.PriorityLevel),
			"department":  verdict.Department,
		})
	}

	return updated, nil
}

// TransitionTo moves a complaint to an officer-selected status. The
// status write commits before any notification is attempted; the email
// is detached and its failure never reverts the transition.
func (s *ComplaintService) TransitionTo(ctx context.Context, complaintID string, status model.Status) (model.Complaint, error) {
	if !model.ValidOfficerStatus(status) {
		return model.Complaint{}, fmt.Errorf("status %q: %w", status, model.ErrInvalidStatus)
	}

	current, err := s.Get(ctx, complaintID)
	if err != nil {
		return model.Complaint{}, err
	}
	if current.Status == model.StatusPendingVerification {
		return model.Complaint{}, fmt.Errorf("complaint %s has not passed email verification: %w", complaintID, model.ErrInvalidStatus)
	}

	updated, err := s.store.UpdateComplaintStatus(ctx, complaintID, status)
	if err != nil {
		return model.Complaint{}, fmt.Errorf("failed to update status: %w", err)
	}

	switch status {
	case model.StatusInProgress:
		s.notifyDetached(updated, mailer.SubjectInProgress, mailer.InProgressBody(updated))
	case model.StatusResolved:
		s.notifyDetached(updated, mailer.SubjectResolved, mailer.ResolvedBody(updated))
	}

	if s.bus != nil {
		_ = s.bus.PublishDashboard(map[string]interface{}{
			"type":        "complaint.status_changed",
			"complaintId": complaintID,
			"status":      string(status),
		})
		_ = s.bus.PublishComplaint(complaintID, map[string]interface{}{
			"type":   "complaint.status_changed",
			"status": string(status),
		})
	}

	return updated, nil
}

// Resolve stores the officer's final response and closes the complaint.
// The resolution write is the source of truth; the notification is
// best effort and a failed send still returns the RESOLVED record.
func (s *ComplaintService) Resolve(ctx context.Context, complaintID, finalResponse string, officerID int64) (model.Complaint, error) {
	if len(strings.TrimSpace(finalResponse)) < 10 {
		return model.Complaint{}, fmt.Errorf("final response must be at least 10 characters: %w", model.ErrValidation)
	}

	current, err := s.Get(ctx, complaintID)
	if err != nil {
		return model.Complaint{}, err
	}
	if current.Status == model.StatusPendingVerification {
		return model.Complaint{}, fmt.Errorf("complaint %s has not passed email verification: %w", complaintID, model.ErrInvalidStatus)
	}

	updated, err := s.store.ResolveComplaint(ctx, complaintID, finalResponse)
	if err != nil {
		return model.Complaint{}, fmt.Errorf("failed to resolve complaint: %w", err)
	}

	if _, err := s.store.CreateApproval(ctx, db.CreateApprovalParams{
		ID:            ulid.Make().String(),
		ComplaintID:   complaintID,
		AIResponse:    current.AutoResponse,
		FinalResponse: finalResponse,
		ApprovedBy:    officerID,
	}); err != nil {
		// The complaint row already reflects the resolution; the audit
		// row failing is not a reason to report the resolve as failed.
		s.log.Error("failed to record approval",
			zap.String("complaint_id", complaintID),
			zap.Error(err),
		)
	}

	s.notifyDetached(updated, mailer.SubjectResolved, mailer.ResolvedBody(updated))

	if s.bus != nil {
		_ = s.bus.PublishDashboard(map[string]interface{}{
			"type":        "complaint.resolved",
			"complaintId": complaintID,
		})
		_ = s.bus.PublishComplaint(complaintID, map[string]interface{}{
			"type": "complaint.resolved",
		})
	}

	return updated, nil
}

// notifyDetached delivers a status email without blocking the request's
// result path. With a job client the send goes through the queue;
// otherwise it is attempted inline with errors routed to the log only.
func (s *ComplaintService) notifyDetached(c model.Complaint, subject, body string) {
	if s.jobs != nil {
		if err := s.jobs.EnqueueStatusEmail(c.ComplaintID, subject); err != nil {
			s.log.Error("failed to enqueue status email",
				zap.String("complaint_id", c.ComplaintID),
				zap.Error(err),
			)
		}
		return
	}

	if s.mailer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.mailer.Send(ctx, c.Email, subject, body); err != nil {
		s.log.Error("status email dispatch failed",
			zap.String("complaint_id", c.ComplaintID),
			zap.Error(err),
		)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
