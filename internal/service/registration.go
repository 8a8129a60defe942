package service

import (
	"context"
	"fmt"

	"grievance/internal/mailer"
	"grievance/internal/model"

	"go.uber.org/zap"
)

// ConfirmationService runs the complaint-first intake flow: the
// complaint row already exists in PENDING_EMAIL_VERIFICATION and the
// citizen proves mailbox control before it activates.
type ConfirmationService struct {
	complaints *ComplaintService
	otps       *OTPService
	mailer     mailer.Mailer
	log        *zap.Logger
}

func NewConfirmationService(complaints *ComplaintService, otps *OTPService, m mailer.Mailer, log *zap.Logger) *ConfirmationService {
	return &ConfirmationService{complaints: complaints, otps: otps, mailer: m, log: log}
}

// SendOTP issues a verification code to the email stored on the
// complaint. The client never supplies the destination address.
func (s *ConfirmationService) SendOTP(ctx context.Context, complaintID string) error {
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return err
	}
	return s.otps.Issue(ctx, complaintID, c.Email, mailer.SubjectVerificationOTP, mailer.OTPBody)
}

// ResendOTP invalidates every outstanding code for the complaint and
// issues a fresh one.
func (s *ConfirmationService) ResendOTP(ctx context.Context, complaintID string) error {
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return err
	}
	return s.otps.Resend(ctx, complaintID, c.Email, mailer.SubjectResendOTP, mailer.OTPBody)
}

// VerifyOTP validates the submitted code and, on success, activates the
// complaint, runs triage and sends the registration confirmation. The
// confirmation email is best effort; a failed send does not undo the
// activation.
func (s *ConfirmationService) VerifyOTP(ctx context.Context, complaintID, code string) (model.Complaint, error) {
	if err := s.otps.Verify(ctx, complaintID, code); err != nil {
		return model.Complaint{}, err
	}

	if _, err := s.complaints.Activate(ctx, complaintID); err != nil {
		return model.Complaint{}, err
	}

	c, err := s.complaints.RunTriageAndStore(ctx, complaintID)
	if err != nil {
		return model.Complaint{}, err
	}

	if err := s.mailer.Send(ctx, c.Email, mailer.SubjectRegistered, mailer.RegisteredBody(c)); err != nil {
		s.log.Error("registration confirmation email failed",
			zap.String("complaint_id", complaintID),
			zap.Error(err),
		)
	}

	if err := s.otps.Cleanup(ctx, complaintID); err != nil {
		s.log.Warn("OTP cleanup failed",
			zap.String("complaint_id", complaintID),
			zap.Error(err),
		)
	}

	return c, nil
}

// RegistrationService runs the email-first intake flow: the citizen
// verifies the mailbox before any complaint row exists, then the
// complaint is created already active.
type RegistrationService struct {
	complaints *ComplaintService
	otps       *OTPService
	mailer     mailer.Mailer
	log        *zap.Logger
}

func NewRegistrationService(complaints *ComplaintService, otps *OTPService, m mailer.Mailer, log *zap.Logger) *RegistrationService {
	return &RegistrationService{complaints: complaints, otps: otps, mailer: m, log: log}
}

// SendOTP issues a registration code to an email address that has no
// complaint attached yet.
func (s *RegistrationService) SendOTP(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("email is required: %w", model.ErrValidation)
	}
	return s.otps.Issue(ctx, email, email, mailer.SubjectRegistrationOTP, mailer.OTPBody)
}

// VerifyAndRegister validates the code and, on success, creates the
// complaint, activates it, runs triage and sends the confirmation. The
// input email must match the verified one.
func (s *RegistrationService) VerifyAndRegister(ctx context.Context, email, code string, input CreateComplaintInput) (model.Complaint, error) {
	if email == "" || input.Email != email {
		return model.Complaint{}, fmt.Errorf("email does not match the verified address: %w", model.ErrValidation)
	}

	if err := s.otps.Verify(ctx, email, code); err != nil {
		return model.Complaint{}, err
	}

	created, err := s.complaints.Create(ctx, input)
	if err != nil {
		return model.Complaint{}, err
	}

	if _, err := s.complaints.Activate(ctx, created.ComplaintID); err != nil {
		return model.Complaint{}, err
	}

	c, err := s.complaints.RunTriageAndStore(ctx, created.ComplaintID)
	if err != nil {
		return model.Complaint{}, err
	}

	if err := s.mailer.Send(ctx, c.Email, mailer.SubjectRegistered, mailer.RegisteredBody(c)); err != nil {
		s.log.Error("registration confirmation email failed",
			zap.String("complaint_id", c.ComplaintID),
			zap.Error(err),
		)
	}

	if err := s.otps.Cleanup(ctx, email); err != nil {
		s.log.Warn("OTP cleanup failed",
			zap.String("email", email),
			zap.Error(err),
		)
	}

	return c, nil
}
