package service

import (
	"context"
	"fmt"

	"grievance/internal/mailer"
	"grievance/internal/model"

	"go.uber.org/zap"
)

// AccessGrantIssuer mints short-lived read tokens for a verified
// tracking session. internal/auth provides the implementation.
type AccessGrantIssuer interface {
	IssueAccessGrant(complaintID string) (string, error)
}

// TrackingService lets a citizen who already filed a complaint prove
// mailbox control again and read the complaint's current state. A
// tracking verification never re-activates or re-triages anything.
type TrackingService struct {
	complaints *ComplaintService
	otps       *OTPService
	grants     AccessGrantIssuer
	log        *zap.Logger
}

func NewTrackingService(complaints *ComplaintService, otps *OTPService, grants AccessGrantIssuer, log *zap.Logger) *TrackingService {
	return &TrackingService{complaints: complaints, otps: otps, grants: grants, log: log}
}

// SendOTP issues a tracking code after checking that the supplied email
// matches the one stored on the complaint. A mismatch is a forbidden
// request, not a not-found, so a guesser learns the ID exists but gets
// nothing else.
func (s *TrackingService) SendOTP(ctx context.Context, complaintID, email string) error {
	if email == "" {
		return fmt.Errorf("email is required: %w", model.ErrValidation)
	}

	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return err
	}
	if c.Email != email {
		return fmt.Errorf("email does not match complaint records: %w", model.ErrForbidden)
	}

	// Outstanding codes are dropped first so only the latest one works.
	return s.otps.Resend(ctx, complaintID, c.Email, mailer.SubjectTrackingOTP, mailer.TrackingOTPBody)
}

// VerifyOTP validates the tracking code and returns the complaint plus
// a short-lived access grant for follow-up reads.
func (s *TrackingService) VerifyOTP(ctx context.Context, complaintID, code string) (model.Complaint, string, error) {
	if err := s.otps.Verify(ctx, complaintID, code); err != nil {
		return model.Complaint{}, "", err
	}

	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return model.Complaint{}, "", err
	}

	token := ""
	if s.grants != nil {
		token, err = s.grants.IssueAccessGrant(complaintID)
		if err != nil {
			return model.Complaint{}, "", fmt.Errorf("failed to issue access grant: %w", err)
		}
	}

	if err := s.otps.Cleanup(ctx, complaintID); err != nil {
		s.log.Warn("OTP cleanup failed",
			zap.String("complaint_id", complaintID),
			zap.Error(err),
		)
	}

	return c, token, nil
}
