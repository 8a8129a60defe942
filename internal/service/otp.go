package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"grievance/internal/mailer"
	"grievance/internal/model"

	"go.uber.org/zap"
)

// OTPTTL is the validity window of every issued code.
const OTPTTL = 5 * time.Minute

// OTPStore persists one-time codes for a single key space. Two
// implementations exist: complaint-keyed and email-keyed.
// FindValidOTP must return model.ErrNotFound when no row passes the
// matching/unverified/unexpired predicate, selecting the most recently
// created row when several could match.
type OTPStore interface {
	CreateOTP(ctx context.Context, key, code string, expiresAt time.Time) (int64, error)
	FindValidOTP(ctx context.Context, key, code string) (model.OTPRecord, error)
	MarkOTPVerified(ctx context.Context, id int64) error
	DeleteOTPs(ctx context.Context, key string) error
}

// OTPService issues, delivers, validates and retires one-time codes.
// The downstream effects of a successful verification belong to the
// caller; this service only answers "did the citizen prove control of
// the mailbox".
type OTPService struct {
	store   OTPStore
	mailer  mailer.Mailer
	jobs    JobClient
	kind    string // "complaint" or "registration", for purge scheduling
	genCode func() (string, error)
	log     *zap.Logger
}

func NewOTPService(store OTPStore, m mailer.Mailer, kind string, log *zap.Logger) *OTPService {
	return &OTPService{store: store, mailer: m, kind: kind, genCode: generateCode, log: log}
}

// SetJobClient enables scheduling of expired-code purges.
func (s *OTPService) SetJobClient(client JobClient) {
	s.jobs = client
}

// Issue generates a fresh code, persists it with a 5 minute expiry and
// mails it to the destination. Persistence happens first: a failed send
// surfaces as a delivery error but leaves the code valid, so a citizen
// whose mail arrived late can still verify.
func (s *OTPService) Issue(ctx context.Context, key, destination, subject string, body func(code string) string) error {
	code, err := s.genCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	expiresAt := time.Now().Add(OTPTTL)

	if _, err := s.store.CreateOTP(ctx, key, code, expiresAt); err != nil {
		return fmt.Errorf("failed to persist OTP: %w", err)
	}

	if s.jobs != nil {
		_ = s.jobs.ScheduleOTPPurge(s.kind, key, expiresAt)
	}

	if err := s.mailer.Send(ctx, destination, subject, body(code)); err != nil {
		s.log.Error("OTP email dispatch failed",
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("OTP issued but not delivered: %w", err)
	}

	return nil
}

// Resend invalidates every code previously issued for key, then issues
// a fresh one. Safe to call repeatedly; only the latest code verifies.
func (s *OTPService) Resend(ctx context.Context, key, destination, subject string, body func(code string) string) error {
	if err := s.store.DeleteOTPs(ctx, key); err != nil {
		return fmt.Errorf("failed to delete old OTPs: %w", err)
	}
	return s.Issue(ctx, key, destination, subject, body)
}

// Verify checks a submitted code against the most recently created
// unverified, unexpired record and marks it verified.
func (s *OTPService) Verify(ctx context.Context, key, code string) error {
	rec, err := s.store.FindValidOTP(ctx, key, code)
	if err != nil {
		if isNotFound(err) {
			return model.ErrInvalidOrExpiredCode
		}
		return fmt.Errorf("OTP lookup failed: %w", err)
	}

	if err := s.store.MarkOTPVerified(ctx, rec.ID); err != nil {
		return fmt.Errorf("failed to mark OTP verified: %w", err)
	}
	return nil
}

// Cleanup removes every record for key, called once a verified flow has
// finished its downstream work.
func (s *OTPService) Cleanup(ctx context.Context, key string) error {
	return s.store.DeleteOTPs(ctx, key)
}

// generateCode returns a uniformly random 6-digit code in
// [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
