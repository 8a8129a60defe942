package model

import "errors"

// Error taxonomy. Services wrap these with fmt.Errorf("...: %w", ...) so
// the API layer can map them to HTTP codes with errors.Is.
var (
	// ErrValidation is returned for missing or malformed caller input,
	// before any write happens.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced complaint, officer or
	// OTP record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOrExpiredCode is returned when an OTP lookup fails the
	// matching/unverified/unexpired predicate.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired OTP")

	// ErrForbidden is returned when the tracking-flow email does not
	// match the complaint's stored email. The message is deliberately
	// vague to avoid leaking which field mismatched.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidStatus is returned when an officer submits a status
	// outside the closed enum, or targets a complaint that has not
	// passed email verification.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrDelivery is returned when the notification collaborator cannot
	// accept a message. Only the OTP issuance path surfaces it.
	ErrDelivery = errors.New("delivery failed")
)
