package service

import (
	"context"
	"testing"
	"time"

	"grievance/internal/mailer"
	"grievance/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOTPService(store *fakeOTPStore, m *fakeMailer) *OTPService {
	return NewOTPService(store, m, "complaint", zap.NewNop())
}

// codeSequence replaces the random generator with a fixed sequence so
// tests can rely on the exact codes issued.
func codeSequence(codes ...string) func() (string, error) {
	return func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
}

func TestOTPIssueAndVerify(t *testing.T) {
	store := newFakeOTPStore()
	m := &fakeMailer{}
	svc := newTestOTPService(store, m)

	err := svc.Issue(context.Background(), "IP-CMP-000001", "a@example.com", mailer.SubjectVerificationOTP, mailer.OTPBody)
	require.NoError(t, err)

	code := store.latestCode("IP-CMP-000001")
	require.Len(t, code, 6)
	assert.Contains(t, m.sent[0].Body, code)

	err = svc.Verify(context.Background(), "IP-CMP-000001", code)
	assert.NoError(t, err)
}

func TestOTPVerify_WrongCode(t *testing.T) {
	store := newFakeOTPStore()
	svc := newTestOTPService(store, &fakeMailer{})

	require.NoError(t, svc.Issue(context.Background(), "IP-CMP-000002", "a@example.com", mailer.SubjectVerificationOTP, mailer.OTPBody))

	err := svc.Verify(context.Background(), "IP-CMP-000002", "000000")
	assert.ErrorIs(t, err, model.ErrInvalidOrExpiredCode)
}

func TestOTPVerify_Expired(t *testing.T) {
	store := newFakeOTPStore()
	svc := newTestOTPService(store, &fakeMailer{})

	require.NoError(t, svc.Issue(context.Background(), "IP-CMP-000003", "a@example.com", mailer.SubjectVerificationOTP, mailer.OTPBody))
	code := store.latestCode("IP-CMP-000003")

	// Move the store clock past the validity window.
	store.now = func() time.Time { return time.Now().Add(OTPTTL + time.Minute) }

	err := svc.Verify(context.Background(), "IP-CMP-000003", code)
	assert.ErrorIs(t, err, model.ErrInvalidOrExpiredCode)
}

func TestOTPVerify_SecondUseRejected(t *testing.T) {
	store := newFakeOTPStore()
	svc := newTestOTPService(store, &fakeMailer{})

	require.NoError(t, svc.Issue(context.Background(), "IP-CMP-000004", "a@example.com", mailer.SubjectVerificationOTP, mailer.OTPBody))
	code := store.latestCode("IP-CMP-000004")

	require.NoError(t, svc.Verify(context.Background(), "IP-CMP-000004", code))

	err := svc.Verify(context.Background(), "IP-CMP-000004", code)
	assert.ErrorIs(t, err, model.ErrInvalidOrExpiredCode)
}

func TestOTPResend_InvalidatesOldCodes(t *testing.T) {
	store := newFakeOTPStore()
	svc := newTestOTPService(store, &fakeMailer{})
	svc.genCode = codeSequence("111111", "222222")

	require.NoError(t, svc.Issue(context.Background(), "IP-CMP-000005", "a@example.com", mailer.SubjectVerificationOTP, mailer.OTPBody))

	require.NoError(t, svc.Resend(context.Background(), "IP-CMP-000005", "a@example.com", mailer.SubjectResendOTP, mailer.OTPBody))
	assert.Equal(t, 1, store.count("IP-CMP-000005"))

	err := svc.Verify(context.Background(), "IP-CMP-000005", "111111")
	assert.ErrorIs(t, err, model.ErrInvalidOrExpiredCode)
	assert.NoError(t, svc.Verify(context.Background(), "IP-CMP-000005", "222222"))
}

func TestOTPIssue_CoexistingCodesMostRecentWins(t *testing.T) {
	store := newFakeOTPStore()
	svc := newTestOTPService(store, &fakeMailer{})
	svc.genCode = codeSequence("111111", "111111")

	// Two sends without a resend leave two unverified rows for the key,
	// here with identical codes so the lookup has to pick by recency.
	base := time.Now()
	store.now = func() time.Time { return base }
	require.NoError(t, svc.Issue(context.Background(), "IP-CMP-000010", "a@example.com", mailer.SubjectVerificationOTP, mailer.OTPBody))
	store.now = func() time.Time { return base.Add(30 * time.Second) }
	require.NoError(t, svc.Issue(context.Background(), "IP-CMP-000010", "a@example.com", mailer.SubjectVerificationOTP, mailer.OTPBody))
	require.Equal(t, 2, store.count("IP-CMP-000010"))

	require.NoError(t, svc.Verify(context.Background(), "IP-CMP-000010", "111111"))

	// The newer row was consumed; the older one is untouched.
	assert.False(t, store.rows[0].Verified)
	assert.True(t, store.rows[1].Verified)
}

func TestOTPIssue_DeliveryFailureKeepsCode(t *testing.T) {
	store := newFakeOTPStore()
	m := &fakeMailer{fail: true}
	svc := newTestOTPService(store, m)

	err := svc.Issue(context.Background(), "IP-CMP-000006", "a@example.com", mailer.SubjectVerificationOTP, mailer.OTPBody)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDelivery)

	// The persisted code is still verifiable despite the failed send.
	code := store.latestCode("IP-CMP-000006")
	require.NotEmpty(t, code)
	assert.NoError(t, svc.Verify(context.Background(), "IP-CMP-000006", code))
}

func TestOTPIssue_PersistFailure(t *testing.T) {
	store := newFakeOTPStore()
	store.failCreate = true
	m := &fakeMailer{}
	svc := newTestOTPService(store, m)

	err := svc.Issue(context.Background(), "IP-CMP-000007", "a@example.com", mailer.SubjectVerificationOTP, mailer.OTPBody)
	require.Error(t, err)
	// Nothing was mailed: no code exists that could ever verify.
	assert.Empty(t, m.sent)
}

func TestOTPIssue_SchedulesPurge(t *testing.T) {
	store := newFakeOTPStore()
	svc := newTestOTPService(store, &fakeMailer{})
	jobs := &fakeJobClient{}
	svc.SetJobClient(jobs)

	require.NoError(t, svc.Issue(context.Background(), "IP-CMP-000008", "a@example.com", mailer.SubjectVerificationOTP, mailer.OTPBody))

	require.Len(t, jobs.purges, 1)
	assert.Equal(t, "complaint", jobs.purges[0].Kind)
	assert.Equal(t, "IP-CMP-000008", jobs.purges[0].Key)
}

func TestOTPCleanup(t *testing.T) {
	store := newFakeOTPStore()
	svc := newTestOTPService(store, &fakeMailer{})

	require.NoError(t, svc.Issue(context.Background(), "IP-CMP-000009", "a@example.com", mailer.SubjectVerificationOTP, mailer.OTPBody))
	require.NoError(t, svc.Cleanup(context.Background(), "IP-CMP-000009"))
	assert.Equal(t, 0, store.count("IP-CMP-000009"))
}
