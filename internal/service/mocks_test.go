package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"grievance/internal/db"
	"grievance/internal/model"
	"grievance/internal/triage"
)

// fakeOTPStore is an in-memory OTPStore with a controllable clock so
// tests can move past the expiry window.
type fakeOTPStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []model.OTPRecord
	now    func() time.Time

	failCreate bool
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{now: time.Now}
}

func (s *fakeOTPStore) CreateOTP(ctx context.Context, key, code string, expiresAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return 0, fmt.Errorf("storage down")
	}
	s.nextID++
	s.rows = append(s.rows, model.OTPRecord{
		ID:        s.nextID,
		Key:       key,
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	})
	return s.nextID, nil
}

func (s *fakeOTPStore) FindValidOTP(ctx context.Context, key, code string) (model.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []model.OTPRecord
	for _, r := range s.rows {
		if r.Key == key && r.Code == code && !r.Verified && r.ExpiresAt.After(s.now()) {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return model.OTPRecord{}, model.ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches[0], nil
}

func (s *fakeOTPStore) MarkOTPVerified(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Verified = true
			return nil
		}
	}
	return model.ErrNotFound
}

func (s *fakeOTPStore) DeleteOTPs(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	for _, r := range s.rows {
		if r.Key != key {
			kept = append(kept, r)
		}
	}
	s.rows = kept
	return nil
}

func (s *fakeOTPStore) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.rows {
		if r.Key == key {
			n++
		}
	}
	return n
}

func (s *fakeOTPStore) latestCode(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := ""
	var latest time.Time
	for _, r := range s.rows {
		if r.Key == key && !r.CreatedAt.Before(latest) {
			latest = r.CreatedAt
			code = r.Code
		}
	}
	return code
}

// fakeMailer records every send and can be told to fail.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("relay refused: %w", model.ErrDelivery)
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *fakeMailer) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, s := range m.sent {
		out[i] = s.Subject
	}
	return out
}

// fakeComplaintStore is an in-memory ComplaintStore.
type fakeComplaintStore struct {
	mu         sync.Mutex
	complaints map[string]model.Complaint
	approvals  []model.Approval

	failResolve  bool
	failApproval bool
}

func newFakeComplaintStore() *fakeComplaintStore {
	return &fakeComplaintStore{complaints: make(map[string]model.Complaint)}
}

func (s *fakeComplaintStore) CreateComplaint(ctx context.Context, p db.CreateComplaintParams) (model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := model.Complaint{
		ComplaintID:   p.ComplaintID,
		ServiceType:   p.ServiceType,
		ComplaintType: p.ComplaintType,
		ComplaintText: p.ComplaintText,
		Email:         p.Email,
		Status:        model.StatusPendingVerification,
		CreatedAt:     time.Now(),
	}
	s.complaints[p.ComplaintID] = c
	return c, nil
}

func (s *fakeComplaintStore) GetComplaintByID(ctx context.Context, complaintID string) (model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[complaintID]
	if !ok {
		return model.Complaint{}, model.ErrNotFound
	}
	return c, nil
}

func (s *fakeComplaintStore) ActivateComplaint(ctx context.Context, complaintID string) (model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[complaintID]
	if !ok {
		return model.Complaint{}, model.ErrNotFound
	}
	now := time.Now()
	c.EmailVerified = true
	c.Status = model.StatusActive
	c.VerifiedAt = &now
	s.complaints[complaintID] = c
	return c, nil
}

func (s *fakeComplaintStore) SaveTriage(ctx context.Context, complaintID string, v model.Verdict) (model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[complaintID]
	if !ok {
		return model.Complaint{}, model.ErrNotFound
	}
	priority := v.PriorityLevel
	c.AICategory = &v.AICategory
	c.Department = &v.Department
	c.SentimentScore = &v.SentimentScore
	c.PriorityLevel = &priority
	c.AutoResponse = &v.AutoResponse
	s.complaints[complaintID] = c
	return c, nil
}

func (s *fakeComplaintStore) UpdateComplaintStatus(ctx context.Context, complaintID string, status model.Status) (model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[complaintID]
	if !ok {
		return model.Complaint{}, model.ErrNotFound
	}
	c.Status = status
	if status == model.StatusResolved {
		now := time.Now()
		c.ResolvedAt = &now
	} else {
		c.ResolvedAt = nil
	}
	s.complaints[complaintID] = c
	return c, nil
}

func (s *fakeComplaintStore) ResolveComplaint(ctx context.Context, complaintID, finalResponse string) (model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failResolve {
		return model.Complaint{}, fmt.Errorf("storage down")
	}
	c, ok := s.complaints[complaintID]
	if !ok {
		return model.Complaint{}, model.ErrNotFound
	}
	now := time.Now()
	c.FinalResponse = &finalResponse
	c.Status = model.StatusResolved
	c.ResolvedAt = &now
	s.complaints[complaintID] = c
	return c, nil
}

func (s *fakeComplaintStore) ListComplaints(ctx context.Context) ([]model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Complaint, 0, len(s.complaints))
	for _, c := range s.complaints {
		if c.Status == model.StatusPendingVerification {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := model.PriorityRank(out[i].PriorityLevel), model.PriorityRank(out[j].PriorityLevel)
		if ri != rj {
			return ri < rj
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *fakeComplaintStore) CreateApproval(ctx context.Context, p db.CreateApprovalParams) (model.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failApproval {
		return model.Approval{}, fmt.Errorf("storage down")
	}
	a := model.Approval{
		ID:            p.ID,
		ComplaintID:   p.ComplaintID,
		AIResponse:    p.AIResponse,
		FinalResponse: p.FinalResponse,
		ApprovedBy:    &p.ApprovedBy,
		ApprovedAt:    time.Now(),
	}
	s.approvals = append(s.approvals, a)
	return a, nil
}

// fakeAnalyzer returns a fixed verdict or a fixed error.
type fakeAnalyzer struct {
	verdict model.Verdict
	err     error
	calls   int
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, in triage.Input) (model.Verdict, error) {
	a.calls++
	if a.err != nil {
		return model.Verdict{}, a.err
	}
	return a.verdict, nil
}

// fakeBus records published events.
type fakeBus struct {
	mu     sync.Mutex
	events []map[string]interface{}
}

func (b *fakeBus) PublishComplaint(complaintID string, event map[string]interface{}) error {
	return b.record(event)
}

func (b *fakeBus) PublishDashboard(event map[string]interface{}) error {
	return b.record(event)
}

func (b *fakeBus) record(event map[string]interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

// fakeJobClient records enqueued jobs.
type fakeJobClient struct {
	mu          sync.Mutex
	statusMails []StatusEmailPayload
	purges      []OTPPurgePayload
	fail        bool
}

func (c *fakeJobClient) EnqueueStatusEmail(complaintID, subject string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return fmt.Errorf("redis down")
	}
	c.statusMails = append(c.statusMails, StatusEmailPayload{ComplaintID: complaintID, Subject: subject})
	return nil
}

func (c *fakeJobClient) ScheduleOTPPurge(kind, key string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return fmt.Errorf("redis down")
	}
	c.purges = append(c.purges, OTPPurgePayload{Kind: kind, Key: key})
	return nil
}
