package model

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Status represents complaint status
type Status string

const (
	StatusPendingVerification Status = "PENDING_EMAIL_VERIFICATION"
	StatusActive              Status = "ACTIVE"
	StatusInProgress          Status = "IN_PROGRESS"
	StatusResolved            Status = "RESOLVED"
)

// Priority represents AI-assigned priority level
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// OfficerStatuses are the only values an officer may set through the
// status endpoint. Citizen-side activation goes through the OTP flow.
var OfficerStatuses = []Status{StatusActive, StatusInProgress, StatusResolved}

// ValidOfficerStatus reports whether s is inside the closed officer enum.
func ValidOfficerStatus(s Status) bool {
	for _, v := range OfficerStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// PriorityRank maps a priority to its dashboard sort rank. Most urgent
// ranks lowest; complaints without a triage verdict sort last.
func PriorityRank(p *Priority) int {
	if p == nil {
		return 5
	}
	switch *p {
	case PriorityCritical:
		return 1
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 3
	case PriorityLow:
		return 4
	}
	return 5
}

// Complaint represents a citizen grievance
type Complaint struct {
	ComplaintID    string     `json:"complaintId"`
	ServiceType    string     `json:"serviceType"`
	ComplaintType  string     `json:"complaintType"`
	ComplaintText  *string    `json:"complaintText,omitempty"`
	Email          string     `json:"email"`
	EmailVerified  bool       `json:"emailVerified"`
	TrackingNumber *string    `json:"trackingNumber,omitempty"`
	IncidentDate   *time.Time `json:"incidentDate,omitempty"`
	City           *string    `json:"city,omitempty"`
	Pincode        *string    `json:"pincode,omitempty"`
	AICategory     *string    `json:"aiCategory,omitempty"`
	Department     *string    `json:"department,omitempty"`
	SentimentScore *float64   `json:"sentimentScore,omitempty"`
	PriorityLevel  *Priority  `json:"priorityLevel,omitempty"`
	AutoResponse   *string    `json:"autoResponse,omitempty"`
	FinalResponse  *string    `json:"finalResponse,omitempty"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	VerifiedAt     *time.Time `json:"verifiedAt,omitempty"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
}

// Verdict represents a triage result, real or fallback. Every activated
// complaint carries one; downstream email composition and dashboard
// sorting rely on PriorityLevel and AutoResponse being present.
type Verdict struct {
	AICategory     string   `json:"ai_category"`
	Department     string   `json:"department"`
	SentimentScore float64  `json:"sentiment_score"`
	PriorityLevel  Priority `json:"priority_level"`
	AutoResponse   string   `json:"auto_response"`
}

// OTPRecord represents a one-time code row. Key is the complaint id for
// the tracking/confirmation variant or the email for the registration
// variant; the storage layer decides which table it lives in.
type OTPRecord struct {
	ID        int64
	Key       string
	Code      string
	ExpiresAt time.Time
	Verified  bool
	CreatedAt time.Time
}

// Officer represents a credentialed staff member
type Officer struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Approval represents an officer's final-response approval row
type Approval struct {
	ID            string    `json:"id"`
	ComplaintID   string    `json:"complaintId"`
	AIResponse    *string   `json:"aiResponse,omitempty"`
	FinalResponse string    `json:"finalResponse"`
	ApprovedBy    *int64    `json:"approvedBy,omitempty"`
	ApprovedAt    time.Time `json:"approvedAt"`
}

const complaintIDPrefix = "IP-CMP-"

var idMu sync.Mutex
var lastIDMillis int64

// NewComplaintID generates an externally shown complaint identifier:
// the fixed prefix plus the last six digits of a millisecond timestamp.
// The timestamp is forced strictly monotonic so two creations in the
// same millisecond never collide within a process.
func NewComplaintID() string {
	idMu.Lock()
	ms := time.Now().UnixMilli()
	if ms <= lastIDMillis {
		ms = lastIDMillis + 1
	}
	lastIDMillis = ms
	idMu.Unlock()

	frag := fmt.Sprintf("%06d", ms%1000000)
	return complaintIDPrefix + frag
}

// IsComplaintID reports whether id matches the generated identifier format.
func IsComplaintID(id string) bool {
	if !strings.HasPrefix(id, complaintIDPrefix) {
		return false
	}
	frag := strings.TrimPrefix(id, complaintIDPrefix)
	if len(frag) != 6 {
		return false
	}
	for _, c := range frag {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
