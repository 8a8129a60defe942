// Package triage classifies complaints into category, department,
// priority and sentiment, with a suggested reply. The collaborator is
// unreliable by contract: callers must always end up with a usable
// verdict, real or fallback.
package triage

import (
	"context"

	"grievance/internal/model"
)

// Input is what the classifier sees.
type Input struct {
	ServiceType   string
	ComplaintType string
	ComplaintText string
}

// Analyzer produces a triage verdict for a complaint.
type Analyzer interface {
	Analyze(ctx context.Context, in Input) (model.Verdict, error)
}

const fallbackAutoResponse = "Thank you for contacting India Post. Your complaint has been registered and will be reviewed by the concerned department."

// Fallback returns the fixed substitute verdict used when the analyzer
// is unavailable or errors. The department defaults to the submitted
// service type so routing still lands somewhere sensible.
func Fallback(serviceType string) model.Verdict {
	department := serviceType
	if department == "" {
		department = "India Post"
	}
	return model.Verdict{
		AICategory:     "General Complaint",
		Department:     department,
		SentimentScore: 0,
		PriorityLevel:  model.PriorityMedium,
		AutoResponse:   fallbackAutoResponse,
	}
}

// Normalize fills missing fields of a raw verdict with fallback values
// and rejects priorities outside the closed enum.
func Normalize(v model.Verdict, serviceType string) model.Verdict {
	fb := Fallback(serviceType)
	if v.AICategory == "" {
		v.AICategory = fb.AICategory
	}
	if v.Department == "" {
		v.Department = fb.Department
	}
	switch v.PriorityLevel {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityCritical:
	default:
		v.PriorityLevel = model.PriorityMedium
	}
	if v.AutoResponse == "" {
		v.AutoResponse = fb.AutoResponse
	}
	if v.SentimentScore < 0 {
		v.SentimentScore = 0
	}
	if v.SentimentScore > 1 {
		v.SentimentScore = 1
	}
	return v
}
