package mailer

import (
	"fmt"

	"grievance/internal/model"
)

// Email subjects and bodies for the citizen-facing flows.

const (
	SubjectVerificationOTP = "India Post Complaint OTP Verification"
	SubjectResendOTP       = "India Post Complaint OTP (Resent)"
	SubjectRegistrationOTP = "India Post Complaint Registration OTP"
	SubjectTrackingOTP     = "India Post Complaint Tracking OTP"
	SubjectRegistered      = "India Post Complaint Registered Successfully"
	SubjectInProgress      = "India Post Complaint Under Investigation"
	SubjectResolved        = "India Post Complaint Resolved"
)

// DefaultClosing is used in the resolution mail when the officer left the
// final response to the triage auto-response and none exists.
const DefaultClosing = "Your complaint has been reviewed and resolved by the concerned department."

func OTPBody(code string) string {
	return fmt.Sprintf(
		"<p>Your OTP is <b>%s</b></p><p>This OTP is valid for 5 minutes.</p>", code)
}

func TrackingOTPBody(code string) string {
	return fmt.Sprintf(
		"<p>Your OTP to track your complaint is <b>%s</b></p><p>This OTP is valid for 5 minutes.</p>", code)
}

func RegisteredBody(c model.Complaint) string {
	priority := string(model.PriorityMedium)
	if c.PriorityLevel != nil {
		priority = string(*c.PriorityLevel)
	}
	autoResponse := DefaultClosing
	if c.AutoResponse != nil {
		autoResponse = *c.AutoResponse
	}
	return fmt.Sprintf(`<p>Dear Citizen,</p>
<p>Your complaint has been successfully registered with <b>India Post</b>.</p>
<p><b>Complaint ID:</b> %s</p>
<p><b>Priority:</b> %s</p>
<p><b>Automated Response:</b></p>
<p>%s</p>
<p>Our team will review your complaint and take appropriate action.</p>
<p>Regards,<br/>India Post Grievance Redressal System</p>`,
		c.ComplaintID, priority, autoResponse)
}

func InProgressBody(c model.Complaint) string {
	return fmt.Sprintf(`<p>Dear Citizen,</p>
<p>Your complaint <b>%s</b> is now under investigation by the concerned department.</p>
<p>You will be notified once it is resolved.</p>
<p>Regards,<br/>India Post Grievance Redressal System</p>`,
		c.ComplaintID)
}

func ResolvedBody(c model.Complaint) string {
	response := DefaultClosing
	switch {
	case c.FinalResponse != nil && *c.FinalResponse != "":
		response = *c.FinalResponse
	case c.AutoResponse != nil && *c.AutoResponse != "":
		response = *c.AutoResponse
	}
	return fmt.Sprintf(`<p>Dear Citizen,</p>
<p>Your complaint <b>%s</b> has been resolved.</p>
<p>%s</p>
<p>Regards,<br/>India Post Grievance Redressal System</p>`,
		c.ComplaintID, response)
}
