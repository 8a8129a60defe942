package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"grievance/internal/auth"
	"grievance/internal/model"
	"grievance/internal/service"

	"github.com/go-chi/chi/v5"
)

func (d Dependencies) createComplaint(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	if err := d.Intake.Validate(body); err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}

	var input service.CreateComplaintInput
	if err := json.Unmarshal(body, &input); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	c, err := d.Complaints.Create(r.Context(), input)
	if err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}

	// The complaint row survives a failed OTP send; the citizen can
	// request a resend.
	otpSent := true
	if err := d.Confirmations.SendOTP(r.Context(), c.ComplaintID); err != nil {
		if !errors.Is(err, model.ErrDelivery) {
			WriteDomainError(w, err, d.Log)
			return
		}
		otpSent = false
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"complaintId": c.ComplaintID,
		"status":      c.Status,
		"otpSent":     otpSent,
	})
}

// getComplaint serves the tracking read. Access requires either a
// tracking grant scoped to this complaint or an officer session token.
func (d Dependencies) getComplaint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	token := bearerToken(r)
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing authorization header", d.Log)
		return
	}

	if grantID, err := d.JWT.VerifyAccessGrant(token); err == nil {
		if grantID != id {
			WriteError(w, http.StatusForbidden, "forbidden", "Token not valid for this complaint", d.Log)
			return
		}
	} else if _, err := d.JWT.VerifyOfficer(token); err != nil {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid token", d.Log)
		return
	}

	c, err := d.Complaints.Get(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (d Dependencies) listComplaints(w http.ResponseWriter, r *http.Request) {
	complaints, err := d.Complaints.List(r.Context())
	if err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"complaints": complaints,
		"count":      len(complaints),
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (d Dependencies) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	c, err := d.Complaints.TransitionTo(r.Context(), id, model.Status(req.Status))
	if err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

type resolveRequest struct {
	FinalResponse string `json:"finalResponse"`
}

func (d Dependencies) resolveComplaint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	officerID := auth.GetOfficerID(r.Context())
	c, err := d.Complaints.Resolve(r.Context(), id, req.FinalResponse, officerID)
	if err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
