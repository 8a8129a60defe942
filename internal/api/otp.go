package api

import (
	"encoding/json"
	"net/http"

	"grievance/internal/service"

	"github.com/go-chi/chi/v5"
)

// Confirmation flow: the complaint already exists, pending email
// verification.

func (d Dependencies) sendConfirmationOTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := d.Confirmations.SendOTP(r.Context(), id); err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

func (d Dependencies) resendConfirmationOTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := d.Confirmations.ResendOTP(r.Context(), id); err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "OTP resent"})
}

type verifyOTPRequest struct {
	OTP string `json:"otp"`
}

func (d Dependencies) verifyConfirmationOTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	c, err := d.Confirmations.VerifyOTP(r.Context(), id, req.OTP)
	if err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

// Tracking flow: a filed complaint's owner proves mailbox control again
// to read its state.

type trackingSendRequest struct {
	Email string `json:"email"`
}

func (d Dependencies) sendTrackingOTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req trackingSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	if err := d.Tracking.SendOTP(r.Context(), id, req.Email); err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

func (d Dependencies) verifyTrackingOTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	c, token, err := d.Tracking.VerifyOTP(r.Context(), id, req.OTP)
	if err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"complaint":   c,
		"accessToken": token,
	})
}

// Registration flow: the mailbox is verified before the complaint
// exists.

type registrationSendRequest struct {
	Email string `json:"email"`
}

func (d Dependencies) sendRegistrationOTP(w http.ResponseWriter, r *http.Request) {
	var req registrationSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	if err := d.Registrations.SendOTP(r.Context(), req.Email); err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

type verifyAndRegisterRequest struct {
	Email     string                       `json:"email"`
	OTP       string                       `json:"otp"`
	Complaint service.CreateComplaintInput `json:"complaint"`
}

func (d Dependencies) verifyAndRegister(w http.ResponseWriter, r *http.Request) {
	var req verifyAndRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	c, err := d.Registrations.VerifyAndRegister(r.Context(), req.Email, req.OTP, req.Complaint)
	if err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusCreated, c)
}
