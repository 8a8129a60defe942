package api

import (
	"net/http"

	"grievance/internal/auth"
	"grievance/internal/db"
	"grievance/internal/schema"
	"grievance/internal/service"
	"grievance/internal/translate"
	"grievance/internal/ws"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Dependencies struct {
	DB            *db.Pool
	Hub           *ws.Hub
	Log           *zap.Logger
	JWT           *auth.JWTConfig
	Officers      auth.OfficerStore
	Intake        *schema.Intake
	Complaints    *service.ComplaintService
	Confirmations *service.ConfirmationService
	Registrations *service.RegistrationService
	Tracking      *service.TrackingService
	Translate     *translate.Service
}

func Routes(d Dependencies) http.Handler {
	r := chi.NewRouter()

	// Add request logging middleware
	r.Use(RequestLogger(d.Log))

	r.Get("/healthz", d.healthz)

	// Citizen intake
	r.Post("/complaints", d.createComplaint)
	r.Get("/complaints/{id}", d.getComplaint)

	// Complaint confirmation OTP
	r.Post("/complaints/{id}/otp/send", d.sendConfirmationOTP)
	r.Post("/complaints/{id}/otp/resend", d.resendConfirmationOTP)
	r.Post("/complaints/{id}/otp/verify", d.verifyConfirmationOTP)

	// Tracking OTP
	r.Post("/complaints/{id}/tracking/send", d.sendTrackingOTP)
	r.Post("/complaints/{id}/tracking/verify", d.verifyTrackingOTP)

	// Email-first registration
	r.Post("/registration/otp/send", d.sendRegistrationOTP)
	r.Post("/registration/verify", d.verifyAndRegister)

	// Officer auth
	r.Post("/auth/login", d.login)

	// Officer workflow
	r.Group(func(pr chi.Router) {
		pr.Use(d.JWT.RequireOfficer)
		pr.Get("/complaints", d.listComplaints)
		pr.Patch("/complaints/{id}/status", d.updateStatus)
		pr.Post("/complaints/{id}/resolve", d.resolveComplaint)
	})

	// Translation proxy
	r.Post("/translate", d.translateText)

	// WebSocket endpoint
	r.Get("/ws", d.wsHandler)

	return r
}

func (d Dependencies) healthz(w http.ResponseWriter, r *http.Request) {
	if d.DB != nil {
		if err := d.DB.Ping(r.Context()); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "db_unavailable", "database unreachable", d.Log)
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
