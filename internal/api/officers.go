package api

import (
	"encoding/json"
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d Dependencies) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	token, officer, err := d.JWT.Login(r.Context(), d.Officers, req.Email, req.Password)
	if err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"officer": map[string]interface{}{
			"id":    officer.ID,
			"email": officer.Email,
			"role":  officer.Role,
		},
	})
}
