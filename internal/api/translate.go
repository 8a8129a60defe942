package api

import (
	"encoding/json"
	"net/http"
)

type translateRequest struct {
	Text   string `json:"text"`
	Target string `json:"target"`
}

func (d Dependencies) translateText(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if req.Text == "" || req.Target == "" {
		WriteError(w, http.StatusBadRequest, "validation_failed", "text and target are required", d.Log)
		return
	}

	translated, err := d.Translate.Translate(r.Context(), req.Text, req.Target)
	if err != nil {
		WriteDomainError(w, err, d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"translatedText": translated,
		"target":         req.Target,
	})
}
