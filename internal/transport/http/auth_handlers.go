package http

import (
	"encoding/json"
	"net/http"

	"tapcard/internal/model"
)

func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}

	// Creator role comes from the verified token, never the body.
	result, err := h.auth.Register(r.Context(), req, ClaimsFrom(r.Context()).Role)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}

	result, err := h.auth.Login(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}

	if err := h.auth.RequestPasswordReset(r.Context(), req.Phone); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "OTP sent to your phone")
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordResetConfirm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "password has been reset successfully")
}

func (h *Handler) ShowMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ClaimsFrom(r.Context()))
}
