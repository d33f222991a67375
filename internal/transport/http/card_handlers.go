package http

import (
	"encoding/json"
	"net/http"

	"tapcard/internal/model"
)

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}
	if req.CreatedBy == "" {
		req.CreatedBy = ClaimsFrom(r.Context()).UserID
	}

	customer, err := h.cards.CreateCustomer(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, customer)
}

func (h *Handler) Recharge(w http.ResponseWriter, r *http.Request) {
	var req model.RechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}
	if req.RechargerID == "" {
		req.RechargerID = ClaimsFrom(r.Context()).UserID
	}

	customer, err := h.cards.Recharge(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.cards.FindCustomer(r.Context(), r.PathValue("identifier"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.cards.GetBalance(r.Context(), r.PathValue("customerId"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (h *Handler) RechargeHistory(w http.ResponseWriter, r *http.Request) {
	_, limit := pageParams(r)
	entries, err := h.cards.RechargeHistory(r.Context(), r.PathValue("customerId"), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"recharges": entries})
}

func (h *Handler) AssignCard(w http.ResponseWriter, r *http.Request) {
	var req model.AssignCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}

	customer, err := h.cards.AssignCard(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func (h *Handler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	var req model.RemoveCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}

	customer, err := h.cards.RemoveCard(r.Context(), req.CardUID, ClaimsFrom(r.Context()).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.cards.DeleteCustomer(r.Context(), r.PathValue("customerId")); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "customer deleted successfully")
}
