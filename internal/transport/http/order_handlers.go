package http

import (
	"encoding/json"
	"net/http"

	"tapcard/internal/model"
)

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req model.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}
	// A cashier can only place orders in their own name.
	if req.ServedBy == "" {
		req.ServedBy = ClaimsFrom(r.Context()).UserID
	}

	result, err := h.orders.PlaceOrder(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	detail, err := h.orders.GetOrder(r.Context(), r.PathValue("orderId"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (h *Handler) ListStallOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	result, err := h.orders.ListStallOrders(r.Context(), r.PathValue("stallId"), page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) StallOrdersSummary(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	result, err := h.orders.StallOrdersSummary(r.Context(), r.PathValue("stallId"), page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
