package http

import (
	"encoding/json"
	"net/http"

	"tapcard/internal/model"
)

func (h *Handler) CreateStall(w http.ResponseWriter, r *http.Request) {
	var req model.CreateStallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}

	stall, err := h.stalls.CreateStall(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, stall)
}

func (h *Handler) ListStalls(w http.ResponseWriter, r *http.Request) {
	stalls, err := h.stalls.ListStalls(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"stalls": stalls})
}

func (h *Handler) GetStall(w http.ResponseWriter, r *http.Request) {
	stall, err := h.stalls.GetStall(r.Context(), r.PathValue("stallId"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stall)
}

func (h *Handler) UpdateStall(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateStallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}

	stall, err := h.stalls.UpdateStall(r.Context(), r.PathValue("stallId"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stall)
}

func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.stalls.GetMenu(r.Context(), r.PathValue("stallId"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"menu": menu})
}

func (h *Handler) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	var req model.MenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}

	item, err := h.stalls.AddMenuItem(r.Context(), r.PathValue("stallId"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req model.MenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}

	item, err := h.stalls.UpdateMenuItem(r.Context(), r.PathValue("stallId"), r.PathValue("itemId"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handler) RemoveMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.stalls.RemoveMenuItem(r.Context(), r.PathValue("stallId"), r.PathValue("itemId")); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "menu item removed successfully")
}

func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	var req model.RestockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}

	item, err := h.stalls.Restock(r.Context(), r.PathValue("stallId"), r.PathValue("itemId"), req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req model.SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "invalid json"})
		return
	}

	item, err := h.stalls.SetAvailability(r.Context(), r.PathValue("stallId"), r.PathValue("itemId"), req.IsAvailable)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}
