package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tapcard/internal/model"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondError maps the error taxonomy onto HTTP statuses: missing
// entities are 404, business rejections and bad input are 400, storage
// failures are 500. Unknown errors are treated as storage failures.
func respondError(w http.ResponseWriter, err error) {
	var notFound *model.NotFoundError
	var validation *model.ValidationError
	var funds *model.InsufficientFundsError
	var stock *model.InsufficientStockError
	var persistence *model.PersistenceError

	switch {
	case errors.As(err, &notFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "message": err.Error()})
	case errors.As(err, &validation):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": err.Error()})
	case errors.As(err, &funds):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "insufficient_funds", "message": err.Error()})
	case errors.As(err, &stock):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "insufficient_stock", "message": err.Error()})
	case errors.As(err, &persistence):
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "persistence", "message": "storage failure, no partial effects were applied"})
	default:
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal", "message": err.Error()})
	}
}
