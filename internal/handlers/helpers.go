package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/inkwell-cms/inkwell/internal/models"
)

// sendError writes a JSON error response with the given status code
func sendError(w http.ResponseWriter, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(models.ErrorResponse{Error: message, Code: code}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// sendJSON writes a JSON response with the given status code
func sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
