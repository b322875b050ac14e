package middleware

import (
	"encoding/json"
	"net/http"

	"agri-auth/internal/model"
)

// writeBody renders the flat error envelope used by every middleware rejection.
func writeBody(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.AuthResponse{
		Success: false,
		Code:    code,
		Message: message,
	})
}
