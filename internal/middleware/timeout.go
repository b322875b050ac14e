package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"agri-auth/internal/model"
)

const codeRequestTimeout = "REQUEST_TIMEOUT"

// Timeout bounds handlers under /api. On expiry the client gets a 503 with the
// JSON error envelope; a handler that finishes in time keeps its own headers.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	body, _ := json.Marshal(model.AuthResponse{
		Success: false,
		Code:    codeRequestTimeout,
		Message: "request timed out",
	})

	return func(next http.Handler) http.Handler {
		bounded := http.TimeoutHandler(next, timeout, string(body))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// TimeoutHandler writes its body straight to w, so the type has to be
			// set before it runs. Handler headers replace it on the normal path.
			w.Header().Set("Content-Type", "application/json")
			bounded.ServeHTTP(w, r)
		})
	}
}
