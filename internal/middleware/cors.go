package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS lets the dashboard front end call the auth API from its own origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		MaxAge:           600,
		AllowCredentials: false,
	})

	return handler.Handler
}
