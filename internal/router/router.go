package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"agri-auth/internal/config"
	"agri-auth/internal/handler"
	"agri-auth/internal/metrics"
	"agri-auth/internal/middleware"
)

// Handlers groups the endpoints. Metrics is optional; nil leaves /metrics unmounted.
type Handlers struct {
	Auth    *handler.AuthHandler
	Health  *handler.HealthHandler
	Metrics *metrics.Metrics
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM, cfg.TrustProxyHeaders)

	r.Use(middleware.Recovery)
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware)
	}
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Health)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/signup", h.Auth.Register)
			auth.Post("/register", h.Auth.Register)
			auth.Post("/login", h.Auth.Login)
			auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
		})
	})

	return r
}
