package handler

import (
	"context"
	"log/slog"
	"net/http"

	"agri-auth/internal/model"
	"agri-auth/pkg/apierror"
)

type healthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	store healthChecker
}

func NewHealthHandler(store healthChecker) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Health(r.Context()); err != nil {
		slog.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, model.AuthResponse{
			Success: false,
			Status:  "unavailable",
			Code:    apierror.CodeStoreUnavailable,
			Message: "account store is not reachable",
		})
		return
	}

	writeJSON(w, http.StatusOK, model.AuthResponse{Success: true, Status: "ok"})
}
