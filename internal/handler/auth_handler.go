package handler

import (
	"context"
	"net/http"

	"agri-auth/internal/middleware"
	"agri-auth/internal/model"
	"agri-auth/pkg/apierror"
)

const maxBodyBytes = 1 << 16

type authService interface {
	Register(ctx context.Context, req model.RegisterRequest) (model.AccountProfile, error)
	Login(ctx context.Context, email string, password string) (model.LoginResult, error)
	GetAccount(ctx context.Context, id string) (model.AccountProfile, error)
}

type AuthHandler struct {
	service authService
}

func NewAuthHandler(service authService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.AuthResponse{Success: true, User: &user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.AuthResponse{
		Success:   true,
		User:      &result.User,
		Token:     result.Token,
		ExpiresAt: &result.ExpiresAt,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New(apierror.CodeUnauthorized, "authentication required", "", http.StatusUnauthorized))
		return
	}

	user, err := h.service.GetAccount(r.Context(), claims.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.AuthResponse{Success: true, User: &user})
}
