package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"agri-auth/internal/middleware"
	"agri-auth/internal/model"
	"agri-auth/pkg/apierror"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, req model.RegisterRequest) (model.AccountProfile, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.AccountProfile), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, email string, password string) (model.LoginResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(model.LoginResult), args.Error(1)
}

func (m *mockAuthService) GetAccount(ctx context.Context, id string) (model.AccountProfile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.AccountProfile), args.Error(1)
}

type staticValidator struct {
	claims *model.AuthClaims
}

func (v staticValidator) ValidateToken(string) (*model.AuthClaims, error) {
	return v.claims, nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) model.AuthResponse {
	t.Helper()
	var body model.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var profile = model.AccountProfile{
	ID:        "acc-1",
	Name:      "Asha",
	Email:     "asha@farm.test",
	Role:      model.RoleFarmer,
	CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
}

func TestAuthHandler_Register(t *testing.T) {
	svc := &mockAuthService{}
	req := model.RegisterRequest{Name: "Asha", Email: "asha@farm.test", Password: "pw", Role: "farmer"}
	svc.On("Register", mock.Anything, req).Return(profile, nil).Once()

	rec := httptest.NewRecorder()
	body := `{"name":"Asha","email":"asha@farm.test","password":"pw","role":"farmer","extra":true}`
	NewAuthHandler(svc).Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	got := decodeBody(t, rec)
	assert.True(t, got.Success)
	require.NotNil(t, got.User)
	assert.Equal(t, profile, *got.User)
	assert.Empty(t, got.Token)
	assert.NotContains(t, rec.Body.String(), "pw")
	svc.AssertExpectations(t)
}

func TestAuthHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        apierror.New(apierror.CodeValidation, "email is malformed", "email", http.StatusBadRequest),
			wantStatus: http.StatusBadRequest,
			wantCode:   apierror.CodeValidation,
			wantMsg:    "email is malformed",
		},
		{
			name:       "duplicate",
			err:        apierror.New(apierror.CodeDuplicateAccount, "an account with this email already exists", "", http.StatusBadRequest),
			wantStatus: http.StatusBadRequest,
			wantCode:   apierror.CodeDuplicateAccount,
			wantMsg:    "an account with this email already exists",
		},
		{
			name:       "store unavailable",
			err:        apierror.New(apierror.CodeStoreUnavailable, "service temporarily unavailable", "", http.StatusInternalServerError).Wrap(errors.New("dial tcp 10.0.0.5:5432")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apierror.CodeStoreUnavailable,
			wantMsg:    "service temporarily unavailable",
		},
		{
			name:       "unclassified",
			err:        errors.New("hash password: boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apierror.CodeInternal,
			wantMsg:    "Unexpected server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{}
			svc.On("Register", mock.Anything, mock.Anything).Return(model.AccountProfile{}, tt.err).Once()

			rec := httptest.NewRecorder()
			NewAuthHandler(svc).Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(`{}`)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			got := decodeBody(t, rec)
			assert.False(t, got.Success)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMsg, got.Message)
			assert.Nil(t, got.User)
			assert.NotContains(t, rec.Body.String(), "10.0.0.5")
			assert.NotContains(t, rec.Body.String(), "boom")
		})
	}
}

func TestAuthHandler_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "email=a@x.com"},
		{name: "wrong type", body: `{"email":42}`},
		{name: "too large", body: `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{}
			h := NewAuthHandler(svc)

			for _, serve := range []http.HandlerFunc{h.Register, h.Login} {
				rec := httptest.NewRecorder()
				serve(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tt.body)))

				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Equal(t, apierror.CodeBadRequest, decodeBody(t, rec).Code)
			}
			svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	expiresAt := time.Date(2026, 1, 3, 3, 4, 5, 0, time.UTC)
	svc := &mockAuthService{}
	svc.On("Login", mock.Anything, "asha@farm.test", "pw").
		Return(model.LoginResult{User: profile, Token: "signed.jwt.value", ExpiresAt: expiresAt}, nil).Once()

	rec := httptest.NewRecorder()
	NewAuthHandler(svc).Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"asha@farm.test","password":"pw"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)
	assert.True(t, got.Success)
	assert.Equal(t, "signed.jwt.value", got.Token)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, expiresAt.Equal(*got.ExpiresAt))
	require.NotNil(t, got.User)
	assert.Equal(t, model.RoleFarmer, got.User.Role)
	svc.AssertExpectations(t)
}

func TestAuthHandler_Me(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("GetAccount", mock.Anything, "acc-1").Return(profile, nil).Once()
	h := NewAuthHandler(svc)

	t.Run("with claims", func(t *testing.T) {
		mw := middleware.NewAuthMiddleware(staticValidator{claims: &model.AuthClaims{AccountID: "acc-1"}})
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer anything")
		rec := httptest.NewRecorder()
		mw.RequireAuth(http.HandlerFunc(h.Me)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody(t, rec)
		require.NotNil(t, got.User)
		assert.Equal(t, "acc-1", got.User.ID)
	})

	t.Run("without claims", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, apierror.CodeUnauthorized, decodeBody(t, rec).Code)
	})

	svc.AssertExpectations(t)
}
