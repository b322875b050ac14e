package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"agri-auth/internal/metrics"
	"agri-auth/internal/model"
	"agri-auth/internal/password"
	"agri-auth/pkg/apierror"
)

// AccessTokenTTL is fixed; there is no refresh flow.
const AccessTokenTTL = 24 * time.Hour

const (
	maxNameLength  = 100
	maxEmailLength = 254
)

type AccountStore interface {
	Create(ctx context.Context, a model.Account) error
	FindByEmail(ctx context.Context, email string) (model.Account, error)
	FindByID(ctx context.Context, id string) (model.Account, error)
}

type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext string, hash string) (bool, error)
}

type TokenSigner interface {
	Sign(claims model.AuthClaims, ttl time.Duration) (string, time.Time, error)
	Verify(token string) (*model.AuthClaims, error)
}

// Recorder receives flow outcomes; *metrics.Metrics implements it.
type Recorder interface {
	ObserveRegistration(outcome string)
	ObserveLogin(outcome string)
	ObserveHash(op string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRegistration(string)        {}
func (nopRecorder) ObserveLogin(string)               {}
func (nopRecorder) ObserveHash(string, time.Duration) {}

type Option func(*AuthService)

func WithRecorder(r Recorder) Option {
	return func(s *AuthService) {
		if r != nil {
			s.recorder = r
		}
	}
}

type AuthService struct {
	accounts  AccountStore
	hasher    PasswordHasher
	tokens    TokenSigner
	recorder  Recorder
	now       func() time.Time
	dummyHash string
}

// NewAuthService wires the collaborators and precomputes the hash that unknown
// emails are verified against, so both login failure paths cost one hash check.
func NewAuthService(ctx context.Context, accounts AccountStore, hasher PasswordHasher, tokens TokenSigner, opts ...Option) (*AuthService, error) {
	if accounts == nil {
		return nil, errors.New("account store is required")
	}
	if hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	if tokens == nil {
		return nil, errors.New("token signer is required")
	}

	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("generate dummy password: %w", err)
	}
	dummyHash, err := hasher.Hash(ctx, hex.EncodeToString(seed))
	if err != nil {
		return nil, fmt.Errorf("compute dummy hash: %w", err)
	}

	s := &AuthService{
		accounts:  accounts,
		hasher:    hasher,
		tokens:    tokens,
		recorder:  nopRecorder{},
		now:       time.Now,
		dummyHash: dummyHash,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.AccountProfile, error) {
	profile, err := s.register(ctx, req)
	s.recorder.ObserveRegistration(outcomeOf(err))
	return profile, err
}

func (s *AuthService) register(ctx context.Context, req model.RegisterRequest) (model.AccountProfile, error) {
	name := strings.TrimSpace(req.Name)
	email := model.NormalizeEmail(req.Email)

	if name == "" {
		return model.AccountProfile{}, validationError("name is required", "name")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return model.AccountProfile{}, validationError("name is too long", "name")
	}
	if err := validateEmail(email); err != nil {
		return model.AccountProfile{}, err
	}
	if req.Password == "" {
		return model.AccountProfile{}, validationError("password is required", "password")
	}
	if len(req.Password) > password.MaxLength {
		return model.AccountProfile{}, validationError(fmt.Sprintf("password must be at most %d bytes", password.MaxLength), "password")
	}
	if strings.TrimSpace(req.Role) == "" {
		return model.AccountProfile{}, validationError("role is required", "role")
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		return model.AccountProfile{}, validationError("role must be one of farmer, contractor, buyer", "role")
	}

	started := time.Now()
	hash, err := s.hasher.Hash(ctx, req.Password)
	s.recorder.ObserveHash("hash", time.Since(started))
	if err != nil {
		return model.AccountProfile{}, fmt.Errorf("hash password: %w", err)
	}

	account := model.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, model.ErrDuplicateAccount) {
			return model.AccountProfile{}, apierror.New(apierror.CodeDuplicateAccount, "an account with this email already exists", "", http.StatusBadRequest).
				Wrap(model.ErrDuplicateAccount)
		}
		return model.AccountProfile{}, storeUnavailable("create account", err)
	}

	slog.InfoContext(ctx, "account registered", "account_id", account.ID, "role", account.Role)
	return account.Profile(), nil
}

func (s *AuthService) Login(ctx context.Context, email string, plaintext string) (model.LoginResult, error) {
	result, err := s.login(ctx, email, plaintext)
	s.recorder.ObserveLogin(outcomeOf(err))
	return result, err
}

func (s *AuthService) login(ctx context.Context, email string, plaintext string) (model.LoginResult, error) {
	email = model.NormalizeEmail(email)
	if email == "" || plaintext == "" {
		return model.LoginResult{}, validationError("email and password are required", "")
	}

	account, lookupErr := s.accounts.FindByEmail(ctx, email)
	found := lookupErr == nil
	if lookupErr != nil && !errors.Is(lookupErr, model.ErrAccountNotFound) {
		return model.LoginResult{}, storeUnavailable("find account by email", lookupErr)
	}

	targetHash := s.dummyHash
	if found {
		targetHash = account.PasswordHash
	}

	// Always verify, even for unknown emails, so both failures take the same time.
	started := time.Now()
	valid, verifyErr := s.hasher.Verify(ctx, plaintext, targetHash)
	s.recorder.ObserveHash("verify", time.Since(started))
	if verifyErr != nil {
		if errors.Is(verifyErr, context.Canceled) || errors.Is(verifyErr, context.DeadlineExceeded) {
			return model.LoginResult{}, verifyErr
		}
		if found {
			slog.ErrorContext(ctx, "stored password hash is unreadable", "account_id", account.ID, "error", verifyErr)
		}
		return model.LoginResult{}, invalidCredentials()
	}
	if !found || !valid {
		slog.WarnContext(ctx, "login rejected")
		return model.LoginResult{}, invalidCredentials()
	}

	signed, expiresAt, err := s.tokens.Sign(model.AuthClaims{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
	}, AccessTokenTTL)
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}

	return model.LoginResult{
		User:      account.Profile(),
		Token:     signed,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken verifies signature and expiry; any failure is Unauthorized.
func (s *AuthService) ValidateToken(tokenString string) (*model.AuthClaims, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, apierror.New(apierror.CodeUnauthorized, "invalid or expired token", "", http.StatusUnauthorized).
			Wrap(model.ErrUnauthorized)
	}
	return claims, nil
}

func (s *AuthService) GetAccount(ctx context.Context, id string) (model.AccountProfile, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if errors.Is(err, model.ErrAccountNotFound) {
		// The token outlived its account.
		return model.AccountProfile{}, apierror.New(apierror.CodeUnauthorized, "account no longer exists", "", http.StatusUnauthorized).
			Wrap(model.ErrUnauthorized)
	}
	if err != nil {
		return model.AccountProfile{}, storeUnavailable("find account by id", err)
	}
	return account.Profile(), nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, model.ErrValidation):
		return metrics.OutcomeValidation
	case errors.Is(err, model.ErrDuplicateAccount):
		return metrics.OutcomeDuplicate
	case errors.Is(err, model.ErrInvalidCredentials):
		return metrics.OutcomeInvalidCredentials
	case errors.Is(err, model.ErrStoreUnavailable):
		return metrics.OutcomeStoreError
	default:
		return metrics.OutcomeError
	}
}

func validateEmail(email string) error {
	if email == "" {
		return validationError("email is required", "email")
	}
	if len(email) > maxEmailLength {
		return validationError("email is too long", "email")
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return validationError("email is malformed", "email")
	}
	return nil
}

func validationError(message string, field string) *apierror.APIError {
	return apierror.New(apierror.CodeValidation, message, field, http.StatusBadRequest).Wrap(model.ErrValidation)
}

// invalidCredentials is deliberately identical for unknown email and wrong password.
func invalidCredentials() *apierror.APIError {
	return apierror.New(apierror.CodeInvalidCredentials, "invalid email or password", "", http.StatusUnauthorized).
		Wrap(model.ErrInvalidCredentials)
}

// storeUnavailable keeps the driver error in the chain for logs but out of the response.
func storeUnavailable(operation string, err error) *apierror.APIError {
	slog.Error("account store failure", "operation", operation, "error", err)
	return apierror.New(apierror.CodeStoreUnavailable, "service temporarily unavailable", "", http.StatusInternalServerError).
		Wrap(fmt.Errorf("%s: %w: %w", operation, model.ErrStoreUnavailable, err))
}
