// Package token signs and verifies HS256 access tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"agri-auth/internal/model"
)

// MinSecretLength is the shortest HMAC key accepted, in bytes.
const MinSecretLength = 32

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type Signer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type Option func(*Signer)

// WithClock replaces time.Now for both issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

func NewSigner(secret string, issuer string, opts ...Option) (*Signer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}

	s := &Signer{secret: []byte(secret), issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Sign issues a token for claims that expires ttl from now.
func (s *Signer) Sign(claims model.AuthClaims, ttl time.Duration) (string, time.Time, error) {
	if claims.AccountID == "" {
		return "", time.Time{}, errors.New("token subject is required")
	}

	// exp is whole seconds on the wire; the returned expiry must match it.
	now := s.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(ttl)
	tokenID := claims.TokenID
	if tokenID == "" {
		tokenID = uuid.NewString()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   claims.AccountID,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: claims.Email,
		Role:  claims.Role,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify checks algorithm, signature, issuer and expiry before returning claims.
func (s *Signer) Verify(tokenString string) (*model.AuthClaims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &model.AuthClaims{
		AccountID: claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		TokenID:   claims.ID,
	}, nil
}
