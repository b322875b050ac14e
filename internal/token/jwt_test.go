package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agri-auth/internal/model"
)

const testSecret = "test-secret-key-for-unit-tests-0123456789"

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestNewSigner_RejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewSigner("short", "agri-auth")
	require.Error(t, err)
}

func TestSigner_RoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner(testSecret, "agri-auth")
	require.NoError(t, err)

	signed, expiresAt, err := signer.Sign(model.AuthClaims{
		AccountID: "acc-1",
		Email:     "a@x.com",
		Role:      model.RoleFarmer,
	}, 24*time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, 5*time.Second)

	claims, err := signer.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, model.RoleFarmer, claims.Role)
	assert.NotEmpty(t, claims.TokenID)
}

func TestSigner_Expiry(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: issuedAt}
	signer, err := NewSigner(testSecret, "agri-auth", WithClock(clock.Now))
	require.NoError(t, err)

	signed, _, err := signer.Sign(model.AuthClaims{AccountID: "acc-1", Role: model.RoleBuyer}, 24*time.Hour)
	require.NoError(t, err)

	clock.now = issuedAt.Add(23*time.Hour + 59*time.Minute)
	_, err = signer.Verify(signed)
	require.NoError(t, err, "token must still be valid just before 24h")

	clock.now = issuedAt.Add(24*time.Hour + time.Second)
	_, err = signer.Verify(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestSigner_RejectsTampering(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner(testSecret, "agri-auth")
	require.NoError(t, err)
	other, err := NewSigner(strings.Repeat("z", MinSecretLength), "agri-auth")
	require.NoError(t, err)
	foreignIssuer, err := NewSigner(testSecret, "someone-else")
	require.NoError(t, err)

	claims := model.AuthClaims{AccountID: "acc-1", Role: model.RoleFarmer}

	t.Run("wrong key", func(t *testing.T) {
		signed, _, err := other.Sign(claims, time.Hour)
		require.NoError(t, err)
		_, err = signer.Verify(signed)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		signed, _, err := foreignIssuer.Sign(claims, time.Hour)
		require.NoError(t, err)
		_, err = signer.Verify(signed)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "agri-auth",
				Subject:   "acc-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = signer.Verify(raw)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := signer.Verify("not.a.jwt")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		_, _, err := signer.Sign(model.AuthClaims{}, time.Hour)
		require.Error(t, err)
	})
}

func TestSigner_ExpiryMatchesTokenClaim(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 10, 18, 11, 59, 5, 177336585, time.UTC)
	signer, err := NewSigner(testSecret, "agri-auth", WithClock(func() time.Time { return issuedAt }))
	require.NoError(t, err)

	signed, expiresAt, err := signer.Sign(model.AuthClaims{AccountID: "acc-1", Role: model.RoleFarmer}, 24*time.Hour)
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(signed, claims)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)

	assert.True(t, claims.ExpiresAt.Time.Equal(expiresAt), "returned %s, token exp %s", expiresAt, claims.ExpiresAt.Time)
	assert.Zero(t, expiresAt.Nanosecond())
}
