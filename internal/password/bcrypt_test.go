package password

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewBcryptHasher(t *testing.T) {
	t.Parallel()

	_, err := NewBcryptHasher(bcrypt.MinCost-1, 1)
	require.Error(t, err)

	_, err = NewBcryptHasher(bcrypt.MaxCost+1, 1)
	require.Error(t, err)

	h, err := NewBcryptHasher(bcrypt.MinCost, 0)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, h.Cost())
}

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	t.Parallel()

	h, err := NewBcryptHasher(bcrypt.MinCost, 2)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := h.Hash(ctx, "s3cret")
	require.NoError(t, err)
	second, err := h.Hash(ctx, "s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret", first)
	assert.NotEqual(t, first, second, "each hash must use a fresh salt")

	cost, err := bcrypt.Cost([]byte(first))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	ok, err := h.Verify(ctx, "s3cret", first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(ctx, "wrong", first)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_Errors(t *testing.T) {
	t.Parallel()

	h, err := NewBcryptHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	_, err = h.Hash(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyPassword)

	_, err = h.Hash(context.Background(), strings.Repeat("x", MaxLength+1))
	require.Error(t, err)

	ok, err := h.Verify(context.Background(), "anything", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_HonorsCanceledContext(t *testing.T) {
	t.Parallel()

	h, err := NewBcryptHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	// Hold the only slot so the next caller has to wait on its context.
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Hash(ctx, "s3cret")
	require.ErrorIs(t, err, context.Canceled)
}

func TestBcryptHasher_OverLengthNeverMatches(t *testing.T) {
	t.Parallel()

	h, err := NewBcryptHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)
	ctx := context.Background()

	exact := strings.Repeat("a", MaxLength)
	hash, err := h.Hash(ctx, exact)
	require.NoError(t, err)

	ok, err := h.Verify(ctx, exact, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	// bcrypt only reads the first 72 bytes, so a suffix would otherwise match.
	ok, err = h.Verify(ctx, exact+"suffix", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}
