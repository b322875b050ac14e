// Package password hashes and verifies account credentials with bcrypt.
package password

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost is about 250ms per hash on commodity hardware.
const DefaultCost = 12

// MaxLength is the longest password bcrypt accepts, in bytes.
const MaxLength = 72

var ErrEmptyPassword = errors.New("password cannot be empty")

// BcryptHasher hashes with a per-call random salt (bcrypt embeds it in the hash).
// At most `concurrency` hash or verify calls run at once.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted
}

func NewBcryptHasher(cost int, concurrency int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	return &BcryptHasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}, nil
}

func (h *BcryptHasher) Cost() int {
	return h.cost
}

func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hash slot: %w", err)
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

// Verify reports whether plaintext matches hash. A mismatch is (false, nil);
// a malformed hash is an error. Input over MaxLength never matches, though the
// comparison still runs so the call costs the same.
func (h *BcryptHasher) Verify(ctx context.Context, plaintext string, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("acquire hash slot: %w", err)
	}
	defer h.sem.Release(1)

	tooLong := len(plaintext) > MaxLength
	if tooLong {
		plaintext = plaintext[:MaxLength]
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return !tooLong, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, fmt.Errorf("verify password: %w", err)
}
