package repository

import (
	"context"
	"sync"

	"agri-auth/internal/model"
)

// MemoryAccountRepository keeps accounts in process. It backs STORE_DRIVER=memory
// and the unit tests, and enforces email uniqueness the same way the unique index does.
type MemoryAccountRepository struct {
	mu      sync.RWMutex
	byEmail map[string]model.Account
	byID    map[string]model.Account
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byEmail: map[string]model.Account{},
		byID:    map[string]model.Account{},
	}
}

func (r *MemoryAccountRepository) Create(ctx context.Context, a model.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[a.Email]; exists {
		return model.ErrDuplicateAccount
	}
	r.byEmail[a.Email] = a
	r.byID[a.ID] = a
	return nil
}

func (r *MemoryAccountRepository) FindByEmail(ctx context.Context, email string) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.byEmail[email]
	if !exists {
		return model.Account{}, model.ErrAccountNotFound
	}
	return a, nil
}

func (r *MemoryAccountRepository) FindByID(ctx context.Context, id string) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.byID[id]
	if !exists {
		return model.Account{}, model.ErrAccountNotFound
	}
	return a, nil
}

func (r *MemoryAccountRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}

// Health always succeeds; there is nothing to ping.
func (r *MemoryAccountRepository) Health(context.Context) error {
	return nil
}
