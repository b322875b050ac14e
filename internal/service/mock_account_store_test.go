package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"agri-auth/internal/model"
)

type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) Create(ctx context.Context, a model.Account) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAccountStore) FindByEmail(ctx context.Context, email string) (model.Account, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *MockAccountStore) FindByID(ctx context.Context, id string) (model.Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Account), args.Error(1)
}
