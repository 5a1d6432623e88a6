package mocks

import (
	"context"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/stretchr/testify/mock"
)

// ClientStore is a mock for domain.ClientStore.
type ClientStore struct {
	mock.Mock
}

func (m *ClientStore) List(ctx context.Context) ([]domain.Client, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]domain.Client); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ClientStore) Insert(ctx context.Context, w domain.ClientWrite, createdBy *string) (*domain.Client, error) {
	args := m.Called(ctx, w, createdBy)
	if c, ok := args.Get(0).(*domain.Client); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ClientStore) Update(ctx context.Context, id string, w domain.ClientWrite) error {
	args := m.Called(ctx, id, w)
	return args.Error(0)
}

func (m *ClientStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ClientStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
