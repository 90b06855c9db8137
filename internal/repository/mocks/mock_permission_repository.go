package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docvault/internal/model"
)

type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) Grant(ctx context.Context, p model.Permission) (model.Permission, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.Permission), args.Error(1)
}

func (m *MockPermissionRepository) ListByUser(ctx context.Context, userID string) ([]model.Permission, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Permission), args.Error(1)
}

func (m *MockPermissionRepository) ListByDocument(ctx context.Context, documentID string) ([]model.Permission, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Permission), args.Error(1)
}

func (m *MockPermissionRepository) Revoke(ctx context.Context, p model.Permission) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}
