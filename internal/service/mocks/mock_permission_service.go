package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docvault/internal/model"
	"docvault/internal/service"
)

type MockPermissionService struct {
	mock.Mock
}

func (m *MockPermissionService) Grant(ctx context.Context, req service.GrantRequest) (model.Permission, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.Permission), args.Error(1)
}

func (m *MockPermissionService) Revoke(ctx context.Context, req service.RevokeRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockPermissionService) ListGrants(ctx context.Context, rawToken, documentID string) ([]model.Permission, error) {
	args := m.Called(ctx, rawToken, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Permission), args.Error(1)
}

func (m *MockPermissionService) HasCapability(ctx context.Context, userID, documentID string, required model.DocumentRole) (bool, error) {
	args := m.Called(ctx, userID, documentID, required)
	return args.Bool(0), args.Error(1)
}

func (m *MockPermissionService) GrantAs(ctx context.Context, actorID, targetUserID, documentID string, role model.DocumentRole) (model.Permission, error) {
	args := m.Called(ctx, actorID, targetUserID, documentID, role)
	return args.Get(0).(model.Permission), args.Error(1)
}

func (m *MockPermissionService) VisibleDocumentIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
