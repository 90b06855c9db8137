package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docvault/internal/model"
	"docvault/internal/service"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req service.RegisterRequest) (model.User, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockUserService) GetProfile(ctx context.Context, rawToken, userID string) (model.User, error) {
	args := m.Called(ctx, rawToken, userID)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, req service.UpdateProfileRequest) (model.User, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, req service.ChangePasswordRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockUserService) DeleteAccount(ctx context.Context, rawToken, userID string) error {
	args := m.Called(ctx, rawToken, userID)
	return args.Error(0)
}
