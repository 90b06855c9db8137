package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docvault/internal/model"
	"docvault/internal/storage"
)

type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) Upload(ctx context.Context, in storage.UploadInput) (storage.Object, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(storage.Object), args.Error(1)
}

func (m *MockFileStorage) PathFor(ownerID, name string, format model.Format) (string, error) {
	args := m.Called(ownerID, name, format)
	return args.String(0), args.Error(1)
}

func (m *MockFileStorage) Rename(ctx context.Context, oldPath, newPath string) error {
	args := m.Called(ctx, oldPath, newPath)
	return args.Error(0)
}

func (m *MockFileStorage) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockFileStorage) CopyToDownloadArea(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}
