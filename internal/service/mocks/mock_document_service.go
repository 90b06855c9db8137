package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docvault/internal/model"
	"docvault/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Create(ctx context.Context, req service.CreateDocumentRequest) (model.Document, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.Document), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, req service.UpdateDocumentRequest) (model.Document, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, rawToken, documentID string) (model.Document, error) {
	args := m.Called(ctx, rawToken, documentID)
	return args.Get(0).(model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, rawToken string) ([]model.Document, error) {
	args := m.Called(ctx, rawToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, rawToken, documentID string) (service.DownloadResult, error) {
	args := m.Called(ctx, rawToken, documentID)
	return args.Get(0).(service.DownloadResult), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, rawToken, documentID string) (bool, error) {
	args := m.Called(ctx, rawToken, documentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentService) Search(ctx context.Context, req service.SearchDocumentsRequest) ([]model.Document, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}
