package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"docvault/internal/model"
	"docvault/internal/repository"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc model.Document) (model.Document, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc model.Document) (model.Document, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (model.Document, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByCreator(ctx context.Context, creatorID string) ([]model.Document, error) {
	args := m.Called(ctx, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) Search(ctx context.Context, f repository.SearchFilter) ([]model.Document, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListOrphans(ctx context.Context, olderThan time.Time, limit int) ([]model.Document, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}
