// Package repository contains the persistence ports used by the workflows.
// Implementations live in subpackages (postgres, cache) and hold no business logic.
// Records cross the boundary by value.
package repository

import (
	"context"
	"errors"
	"time"

	"docvault/internal/model"
)

var (
	ErrNotFound         = errors.New("repository: record not found")
	ErrAlreadyExists    = errors.New("repository: record already exists")
	ErrInvalidReference = errors.New("repository: referenced record does not exist")
)

// DocumentRepository persists documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc model.Document) (model.Document, error)
	// Update overwrites the file path and metadata of an existing document.
	Update(ctx context.Context, doc model.Document) (model.Document, error)
	FindByID(ctx context.Context, id string) (model.Document, error)
	ListByCreator(ctx context.Context, creatorID string) ([]model.Document, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, f SearchFilter) ([]model.Document, error)
	// ListOrphans returns documents created before olderThan that have no CREATOR permission.
	ListOrphans(ctx context.Context, olderThan time.Time, limit int) ([]model.Document, error)
}

// PermissionRepository persists permissions.
type PermissionRepository interface {
	Grant(ctx context.Context, p model.Permission) (model.Permission, error)
	ListByUser(ctx context.Context, userID string) ([]model.Permission, error)
	ListByDocument(ctx context.Context, documentID string) ([]model.Permission, error)
	// Revoke removes p by id and reports whether a row was removed.
	Revoke(ctx context.Context, p model.Permission) (bool, error)
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, u model.User) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// SearchFilter narrows a document search. Zero fields are ignored; a nil
// DocumentIDs means no id restriction while an empty one matches nothing.
type SearchFilter struct {
	Name        string
	Tags        []string
	Format      model.Format
	CreatedOn   time.Time
	UpdatedOn   time.Time
	UpdatedBy   string
	DocumentIDs []string
}

// Empty reports whether no criterion other than the id restriction is set.
func (f SearchFilter) Empty() bool {
	return f.Name == "" && len(f.Tags) == 0 && f.Format == "" &&
		f.CreatedOn.IsZero() && f.UpdatedOn.IsZero() && f.UpdatedBy == ""
}
