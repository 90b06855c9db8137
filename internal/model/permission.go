package model

import (
	"time"

	"github.com/google/uuid"

	"docvault/internal/validate"
)

// Permission is an immutable grant: UserID may act on DocumentID with Role,
// granted by CreatorID. Permissions are granted or revoked, never edited.
type Permission struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	CreatorID  string       `json:"creator_id"`
	DocumentID string       `json:"document_id"`
	Role       DocumentRole `json:"permission_type"`
	CreatedAt  time.Time    `json:"created_at"`
}

// PermissionParams feeds NewPermission. ID and CreatedAt are set only when rehydrating.
type PermissionParams struct {
	UserID     string
	CreatorID  string
	DocumentID string
	Role       DocumentRole

	ID        string
	CreatedAt time.Time
}

// NewPermission builds and validates a permission.
func NewPermission(p PermissionParams) (Permission, error) {
	perm := Permission{
		ID:         p.ID,
		UserID:     p.UserID,
		CreatorID:  p.CreatorID,
		DocumentID: p.DocumentID,
		Role:       p.Role,
		CreatedAt:  p.CreatedAt,
	}
	if perm.ID == "" {
		perm.ID = uuid.NewString()
	}
	if perm.CreatedAt.IsZero() {
		perm.CreatedAt = Now()
	}
	if err := ValidatePermission(perm); err != nil {
		return Permission{}, err
	}
	return perm, nil
}

// ValidatePermission checks id, userId, creatorId, documentId, createdAt and role, in that order.
func ValidatePermission(p Permission) error {
	for _, id := range []string{p.ID, p.UserID, p.CreatorID, p.DocumentID} {
		if _, err := validate.UUID(id); err != nil {
			return err
		}
	}
	if _, err := validate.Date(p.CreatedAt); err != nil {
		return err
	}
	if _, err := validate.Enum(string(p.Role), DocumentRoles...); err != nil {
		return err
	}
	return nil
}
