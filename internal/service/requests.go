package service

import (
	"io"

	"docvault/internal/model"
)

// CreateDocumentRequest carries a new document. Format may be empty, in which
// case it is derived from ContentType.
type CreateDocumentRequest struct {
	Token       string
	Name        string
	Tags        []string
	Format      model.Format
	ContentType string
	Body        io.Reader
	Size        int64
}

// UpdateDocumentRequest changes a document's name and/or tags. A nil field is left unchanged.
type UpdateDocumentRequest struct {
	Token      string
	DocumentID string
	Name       *string
	Tags       *[]string
}

// SearchDocumentsRequest filters the documents visible to the caller.
// CreatedOn and UpdatedOn are calendar days (YYYY-MM-DD).
type SearchDocumentsRequest struct {
	Token     string
	Name      string
	Tags      []string
	Format    string
	CreatedOn string
	UpdatedOn string
	UpdatedBy string
}

// DownloadResult is a document plus where its copy can be fetched.
type DownloadResult struct {
	Document model.Document `json:"document"`
	Location string         `json:"location"`
}

// GrantRequest gives UserID the Role on DocumentID.
type GrantRequest struct {
	Token      string
	DocumentID string
	UserID     string
	Role       model.DocumentRole
}

// RevokeRequest removes UserID's Role on DocumentID.
type RevokeRequest struct {
	Token      string
	DocumentID string
	UserID     string
	Role       model.DocumentRole
}

type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

// UpdateProfileRequest changes the account UserID, or the caller's own
// account when UserID is empty.
type UpdateProfileRequest struct {
	Token  string
	UserID string
	Name   *string
	Email  *string
}

type ChangePasswordRequest struct {
	Token       string
	OldPassword string
	NewPassword string
}
