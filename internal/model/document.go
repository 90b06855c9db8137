package model

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"docvault/internal/validate"
)

const (
	MaxDocumentNameLength = 100
	MaxTagLength          = 20
	MaxFilePathLength     = 1024
)

// DocumentMetadata is the mutable part of a document.
type DocumentMetadata struct {
	Name           string    `json:"name"`
	Tags           []string  `json:"tags"`
	DocumentFormat Format    `json:"document_format"`
	UpdatedAt      time.Time `json:"updated_at"`
	UpdatedBy      string    `json:"updated_by"`
}

// Document is an immutable value record. Mutators return a new validated copy;
// CreatorID never changes for the lifetime of a document.
type Document struct {
	ID        string           `json:"id"`
	CreatorID string           `json:"creator_id"`
	CreatedAt time.Time        `json:"created_at"`
	FilePath  string           `json:"file_path"`
	Metadata  DocumentMetadata `json:"metadata"`
}

// DocumentParams feeds NewDocument. ID, CreatedAt, UpdatedAt and UpdatedBy are
// set only when rehydrating a stored record; left empty, a fresh document gets
// a random id, the current time and UpdatedBy = CreatorID.
type DocumentParams struct {
	CreatorID string
	FilePath  string
	Name      string
	Tags      []string
	Format    Format

	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	UpdatedBy string
}

// NewDocument builds and validates a document.
func NewDocument(p DocumentParams) (Document, error) {
	now := Now()
	d := Document{
		ID:        p.ID,
		CreatorID: p.CreatorID,
		CreatedAt: p.CreatedAt,
		FilePath:  p.FilePath,
		Metadata: DocumentMetadata{
			Name:           p.Name,
			Tags:           cloneTags(p.Tags),
			DocumentFormat: p.Format,
			UpdatedAt:      p.UpdatedAt,
			UpdatedBy:      p.UpdatedBy,
		},
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.Metadata.UpdatedAt.IsZero() {
		d.Metadata.UpdatedAt = d.CreatedAt
	}
	if d.Metadata.UpdatedBy == "" {
		d.Metadata.UpdatedBy = d.CreatorID
	}
	if err := ValidateDocument(d); err != nil {
		return Document{}, err
	}
	return d, nil
}

// ValidateDocument checks every field in a fixed order and reports the first failure.
func ValidateDocument(d Document) error {
	if _, err := validate.UUID(d.ID); err != nil {
		return err
	}
	if _, err := validate.UUID(d.CreatorID); err != nil {
		return err
	}
	if _, err := validate.Date(d.CreatedAt); err != nil {
		return err
	}
	if _, err := validate.String(d.FilePath, MaxFilePathLength); err != nil {
		return err
	}
	return ValidateDocumentMetadata(d.Metadata)
}

// ValidateDocumentMetadata checks name, tags, updatedAt, updatedBy and format, in that order.
func ValidateDocumentMetadata(m DocumentMetadata) error {
	if _, err := validate.String(m.Name, MaxDocumentNameLength); err != nil {
		return err
	}
	if _, err := validate.Strings(m.Tags, MaxTagLength); err != nil {
		return err
	}
	if _, err := validate.Date(m.UpdatedAt); err != nil {
		return err
	}
	if _, err := validate.UUID(m.UpdatedBy); err != nil {
		return err
	}
	if _, err := validate.Enum(string(m.DocumentFormat), Formats...); err != nil {
		return err
	}
	return nil
}

// Name returns the document name.
func (d Document) Name() string { return d.Metadata.Name }

// WithName returns a copy renamed by userID. UpdatedAt and UpdatedBy move together.
func (d Document) WithName(userID, name string) (Document, error) {
	if _, err := validate.String(name, MaxDocumentNameLength); err != nil {
		return Document{}, err
	}
	if _, err := validate.UUID(userID); err != nil {
		return Document{}, err
	}
	out := d.clone()
	out.Metadata.Name = name
	out.touch(userID)
	return out, nil
}

// WithTags returns a copy retagged by userID. UpdatedAt and UpdatedBy move together.
func (d Document) WithTags(userID string, tags []string) (Document, error) {
	if _, err := validate.Strings(tags, MaxTagLength); err != nil {
		return Document{}, err
	}
	if _, err := validate.UUID(userID); err != nil {
		return Document{}, err
	}
	out := d.clone()
	out.Metadata.Tags = cloneTags(tags)
	out.touch(userID)
	return out, nil
}

// WithFilePath returns a copy pointing at a new storage location.
func (d Document) WithFilePath(path string) (Document, error) {
	if _, err := validate.String(path, MaxFilePathLength); err != nil {
		return Document{}, err
	}
	out := d.clone()
	out.FilePath = path
	return out, nil
}

func (d *Document) touch(userID string) {
	d.Metadata.UpdatedAt = Now()
	d.Metadata.UpdatedBy = userID
}

func (d Document) clone() Document {
	d.Metadata.Tags = cloneTags(d.Metadata.Tags)
	return d
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return slices.Clone(tags)
}

// Now is the clock used by the factories, truncated to the precision PostgreSQL stores.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
