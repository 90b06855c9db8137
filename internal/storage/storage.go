// Package storage holds the file storage port used by the document workflows
// and its local-disk and S3-compatible (MinIO) adapters.
//
// Paths handed out by an adapter are opaque keys relative to the adapter's root,
// of the form <ownerId>--<name>.<ext>, so no host path leaves the adapter.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"docvault/internal/model"
)

var (
	ErrUnsupportedFormat = errors.New("storage: unsupported format")
	ErrNotFound          = errors.New("storage: object not found")
	ErrAlreadyExists     = errors.New("storage: object already exists")
	ErrInvalidName       = errors.New("storage: invalid object name")
)

// UploadInput describes a file to store. Format wins over ContentType when both are set.
type UploadInput struct {
	OwnerID     string
	Name        string
	Format      model.Format
	ContentType string
	Body        io.Reader
	Size        int64
}

// Object is a stored file.
type Object struct {
	Path   string
	Format model.Format
	Size   int64
}

// FileStorage is the file side-effect port.
type FileStorage interface {
	// Upload stores the body under the path derived from owner, name and format.
	Upload(ctx context.Context, in UploadInput) (Object, error)
	// PathFor returns the path Upload would use, without touching storage.
	PathFor(ownerID, name string, format model.Format) (string, error)
	// Rename moves a stored file. The destination must not exist.
	Rename(ctx context.Context, oldPath, newPath string) error
	// Delete removes a stored file. A missing file is not an error.
	Delete(ctx context.Context, path string) error
	// CopyToDownloadArea copies a stored file to the caller-visible download area
	// and returns where it can be fetched from.
	CopyToDownloadArea(ctx context.Context, path string) (string, error)
}

// ResolveFormat picks the format of an upload: an explicit format must be
// supported, otherwise the content type is mapped.
func ResolveFormat(format model.Format, contentType string) (model.Format, error) {
	if format != "" {
		for _, f := range model.Formats {
			if f == format {
				return f, nil
			}
		}
		return "", ErrUnsupportedFormat
	}
	f, ok := model.FormatFromMIME(contentType)
	if !ok {
		return "", ErrUnsupportedFormat
	}
	return f, nil
}

// ObjectName builds <ownerId>--<name>.<ext> from sanitized components.
func ObjectName(ownerID, name string, format model.Format) (string, error) {
	owner := SanitizeName(ownerID)
	base := SanitizeName(name)
	if owner == "" || base == "" || format == "" {
		return "", ErrInvalidName
	}
	return owner + "--" + base + "." + string(format), nil
}

// SanitizeName replaces every character outside [A-Za-z0-9 ._-] with '_' and trims
// leading dots and spaces, so a name can never address a parent directory.
func SanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == ' ', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.TrimLeft(b.String(), ". ")
}
