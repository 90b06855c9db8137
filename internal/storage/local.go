package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"docvault/internal/model"
)

// localStorage keeps files under a root directory on disk. Writes go to a
// uniquely named temp file, are fsynced and then moved into place, so
// concurrent writers never share a temp file.
type localStorage struct {
	root        string
	downloadDir string
}

// NewLocal creates the root and download directories if missing.
func NewLocal(root, downloadDir string) (FileStorage, error) {
	if root == "" || downloadDir == "" {
		return nil, errors.New("local storage root and download directory are required")
	}
	for _, dir := range []string{root, downloadDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return &localStorage{root: root, downloadDir: downloadDir}, nil
}

func (l *localStorage) PathFor(ownerID, name string, format model.Format) (string, error) {
	return ObjectName(ownerID, name, format)
}

func (l *localStorage) Upload(ctx context.Context, in UploadInput) (Object, error) {
	format, err := ResolveFormat(in.Format, in.ContentType)
	if err != nil {
		return Object{}, err
	}
	key, err := ObjectName(in.OwnerID, in.Name, format)
	if err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	full := l.full(key)
	if _, err := os.Stat(full); err == nil {
		return Object{}, ErrAlreadyExists
	}
	tmp, size, err := writeTemp(full, in.Body)
	if err != nil {
		return Object{}, err
	}
	// Link fails if another upload claimed the key after the stat above.
	if err := linkNoClobber(tmp, full); err != nil {
		return Object{}, err
	}
	return Object{Path: key, Format: format, Size: size}, nil
}

func (l *localStorage) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, dst := l.full(oldPath), l.full(newPath)
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err := os.Link(src, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("rename %s: %w", oldPath, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("rename %s: %w", oldPath, err)
	}
	return nil
}

func (l *localStorage) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(l.full(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (l *localStorage) CopyToDownloadArea(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := os.Open(l.full(path))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	dst := filepath.Join(l.downloadDir, filepath.Base(path))
	tmp, _, err := writeTemp(dst, src)
	if err != nil {
		return "", err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("move download into place: %w", err)
	}
	return dst, nil
}

// full maps a key to a path under root. Keys are flattened to their base name.
func (l *localStorage) full(key string) string {
	return filepath.Join(l.root, filepath.Base(filepath.Clean("/"+key)))
}

// writeTemp streams r into a fresh temp file beside path and fsyncs it. The
// caller moves the returned temp file into place.
func writeTemp(path string, r io.Reader) (string, int64, error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	fail := func(msg string, err error) (string, int64, error) {
		f.Close()
		os.Remove(tmp)
		return "", 0, fmt.Errorf("%s: %w", msg, err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		return fail("write file", err)
	}
	if err := f.Sync(); err != nil {
		return fail("fsync", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", 0, fmt.Errorf("close file: %w", err)
	}
	return tmp, size, nil
}

// linkNoClobber publishes tmp at path unless path already exists. tmp is
// always removed.
func linkNoClobber(tmp, path string) error {
	defer os.Remove(tmp)
	if err := os.Link(tmp, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("publish file: %w", err)
	}
	return nil
}
