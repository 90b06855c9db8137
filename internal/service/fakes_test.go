package service

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
	"docvault/internal/token"
)

const testSecret = "test-secret"

// fakeDB is an in-memory document and permission store with the same
// uniqueness and cascade rules as the postgres schema.
type fakeDB struct {
	mu    sync.Mutex
	docs  map[string]model.Document
	perms map[string]model.Permission

	updateErr error
	grantErr  error
	findErr   map[string]error
	// hideOwned makes ListByCreator miss existing rows, as a concurrent
	// create does before either insert commits.
	hideOwned bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		docs:    map[string]model.Document{},
		perms:   map[string]model.Permission{},
		findErr: map[string]error{},
	}
}

func (f *fakeDB) Create(_ context.Context, doc model.Document) (model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if d.ID == doc.ID || (d.CreatorID == doc.CreatorID && d.Name() == doc.Name()) {
			return model.Document{}, repository.ErrAlreadyExists
		}
	}
	f.docs[doc.ID] = doc
	return doc, nil
}

func (f *fakeDB) Update(_ context.Context, doc model.Document) (model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return model.Document{}, f.updateErr
	}
	if _, ok := f.docs[doc.ID]; !ok {
		return model.Document{}, repository.ErrNotFound
	}
	f.docs[doc.ID] = doc
	return doc, nil
}

func (f *fakeDB) FindByID(_ context.Context, id string) (model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.findErr[id]; err != nil {
		return model.Document{}, err
	}
	d, ok := f.docs[id]
	if !ok {
		return model.Document{}, repository.ErrNotFound
	}
	return d, nil
}

func (f *fakeDB) ListByCreator(_ context.Context, creatorID string) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Document
	if f.hideOwned {
		return out, nil
	}
	for _, d := range f.docs {
		if d.CreatorID == creatorID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDB) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return false, nil
	}
	delete(f.docs, id)
	for pid, p := range f.perms {
		if p.DocumentID == id {
			delete(f.perms, pid)
		}
	}
	return true, nil
}

func (f *fakeDB) Search(_ context.Context, filter repository.SearchFilter) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sameDay := func(a, b time.Time) bool { return a.UTC().Format(time.DateOnly) == b.UTC().Format(time.DateOnly) }

	var out []model.Document
	for _, d := range f.docs {
		switch {
		case filter.DocumentIDs != nil && !slices.Contains(filter.DocumentIDs, d.ID):
		case filter.Name != "" && !strings.Contains(strings.ToLower(d.Name()), strings.ToLower(filter.Name)):
		case len(filter.Tags) > 0 && !slices.ContainsFunc(filter.Tags, func(t string) bool { return slices.Contains(d.Metadata.Tags, t) }):
		case filter.Format != "" && d.Metadata.DocumentFormat != filter.Format:
		case !filter.CreatedOn.IsZero() && !sameDay(d.CreatedAt, filter.CreatedOn):
		case !filter.UpdatedOn.IsZero() && !sameDay(d.Metadata.UpdatedAt, filter.UpdatedOn):
		case filter.UpdatedBy != "" && d.Metadata.UpdatedBy != filter.UpdatedBy:
		default:
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDB) ListOrphans(_ context.Context, olderThan time.Time, limit int) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Document
	for _, d := range f.docs {
		if !d.CreatedAt.Before(olderThan) || f.hasCreatorLocked(d.ID) {
			continue
		}
		out = append(out, d)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeDB) Grant(_ context.Context, p model.Permission) (model.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.grantErr != nil {
		return model.Permission{}, f.grantErr
	}
	if _, ok := f.docs[p.DocumentID]; !ok {
		return model.Permission{}, repository.ErrInvalidReference
	}
	for _, q := range f.perms {
		if q.UserID == p.UserID && q.DocumentID == p.DocumentID {
			return model.Permission{}, repository.ErrAlreadyExists
		}
	}
	f.perms[p.ID] = p
	return p, nil
}

func (f *fakeDB) ListByUser(_ context.Context, userID string) ([]model.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Permission
	for _, p := range f.perms {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeDB) ListByDocument(_ context.Context, documentID string) ([]model.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Permission
	for _, p := range f.perms {
		if p.DocumentID == documentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeDB) Revoke(_ context.Context, p model.Permission) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.perms[p.ID]; !ok {
		return false, nil
	}
	delete(f.perms, p.ID)
	return true, nil
}

func (f *fakeDB) hasCreatorLocked(documentID string) bool {
	for _, p := range f.perms {
		if p.DocumentID == documentID && p.Role == model.RoleCreator {
			return true
		}
	}
	return false
}

func (f *fakeDB) document(t *testing.T, id string) model.Document {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	require.True(t, ok, "document %s not stored", id)
	return d
}

// fakeFiles is an in-memory FileStorage.
type fakeFiles struct {
	mu        sync.Mutex
	files     map[string][]byte
	renameErr error
	deleteErr error
	uploads   int
	// overwrite lets Upload replace an existing key, like a plain object PUT.
	overwrite bool
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{files: map[string][]byte{}}
}

func (f *fakeFiles) Upload(_ context.Context, in storage.UploadInput) (storage.Object, error) {
	format, err := storage.ResolveFormat(in.Format, in.ContentType)
	if err != nil {
		return storage.Object{}, err
	}
	path, err := storage.ObjectName(in.OwnerID, in.Name, format)
	if err != nil {
		return storage.Object{}, err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return storage.Object{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[path]; ok && !f.overwrite {
		return storage.Object{}, storage.ErrAlreadyExists
	}
	f.uploads++
	f.files[path] = body
	return storage.Object{Path: path, Format: format, Size: int64(len(body))}, nil
}

func (f *fakeFiles) PathFor(ownerID, name string, format model.Format) (string, error) {
	return storage.ObjectName(ownerID, name, format)
}

func (f *fakeFiles) Rename(_ context.Context, oldPath, newPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renameErr != nil {
		return f.renameErr
	}
	body, ok := f.files[oldPath]
	if !ok {
		return storage.ErrNotFound
	}
	if _, ok := f.files[newPath]; ok {
		return storage.ErrAlreadyExists
	}
	delete(f.files, oldPath)
	f.files[newPath] = body
	return nil
}

func (f *fakeFiles) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.files, path)
	return nil
}

func (f *fakeFiles) CopyToDownloadArea(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.files[path]
	if !ok {
		return "", storage.ErrNotFound
	}
	dst := "downloads/" + path
	f.files[dst] = body
	return dst, nil
}

func (f *fakeFiles) has(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok
}

// env wires the real services over the fakes.
type env struct {
	tokens token.Service
	db     *fakeDB
	files  *fakeFiles
	perms  PermissionService
	docs   DocumentService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	tokens, err := token.NewJWTService(testSecret, "HS256", time.Hour)
	require.NoError(t, err)
	db := newFakeDB()
	files := newFakeFiles()
	log := zap.NewNop()
	perms := NewPermissionService(tokens, db, db, log)
	return &env{
		tokens: tokens,
		db:     db,
		files:  files,
		perms:  perms,
		docs:   NewDocumentService(tokens, perms, db, files, log),
	}
}

func (e *env) token(t *testing.T, userID string) string {
	t.Helper()
	raw, err := e.tokens.Sign(token.Payload{UserID: userID, Role: model.UserRoleUser})
	require.NoError(t, err)
	return raw
}

func (e *env) create(t *testing.T, userID, name string, tags ...string) model.Document {
	t.Helper()
	doc, err := e.docs.Create(context.Background(), CreateDocumentRequest{
		Token:       e.token(t, userID),
		Name:        name,
		Tags:        tags,
		ContentType: "application/pdf",
		Body:        strings.NewReader("%PDF-1.4"),
		Size:        8,
	})
	require.NoError(t, err)
	return doc
}

func expiredToken(t *testing.T, userID string) string {
	t.Helper()
	claims := token.Claims{
		UserID: userID,
		Role:   model.UserRoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func newUserID() string { return uuid.NewString() }
