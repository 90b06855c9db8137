package service

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docvault/internal/apperr"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
	"docvault/internal/token"
	"docvault/internal/validate"
)

// listFetchConcurrency bounds the parallel document reads of List.
const listFetchConcurrency = 8

// DocumentService defines the document workflows. Each call verifies the bearer
// token, checks the caller's permission, performs the file side effect and then
// commits the record.
type DocumentService interface {
	// Create uploads the file, persists the document and grants its creator the CREATOR role.
	// If a later step fails the earlier side effects are undone.
	Create(ctx context.Context, req CreateDocumentRequest) (model.Document, error)

	// Update renames and/or retags a document. Requires EDITOR or CREATOR.
	// A rename moves the stored file before the record is committed.
	Update(ctx context.Context, req UpdateDocumentRequest) (model.Document, error)

	// Get returns one document. Requires any role.
	Get(ctx context.Context, rawToken, documentID string) (model.Document, error)

	// List returns every document the caller holds any role on. Documents that
	// cannot be read are left out; an empty result is ErrNoDocumentsFound.
	List(ctx context.Context, rawToken string) ([]model.Document, error)

	// Download copies the stored file to the download area. Requires any role.
	Download(ctx context.Context, rawToken, documentID string) (DownloadResult, error)

	// Delete removes the file and then the record. Requires CREATOR.
	// If the file cannot be removed the record is kept.
	Delete(ctx context.Context, rawToken, documentID string) (bool, error)

	// Search filters the documents visible to the caller. An empty result is ErrDocumentDoesNotExist.
	Search(ctx context.Context, req SearchDocumentsRequest) ([]model.Document, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	tokens token.Service
	perms  PermissionService
	docs   repository.DocumentRepository
	store  storage.FileStorage
	log    *zap.Logger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(tokens token.Service, perms PermissionService, docs repository.DocumentRepository, store storage.FileStorage, log *zap.Logger) DocumentService {
	return &documentService{tokens: tokens, perms: perms, docs: docs, store: store, log: log}
}

func (s *documentService) Create(ctx context.Context, req CreateDocumentRequest) (doc model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Create")
	defer func() { finishSpan(span, err) }()

	actor, err := actorIDFrom(s.tokens, req.Token)
	if err != nil {
		return model.Document{}, err
	}
	if _, err := validate.String(req.Name, model.MaxDocumentNameLength); err != nil {
		return model.Document{}, err
	}
	if _, err := validate.Strings(req.Tags, model.MaxTagLength); err != nil {
		return model.Document{}, err
	}
	if req.Body == nil {
		return model.Document{}, ErrEmptyFile
	}

	owned, err := s.docs.ListByCreator(ctx, actor)
	if err != nil {
		return model.Document{}, apperr.Persistence(err)
	}
	for _, d := range owned {
		if d.Name() == req.Name {
			return model.Document{}, ErrDocumentAlreadyExists
		}
	}

	obj, err := s.store.Upload(ctx, storage.UploadInput{
		OwnerID:     actor,
		Name:        req.Name,
		Format:      req.Format,
		ContentType: req.ContentType,
		Body:        req.Body,
		Size:        req.Size,
	})
	if err != nil {
		return model.Document{}, storageError(err)
	}

	doc, err = model.NewDocument(model.DocumentParams{
		CreatorID: actor,
		FilePath:  obj.Path,
		Name:      req.Name,
		Tags:      req.Tags,
		Format:    obj.Format,
	})
	if err != nil {
		s.removeFile(ctx, obj.Path, "create")
		return model.Document{}, err
	}

	stored, err := s.docs.Create(ctx, doc)
	if err != nil {
		// A unique violation means a concurrent create of the same name won
		// the row, and obj.Path is that document's file now.
		if !errors.Is(err, repository.ErrAlreadyExists) {
			s.removeFile(ctx, obj.Path, "create")
		}
		return model.Document{}, documentWriteError(err)
	}

	if _, err := s.perms.GrantAs(ctx, actor, actor, stored.ID, model.RoleCreator); err != nil {
		s.log.Warn("creator grant failed, rolling back document",
			zap.String("op", "create"),
			zap.String("user_id", actor),
			zap.String("document_id", stored.ID),
			zap.Error(err),
		)
		if _, delErr := s.docs.Delete(ctx, stored.ID); delErr != nil {
			s.log.Error("rollback of document row failed",
				zap.String("op", "create"),
				zap.String("document_id", stored.ID),
				zap.Error(delErr),
			)
		}
		s.removeFile(ctx, obj.Path, "create")
		return model.Document{}, err
	}

	s.log.Info("document created",
		zap.String("op", "create"),
		zap.String("user_id", actor),
		zap.String("document_id", stored.ID),
		zap.String("format", string(stored.Metadata.DocumentFormat)),
	)
	return stored, nil
}

func (s *documentService) Update(ctx context.Context, req UpdateDocumentRequest) (doc model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Update")
	defer func() { finishSpan(span, err) }()

	actor, err := actorIDFrom(s.tokens, req.Token)
	if err != nil {
		return model.Document{}, err
	}
	if _, err := validate.UUID(req.DocumentID); err != nil {
		return model.Document{}, err
	}
	if req.Name == nil && req.Tags == nil {
		return model.Document{}, ErrNothingToUpdate
	}

	current, err := s.authorize(ctx, actor, req.DocumentID, model.RoleEditor)
	if err != nil {
		return model.Document{}, err
	}

	updated := current
	rename := req.Name != nil && *req.Name != current.Name()
	if rename {
		if updated, err = updated.WithName(actor, *req.Name); err != nil {
			return model.Document{}, err
		}
		if err := s.ensureNameFree(ctx, current.CreatorID, current.ID, *req.Name); err != nil {
			return model.Document{}, err
		}
	}
	if req.Tags != nil {
		if updated, err = updated.WithTags(actor, *req.Tags); err != nil {
			return model.Document{}, err
		}
	}
	if !rename && req.Tags == nil {
		return current, nil
	}

	moved := false
	if rename {
		newPath, err := s.store.PathFor(current.CreatorID, *req.Name, current.Metadata.DocumentFormat)
		if err != nil {
			return model.Document{}, storageError(err)
		}
		if newPath != current.FilePath {
			if err := s.store.Rename(ctx, current.FilePath, newPath); err != nil {
				return model.Document{}, storageError(err)
			}
			moved = true
		}
		if updated, err = updated.WithFilePath(newPath); err != nil {
			s.restorePath(ctx, moved, newPath, current.FilePath)
			return model.Document{}, err
		}
	}

	stored, err := s.docs.Update(ctx, updated)
	if err != nil {
		s.restorePath(ctx, moved, updated.FilePath, current.FilePath)
		return model.Document{}, documentWriteError(err)
	}

	s.log.Info("document updated",
		zap.String("op", "update"),
		zap.String("user_id", actor),
		zap.String("document_id", stored.ID),
		zap.Bool("renamed", rename),
	)
	return stored, nil
}

func (s *documentService) Get(ctx context.Context, rawToken, documentID string) (doc model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Get")
	defer func() { finishSpan(span, err) }()

	actor, err := actorIDFrom(s.tokens, rawToken)
	if err != nil {
		return model.Document{}, err
	}
	if _, err := validate.UUID(documentID); err != nil {
		return model.Document{}, err
	}
	return s.authorize(ctx, actor, documentID, model.RoleViewer)
}

func (s *documentService) List(ctx context.Context, rawToken string) (docs []model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.List")
	defer func() { finishSpan(span, err) }()

	actor, err := actorIDFrom(s.tokens, rawToken)
	if err != nil {
		return nil, err
	}
	ids, err := s.perms.VisibleDocumentIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("documents.visible", len(ids)))

	found := make([]*model.Document, len(ids))
	var dropped sync.Map
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listFetchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			d, err := s.docs.FindByID(gctx, id)
			if err != nil {
				dropped.Store(id, err)
				return nil
			}
			found[i] = &d
			return nil
		})
	}
	_ = g.Wait()

	dropped.Range(func(k, v any) bool {
		s.log.Debug("document dropped from listing",
			zap.String("user_id", actor),
			zap.String("document_id", k.(string)),
			zap.Error(v.(error)),
		)
		return true
	})

	docs = make([]model.Document, 0, len(ids))
	for _, d := range found {
		if d != nil {
			docs = append(docs, *d)
		}
	}
	if len(docs) == 0 {
		return nil, ErrNoDocumentsFound
	}
	return docs, nil
}

func (s *documentService) Download(ctx context.Context, rawToken, documentID string) (res DownloadResult, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Download")
	defer func() { finishSpan(span, err) }()

	actor, err := actorIDFrom(s.tokens, rawToken)
	if err != nil {
		return DownloadResult{}, err
	}
	if _, err := validate.UUID(documentID); err != nil {
		return DownloadResult{}, err
	}
	doc, err := s.authorize(ctx, actor, documentID, model.RoleViewer)
	if err != nil {
		return DownloadResult{}, err
	}

	loc, err := s.store.CopyToDownloadArea(ctx, doc.FilePath)
	if err != nil {
		return DownloadResult{}, apperr.Storage(err)
	}

	s.log.Info("document downloaded",
		zap.String("op", "download"),
		zap.String("user_id", actor),
		zap.String("document_id", doc.ID),
	)
	return DownloadResult{Document: doc, Location: loc}, nil
}

func (s *documentService) Delete(ctx context.Context, rawToken, documentID string) (ok bool, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Delete")
	defer func() { finishSpan(span, err) }()

	actor, err := actorIDFrom(s.tokens, rawToken)
	if err != nil {
		return false, err
	}
	if _, err := validate.UUID(documentID); err != nil {
		return false, err
	}
	doc, err := s.authorize(ctx, actor, documentID, model.RoleCreator)
	if err != nil {
		return false, err
	}

	if err := s.store.Delete(ctx, doc.FilePath); err != nil {
		return false, apperr.Storage(err)
	}
	deleted, err := s.docs.Delete(ctx, doc.ID)
	if err != nil {
		return false, apperr.Persistence(err)
	}
	if !deleted {
		return false, ErrDocumentNotFoundOrAccessDenied
	}

	s.log.Info("document deleted",
		zap.String("op", "delete"),
		zap.String("user_id", actor),
		zap.String("document_id", doc.ID),
	)
	return true, nil
}

func (s *documentService) Search(ctx context.Context, req SearchDocumentsRequest) (docs []model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Search")
	defer func() { finishSpan(span, err) }()

	actor, err := actorIDFrom(s.tokens, req.Token)
	if err != nil {
		return nil, err
	}
	filter, err := searchFilter(req)
	if err != nil {
		return nil, err
	}

	visible, err := s.perms.VisibleDocumentIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return nil, ErrDocumentDoesNotExist
	}
	filter.DocumentIDs = visible

	matched, err := s.docs.Search(ctx, filter)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	docs = make([]model.Document, 0, len(matched))
	for _, d := range matched {
		if slices.Contains(visible, d.ID) {
			docs = append(docs, d)
		}
	}
	if len(docs) == 0 {
		return nil, ErrDocumentDoesNotExist
	}
	return docs, nil
}

// authorize checks that actor holds required on documentID and loads the document.
func (s *documentService) authorize(ctx context.Context, actor, documentID string, required model.DocumentRole) (model.Document, error) {
	ok, err := s.perms.HasCapability(ctx, actor, documentID, required)
	if err != nil {
		return model.Document{}, err
	}
	if !ok {
		return model.Document{}, ErrDocumentNotFoundOrAccessDenied
	}
	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		return model.Document{}, documentLookupError(err)
	}
	return doc, nil
}

// ensureNameFree fails if creatorID owns another document called name.
func (s *documentService) ensureNameFree(ctx context.Context, creatorID, documentID, name string) error {
	owned, err := s.docs.ListByCreator(ctx, creatorID)
	if err != nil {
		return apperr.Persistence(err)
	}
	for _, d := range owned {
		if d.ID != documentID && d.Name() == name {
			return ErrDocumentAlreadyExists
		}
	}
	return nil
}

// removeFile is a best-effort compensation for a failed create.
func (s *documentService) removeFile(ctx context.Context, path, op string) {
	if err := s.store.Delete(ctx, path); err != nil {
		s.log.Error("rollback of stored file failed", zap.String("op", op), zap.Error(err))
	}
}

// restorePath moves a renamed file back after a failed metadata commit.
func (s *documentService) restorePath(ctx context.Context, moved bool, from, to string) {
	if !moved {
		return
	}
	if err := s.store.Rename(ctx, from, to); err != nil {
		s.log.Error("rollback of file rename failed", zap.String("op", "update"), zap.Error(err))
	}
}

func searchFilter(req SearchDocumentsRequest) (repository.SearchFilter, error) {
	var f repository.SearchFilter
	var err error

	if f.Name, err = validate.String(req.Name, model.MaxDocumentNameLength); err != nil {
		return f, err
	}
	if f.Tags, err = validate.Strings(req.Tags, model.MaxTagLength); err != nil {
		return f, err
	}
	if req.Format != "" {
		if f.Format, err = validate.Enum(req.Format, model.Formats...); err != nil {
			return f, err
		}
	}
	if req.CreatedOn != "" {
		if f.CreatedOn, err = validate.Day(req.CreatedOn); err != nil {
			return f, err
		}
	}
	if req.UpdatedOn != "" {
		if f.UpdatedOn, err = validate.Day(req.UpdatedOn); err != nil {
			return f, err
		}
	}
	if req.UpdatedBy != "" {
		if f.UpdatedBy, err = validate.UUID(req.UpdatedBy); err != nil {
			return f, err
		}
	}
	return f, nil
}
