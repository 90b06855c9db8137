package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"docvault/internal/apperr"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/token"
	"docvault/internal/validate"
)

// PermissionService decides and manages who may do what on a document.
type PermissionService interface {
	// Grant gives a user a role on a document. Only the document creator may grant,
	// and a user holding any permission on the document cannot be granted another.
	Grant(ctx context.Context, req GrantRequest) (model.Permission, error)

	// Revoke removes a non-CREATOR permission the caller granted.
	Revoke(ctx context.Context, req RevokeRequest) (bool, error)

	// ListGrants returns every permission on a document. Creator only.
	ListGrants(ctx context.Context, rawToken, documentID string) ([]model.Permission, error)

	// HasCapability reports whether userID holds required, or a role dominating it, on documentID.
	HasCapability(ctx context.Context, userID, documentID string, required model.DocumentRole) (bool, error)

	// GrantAs runs the grant rules for an already authenticated actor.
	GrantAs(ctx context.Context, actorID, targetUserID, documentID string, role model.DocumentRole) (model.Permission, error)

	// VisibleDocumentIDs returns the ids of every document userID holds any permission on.
	VisibleDocumentIDs(ctx context.Context, userID string) ([]string, error)
}

type permissionService struct {
	tokens token.Service
	docs   repository.DocumentRepository
	perms  repository.PermissionRepository
	log    *zap.Logger
}

// NewPermissionService constructs the permission engine.
func NewPermissionService(tokens token.Service, docs repository.DocumentRepository, perms repository.PermissionRepository, log *zap.Logger) PermissionService {
	return &permissionService{tokens: tokens, docs: docs, perms: perms, log: log}
}

func (s *permissionService) Grant(ctx context.Context, req GrantRequest) (p model.Permission, err error) {
	ctx, span := tracer.Start(ctx, "PermissionService.Grant")
	defer func() { finishSpan(span, err) }()

	actor, err := actorIDFrom(s.tokens, req.Token)
	if err != nil {
		return model.Permission{}, err
	}
	return s.GrantAs(ctx, actor, req.UserID, req.DocumentID, req.Role)
}

func (s *permissionService) GrantAs(ctx context.Context, actorID, targetUserID, documentID string, role model.DocumentRole) (model.Permission, error) {
	if err := validateTarget(targetUserID, documentID, role); err != nil {
		return model.Permission{}, err
	}

	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		return model.Permission{}, documentLookupError(err)
	}
	if doc.CreatorID != actorID {
		return model.Permission{}, ErrOnlyCreatorMayManage
	}
	if role == model.RoleCreator && targetUserID != actorID {
		return model.Permission{}, ErrCreatorRoleSelfOnly
	}

	existing, err := s.perms.ListByUser(ctx, targetUserID)
	if err != nil {
		return model.Permission{}, apperr.Persistence(err)
	}
	for _, p := range existing {
		if p.DocumentID == documentID {
			return model.Permission{}, ErrPermissionAlreadyExists
		}
	}

	perm, err := model.NewPermission(model.PermissionParams{
		UserID:     targetUserID,
		CreatorID:  actorID,
		DocumentID: documentID,
		Role:       role,
	})
	if err != nil {
		return model.Permission{}, err
	}

	stored, err := s.perms.Grant(ctx, perm)
	switch {
	case errors.Is(err, repository.ErrAlreadyExists):
		return model.Permission{}, ErrPermissionAlreadyExists
	case errors.Is(err, repository.ErrInvalidReference):
		return model.Permission{}, ErrUserDoesNotExist
	case err != nil:
		return model.Permission{}, apperr.Persistence(err)
	}

	s.log.Info("permission granted",
		zap.String("op", "grant"),
		zap.String("user_id", actorID),
		zap.String("grantee_id", targetUserID),
		zap.String("document_id", documentID),
		zap.String("role", string(role)),
	)
	return stored, nil
}

func (s *permissionService) Revoke(ctx context.Context, req RevokeRequest) (ok bool, err error) {
	ctx, span := tracer.Start(ctx, "PermissionService.Revoke")
	defer func() { finishSpan(span, err) }()

	actor, err := actorIDFrom(s.tokens, req.Token)
	if err != nil {
		return false, err
	}
	if err := validateTarget(req.UserID, req.DocumentID, req.Role); err != nil {
		return false, err
	}

	doc, err := s.docs.FindByID(ctx, req.DocumentID)
	if err != nil {
		return false, documentLookupError(err)
	}
	if doc.CreatorID != actor {
		return false, ErrOnlyCreatorMayManage
	}
	if req.Role == model.RoleCreator {
		return false, ErrCreatorNotRevocable
	}

	held, err := s.perms.ListByUser(ctx, req.UserID)
	if err != nil {
		return false, apperr.Persistence(err)
	}
	var target *model.Permission
	for i, p := range held {
		if p.DocumentID == req.DocumentID && p.Role == req.Role && p.CreatorID == actor {
			target = &held[i]
			break
		}
	}
	if target == nil {
		return false, ErrPermissionDoesNotExist
	}

	removed, err := s.perms.Revoke(ctx, *target)
	if err != nil {
		return false, apperr.Persistence(err)
	}
	if !removed {
		return false, ErrPermissionDoesNotExist
	}

	s.log.Info("permission revoked",
		zap.String("op", "revoke"),
		zap.String("user_id", actor),
		zap.String("grantee_id", req.UserID),
		zap.String("document_id", req.DocumentID),
		zap.String("role", string(req.Role)),
	)
	return true, nil
}

func (s *permissionService) ListGrants(ctx context.Context, rawToken, documentID string) (ps []model.Permission, err error) {
	ctx, span := tracer.Start(ctx, "PermissionService.ListGrants")
	defer func() { finishSpan(span, err) }()

	actor, err := actorIDFrom(s.tokens, rawToken)
	if err != nil {
		return nil, err
	}
	if _, err := validate.UUID(documentID); err != nil {
		return nil, err
	}

	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		return nil, documentLookupError(err)
	}
	if doc.CreatorID != actor {
		return nil, ErrOnlyCreatorMayManage
	}

	ps, err = s.perms.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return ps, nil
}

func (s *permissionService) HasCapability(ctx context.Context, userID, documentID string, required model.DocumentRole) (bool, error) {
	ctx, span := tracer.Start(ctx, "PermissionService.HasCapability")
	span.SetAttributes(attribute.String("document.id", documentID), attribute.String("role.required", string(required)))
	defer span.End()

	held, err := s.perms.ListByUser(ctx, userID)
	if err != nil {
		return false, apperr.Persistence(err)
	}
	for _, p := range held {
		if p.DocumentID == documentID && p.Role.Satisfies(required) {
			return true, nil
		}
	}
	return false, nil
}

func (s *permissionService) VisibleDocumentIDs(ctx context.Context, userID string) ([]string, error) {
	held, err := s.perms.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	seen := make(map[string]struct{}, len(held))
	ids := make([]string, 0, len(held))
	for _, p := range held {
		if _, dup := seen[p.DocumentID]; dup {
			continue
		}
		seen[p.DocumentID] = struct{}{}
		ids = append(ids, p.DocumentID)
	}
	return ids, nil
}

func validateTarget(userID, documentID string, role model.DocumentRole) error {
	if _, err := validate.UUID(userID); err != nil {
		return err
	}
	if _, err := validate.UUID(documentID); err != nil {
		return err
	}
	if _, err := validate.Enum(string(role), model.DocumentRoles...); err != nil {
		return err
	}
	return nil
}
