package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"docvault/internal/apperr"
	"docvault/internal/hasher"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
	"docvault/internal/token"
	"docvault/internal/validate"
)

// UserService defines the account workflows.
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (model.User, error)
	// Login returns a signed token bound to the user's id and role.
	Login(ctx context.Context, email, password string) (string, error)
	// GetProfile, UpdateProfile and DeleteAccount act on userID, or on the caller
	// when userID is empty. Only the account owner or an ADMIN may act on an account.
	GetProfile(ctx context.Context, rawToken, userID string) (model.User, error)
	UpdateProfile(ctx context.Context, req UpdateProfileRequest) (model.User, error)
	ChangePassword(ctx context.Context, req ChangePasswordRequest) error
	// DeleteAccount removes the files of every document the user created and then
	// the account. If any file cannot be removed the account is kept.
	DeleteAccount(ctx context.Context, rawToken, userID string) error
}

type userService struct {
	tokens token.Service
	hash   hasher.Hasher
	users  repository.UserRepository
	docs   repository.DocumentRepository
	store  storage.FileStorage
	log    *zap.Logger
}

func NewUserService(tokens token.Service, hash hasher.Hasher, users repository.UserRepository, docs repository.DocumentRepository, store storage.FileStorage, log *zap.Logger) UserService {
	return &userService{tokens: tokens, hash: hash, users: users, docs: docs, store: store, log: log}
}

func (s *userService) Register(ctx context.Context, req RegisterRequest) (u model.User, err error) {
	ctx, span := tracer.Start(ctx, "UserService.Register")
	defer func() { finishSpan(span, err) }()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := validate.Email(email); err != nil {
		return model.User{}, err
	}
	if _, err := validate.Password(req.Password); err != nil {
		return model.User{}, err
	}
	if _, err := validate.String(req.Name, model.MaxUserNameLength); err != nil {
		return model.User{}, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return model.User{}, ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, apperr.Persistence(err)
	}

	digest, err := s.hash.Hash(req.Password)
	if err != nil {
		return model.User{}, err
	}
	u, err = model.NewUser(model.UserParams{Email: email, PasswordHash: digest, Name: req.Name})
	if err != nil {
		return model.User{}, err
	}

	stored, err := s.users.Create(ctx, u)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return model.User{}, ErrUserAlreadyExists
	}
	if err != nil {
		return model.User{}, apperr.Persistence(err)
	}

	s.log.Info("user registered", zap.String("op", "register"), zap.String("user_id", stored.ID))
	return stored, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (raw string, err error) {
	ctx, span := tracer.Start(ctx, "UserService.Login")
	defer func() { finishSpan(span, err) }()

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := validate.Email(email); err != nil {
		return "", err
	}
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUserDoesNotExist
	}
	if err != nil {
		return "", apperr.Persistence(err)
	}
	if err := s.hash.Compare(password, u.PasswordHash); err != nil {
		s.log.Info("login rejected", zap.String("op", "login"), zap.String("user_id", u.ID))
		return "", err
	}
	return s.tokens.Sign(token.Payload{UserID: u.ID, Role: u.Role})
}

func (s *userService) GetProfile(ctx context.Context, rawToken, userID string) (u model.User, err error) {
	ctx, span := tracer.Start(ctx, "UserService.GetProfile")
	defer func() { finishSpan(span, err) }()

	target, _, err := s.authorize(rawToken, userID)
	if err != nil {
		return model.User{}, err
	}
	return s.load(ctx, target)
}

func (s *userService) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (u model.User, err error) {
	ctx, span := tracer.Start(ctx, "UserService.UpdateProfile")
	defer func() { finishSpan(span, err) }()

	target, actor, err := s.authorize(req.Token, req.UserID)
	if err != nil {
		return model.User{}, err
	}
	if req.Name == nil && req.Email == nil {
		return model.User{}, ErrNothingToUpdate
	}
	u, err = s.load(ctx, target)
	if err != nil {
		return model.User{}, err
	}

	if req.Name != nil {
		if u, err = u.WithName(actor, *req.Name); err != nil {
			return model.User{}, err
		}
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		previous := u.Email
		if u, err = u.WithEmail(actor, email); err != nil {
			return model.User{}, err
		}
		if email != previous {
			if err := s.ensureEmailFree(ctx, email); err != nil {
				return model.User{}, err
			}
		}
	}

	stored, err := s.users.Update(ctx, u)
	switch {
	case errors.Is(err, repository.ErrAlreadyExists):
		return model.User{}, ErrUserAlreadyExists
	case errors.Is(err, repository.ErrNotFound):
		return model.User{}, ErrUserDoesNotExist
	case err != nil:
		return model.User{}, apperr.Persistence(err)
	}
	return stored, nil
}

func (s *userService) ChangePassword(ctx context.Context, req ChangePasswordRequest) (err error) {
	ctx, span := tracer.Start(ctx, "UserService.ChangePassword")
	defer func() { finishSpan(span, err) }()

	actor, err := actorIDFrom(s.tokens, req.Token)
	if err != nil {
		return err
	}
	if _, err := validate.Password(req.NewPassword); err != nil {
		return err
	}
	u, err := s.load(ctx, actor)
	if err != nil {
		return err
	}
	if err := s.hash.Compare(req.OldPassword, u.PasswordHash); err != nil {
		return err
	}
	digest, err := s.hash.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if u, err = u.WithPasswordHash(actor, digest); err != nil {
		return err
	}
	if _, err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserDoesNotExist
		}
		return apperr.Persistence(err)
	}

	s.log.Info("password changed", zap.String("op", "change_password"), zap.String("user_id", actor))
	return nil
}

func (s *userService) DeleteAccount(ctx context.Context, rawToken, userID string) (err error) {
	ctx, span := tracer.Start(ctx, "UserService.DeleteAccount")
	defer func() { finishSpan(span, err) }()

	target, actor, err := s.authorize(rawToken, userID)
	if err != nil {
		return err
	}
	if _, err := s.load(ctx, target); err != nil {
		return err
	}

	owned, err := s.docs.ListByCreator(ctx, target)
	if err != nil {
		return apperr.Persistence(err)
	}
	for _, d := range owned {
		if err := s.store.Delete(ctx, d.FilePath); err != nil {
			return apperr.Storage(err)
		}
	}

	deleted, err := s.users.Delete(ctx, target)
	if err != nil {
		return apperr.Persistence(err)
	}
	if !deleted {
		return ErrUserDoesNotExist
	}

	s.log.Info("account deleted",
		zap.String("op", "delete_account"),
		zap.String("user_id", target),
		zap.String("actor_id", actor),
		zap.Int("documents", len(owned)),
	)
	return nil
}

// authorize resolves the account a call targets and the acting user id.
func (s *userService) authorize(rawToken, userID string) (target, actor string, err error) {
	p, err := actorFrom(s.tokens, rawToken)
	if err != nil {
		return "", "", err
	}
	if userID == "" || userID == p.UserID {
		return p.UserID, p.UserID, nil
	}
	if _, err := validate.UUID(userID); err != nil {
		return "", "", err
	}
	if p.Role != model.UserRoleAdmin {
		s.log.Warn("account access denied",
			zap.String("user_id", p.UserID),
			zap.String("target_id", userID),
		)
		return "", "", ErrUserAccessDenied
	}
	return userID, p.UserID, nil
}

func (s *userService) load(ctx context.Context, id string) (model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUserDoesNotExist
	}
	if err != nil {
		return model.User{}, apperr.Persistence(err)
	}
	return u, nil
}

func (s *userService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrUserAlreadyExists
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return apperr.Persistence(err)
	}
}
