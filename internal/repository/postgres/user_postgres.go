package postgres

import (
	"context"
	"database/sql"
	"errors"

	"docvault/internal/model"
	"docvault/internal/repository"
)

const userColumns = `id, email, password_hash, role, name, created_at, updated_at, updated_by`

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

func (r *UserPostgres) Create(ctx context.Context, u model.User) (model.User, error) {
	q := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns
	out, err := scanUser(r.db.QueryRowContext(ctx, q,
		u.ID, u.Email, u.PasswordHash, u.Role, u.Name, u.CreatedAt, u.UpdatedAt, u.UpdatedBy,
	))
	if err != nil {
		return model.User{}, mapWriteError(err)
	}
	return out, nil
}

func (r *UserPostgres) Update(ctx context.Context, u model.User) (model.User, error) {
	q := `
		UPDATE users
		SET email = $2, password_hash = $3, role = $4, name = $5, updated_at = $6, updated_by = $7
		WHERE id = $1
		RETURNING ` + userColumns
	out, err := scanUser(r.db.QueryRowContext(ctx, q,
		u.ID, u.Email, u.PasswordHash, u.Role, u.Name, u.UpdatedAt, u.UpdatedBy,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, repository.ErrNotFound
	}
	if err != nil {
		return model.User{}, mapWriteError(err)
	}
	return out, nil
}

func (r *UserPostgres) FindByID(ctx context.Context, id string) (model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByEmail matches case-insensitively.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

// Delete removes the account; its documents and permissions cascade.
func (r *UserPostgres) Delete(ctx context.Context, id string) (bool, error) {
	const q = `DELETE FROM users WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *UserPostgres) findOne(ctx context.Context, q string, arg string) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, repository.ErrNotFound
	}
	return u, err
}

func scanUser(s scanner) (model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name, &u.CreatedAt, &u.UpdatedAt, &u.UpdatedBy)
	return u, err
}
