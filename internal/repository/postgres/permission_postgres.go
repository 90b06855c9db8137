package postgres

import (
	"context"
	"database/sql"

	"docvault/internal/model"
	"docvault/internal/repository"
)

const permissionColumns = `id, user_id, creator_id, document_id, permission_type, created_at`

// PermissionPostgres is a PostgreSQL implementation of repository.PermissionRepository.
type PermissionPostgres struct {
	db *sql.DB
}

func NewPermissionPostgres(db *sql.DB) *PermissionPostgres {
	return &PermissionPostgres{db: db}
}

var _ repository.PermissionRepository = (*PermissionPostgres)(nil)

// Grant inserts a permission. A second permission for the same (user, document)
// or a second CREATOR on a document is rejected by the schema with ErrAlreadyExists.
func (r *PermissionPostgres) Grant(ctx context.Context, p model.Permission) (model.Permission, error) {
	q := `
		INSERT INTO permissions (` + permissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + permissionColumns
	out, err := scanPermission(r.db.QueryRowContext(ctx, q,
		p.ID, p.UserID, p.CreatorID, p.DocumentID, p.Role, p.CreatedAt,
	))
	if err != nil {
		return model.Permission{}, mapWriteError(err)
	}
	return out, nil
}

func (r *PermissionPostgres) ListByUser(ctx context.Context, userID string) ([]model.Permission, error) {
	q := `SELECT ` + permissionColumns + ` FROM permissions WHERE user_id = $1 ORDER BY created_at, id`
	return r.query(ctx, q, userID)
}

func (r *PermissionPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.Permission, error) {
	q := `SELECT ` + permissionColumns + ` FROM permissions WHERE document_id = $1 ORDER BY created_at, id`
	return r.query(ctx, q, documentID)
}

func (r *PermissionPostgres) Revoke(ctx context.Context, p model.Permission) (bool, error) {
	const q = `DELETE FROM permissions WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, p.ID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PermissionPostgres) query(ctx context.Context, q string, args ...any) ([]model.Permission, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Permission, 0)
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func scanPermission(s scanner) (model.Permission, error) {
	var p model.Permission
	err := s.Scan(&p.ID, &p.UserID, &p.CreatorID, &p.DocumentID, &p.Role, &p.CreatedAt)
	return p, err
}
