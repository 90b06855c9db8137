package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"docvault/internal/model"
	"docvault/internal/repository"
)

const documentColumns = `id, creator_id, created_at, file_path, name, tags, document_format, updated_at, updated_by`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc model.Document) (model.Document, error) {
	q := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.CreatorID,
		doc.CreatedAt,
		doc.FilePath,
		doc.Metadata.Name,
		pq.Array(doc.Metadata.Tags),
		doc.Metadata.DocumentFormat,
		doc.Metadata.UpdatedAt,
		doc.Metadata.UpdatedBy,
	)
	out, err := scanDocument(row)
	if err != nil {
		return model.Document{}, mapWriteError(err)
	}
	return out, nil
}

// Update overwrites the mutable columns; id, creator and creation time never change.
func (r *DocumentPostgres) Update(ctx context.Context, doc model.Document) (model.Document, error) {
	q := `
		UPDATE documents
		SET file_path = $2, name = $3, tags = $4, document_format = $5, updated_at = $6, updated_by = $7
		WHERE id = $1
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.FilePath,
		doc.Metadata.Name,
		pq.Array(doc.Metadata.Tags),
		doc.Metadata.DocumentFormat,
		doc.Metadata.UpdatedAt,
		doc.Metadata.UpdatedBy,
	)
	out, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Document{}, mapWriteError(err)
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, repository.ErrNotFound
	}
	return d, err
}

// ListByCreator returns every document created by creatorID, newest first.
func (r *DocumentPostgres) ListByCreator(ctx context.Context, creatorID string) ([]model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE creator_id = $1 ORDER BY created_at DESC, id DESC`
	return r.query(ctx, q, creatorID)
}

// Delete removes a document by ID. Permissions on it cascade.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) (bool, error) {
	const q = `DELETE FROM documents WHERE id = $1`
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

// Search runs a conjunction of the filter's criteria.
func (r *DocumentPostgres) Search(ctx context.Context, f repository.SearchFilter) ([]model.Document, error) {
	q, args := buildSearch(f)
	return r.query(ctx, q, args...)
}

// ListOrphans returns documents older than olderThan lacking their CREATOR permission.
func (r *DocumentPostgres) ListOrphans(ctx context.Context, olderThan time.Time, limit int) ([]model.Document, error) {
	q := `
		SELECT ` + documentColumns + `
		FROM documents d
		WHERE d.created_at < $1
		  AND NOT EXISTS (
			SELECT 1 FROM permissions p
			WHERE p.document_id = d.id AND p.permission_type = 'CREATOR'
		  )
		ORDER BY d.created_at
		LIMIT $2`
	return r.query(ctx, q, olderThan, limit)
}

func (r *DocumentPostgres) query(ctx context.Context, q string, args ...any) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanDocument(s scanner) (model.Document, error) {
	var (
		d    model.Document
		tags []string
	)
	if err := s.Scan(
		&d.ID,
		&d.CreatorID,
		&d.CreatedAt,
		&d.FilePath,
		&d.Metadata.Name,
		pq.Array(&tags),
		&d.Metadata.DocumentFormat,
		&d.Metadata.UpdatedAt,
		&d.Metadata.UpdatedBy,
	); err != nil {
		return model.Document{}, err
	}
	if tags == nil {
		tags = []string{}
	}
	d.Metadata.Tags = tags
	return d, nil
}

// buildSearch renders the filter as a parameterized query.
func buildSearch(f repository.SearchFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.DocumentIDs != nil {
		add("id = ANY($%d)", pq.Array(f.DocumentIDs))
	}
	if f.Name != "" {
		add(`name ILIKE $%d ESCAPE '\'`, "%"+escapeLike(f.Name)+"%")
	}
	if len(f.Tags) > 0 {
		add("tags && $%d", pq.Array(f.Tags))
	}
	if f.Format != "" {
		add("document_format = $%d", string(f.Format))
	}
	if !f.CreatedOn.IsZero() {
		start := dayStart(f.CreatedOn)
		add("created_at >= $%d", start)
		add("created_at < $%d", start.AddDate(0, 0, 1))
	}
	if !f.UpdatedOn.IsZero() {
		start := dayStart(f.UpdatedOn)
		add("updated_at >= $%d", start)
		add("updated_at < $%d", start.AddDate(0, 0, 1))
	}
	if f.UpdatedBy != "" {
		add("updated_by = $%d", f.UpdatedBy)
	}

	q := `SELECT ` + documentColumns + ` FROM documents`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY updated_at DESC, id DESC"
	return q, args
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
