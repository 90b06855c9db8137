package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/model"
	"docvault/internal/repository"
)

var documentRowColumns = []string{"id", "creator_id", "created_at", "file_path", "name", "tags", "document_format", "updated_at", "updated_by"}

func newTestDoc(t *testing.T) model.Document {
	t.Helper()
	doc, err := model.NewDocument(model.DocumentParams{
		CreatorID: uuid.NewString(),
		FilePath:  "owner--report.pdf",
		Name:      "report",
		Tags:      []string{"finance", "q1"},
		Format:    model.FormatPDF,
	})
	require.NoError(t, err)
	return doc
}

func docRow(d model.Document) *sqlmock.Rows {
	return sqlmock.NewRows(documentRowColumns).AddRow(
		d.ID, d.CreatorID, d.CreatedAt, d.FilePath, d.Metadata.Name,
		"{finance,q1}", string(d.Metadata.DocumentFormat), d.Metadata.UpdatedAt, d.Metadata.UpdatedBy,
	)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	doc := newTestDoc(t)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.ID, doc.CreatorID, doc.CreatedAt, doc.FilePath, "report", sqlmock.AnyArg(), "pdf", doc.Metadata.UpdatedAt, doc.Metadata.UpdatedBy).
			WillReturnRows(docRow(doc))

		got, err := repo.Create(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	})

	t.Run("duplicate name", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_documents_creator_name"})

		_, err := repo.Create(ctx, doc)
		assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	})

	t.Run("unknown creator", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").
			WillReturnError(&pgconn.PgError{Code: "23503"})

		_, err := repo.Create(ctx, doc)
		assert.ErrorIs(t, err, repository.ErrInvalidReference)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	doc := newTestDoc(t)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("UPDATE documents").
			WithArgs(doc.ID, doc.FilePath, "report", sqlmock.AnyArg(), "pdf", doc.Metadata.UpdatedAt, doc.Metadata.UpdatedBy).
			WillReturnRows(docRow(doc))

		got, err := repo.Update(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, doc.ID, got.ID)
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectQuery("UPDATE documents").WillReturnError(sql.ErrNoRows)

		_, err := repo.Update(ctx, doc)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	doc := newTestDoc(t)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs(doc.ID).
			WillReturnRows(docRow(doc))

		got, err := repo.FindByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"finance", "q1"}, got.Metadata.Tags)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("empty tags", func(t *testing.T) {
		rows := sqlmock.NewRows(documentRowColumns).AddRow(
			doc.ID, doc.CreatorID, doc.CreatedAt, doc.FilePath, "report", "{}", "pdf", doc.CreatedAt, doc.CreatorID,
		)
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").WithArgs(doc.ID).WillReturnRows(rows)

		got, err := repo.FindByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.Metadata.Tags)
		assert.Empty(t, got.Metadata.Tags)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_ListByCreator(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	doc := newTestDoc(t)

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE creator_id = ?").
		WithArgs(doc.CreatorID).
		WillReturnRows(docRow(doc))

	got, err := repo.ListByCreator(context.Background(), doc.CreatorID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM documents WHERE id = ?").WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 1))
	deleted, err := repo.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, deleted)

	mock.ExpectExec("DELETE FROM documents WHERE id = ?").WithArgs("b").WillReturnResult(sqlmock.NewResult(0, 0))
	deleted, err = repo.Delete(ctx, "b")
	require.NoError(t, err)
	assert.False(t, deleted)

	mock.ExpectExec("DELETE FROM documents WHERE id = ?").WithArgs("c").WillReturnError(errors.New("conn reset"))
	_, err = repo.Delete(ctx, "c")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Search(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	doc := newTestDoc(t)
	day := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM documents WHERE id = ANY\(\$1\) AND name ILIKE \$2 (.+) AND tags && \$3 AND document_format = \$4 AND created_at >= \$5 AND created_at < \$6 AND updated_by = \$7 ORDER BY`).
		WithArgs(sqlmock.AnyArg(), "%50\\%%", sqlmock.AnyArg(), "pdf",
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), doc.CreatorID).
		WillReturnRows(docRow(doc))

	got, err := repo.Search(context.Background(), repository.SearchFilter{
		DocumentIDs: []string{doc.ID},
		Name:        "50%",
		Tags:        []string{"finance"},
		Format:      model.FormatPDF,
		CreatedOn:   day,
		UpdatedBy:   doc.CreatorID,
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildSearch_NoCriteria(t *testing.T) {
	q, args := buildSearch(repository.SearchFilter{})
	assert.NotContains(t, q, "WHERE")
	assert.Empty(t, args)

	q, args = buildSearch(repository.SearchFilter{UpdatedOn: time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)})
	assert.Contains(t, q, "updated_at >= $1 AND updated_at < $2")
	assert.Equal(t, []any{
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}, args)
}

func TestDocumentPostgres_ListOrphans(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	doc := newTestDoc(t)
	cutoff := time.Now().Add(-5 * time.Minute)

	mock.ExpectQuery("SELECT (.+) FROM documents d WHERE d.created_at < (.+) NOT EXISTS (.+)permission_type = 'CREATOR'").
		WithArgs(cutoff, 100).
		WillReturnRows(docRow(doc))

	got, err := repo.ListOrphans(context.Background(), cutoff, 100)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
