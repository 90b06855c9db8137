package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/model"
	"docvault/internal/repository"
)

var userRowColumns = []string{"id", "email", "password_hash", "role", "name", "created_at", "updated_at", "updated_by"}

func userRows(u model.User) *sqlmock.Rows {
	return sqlmock.NewRows(userRowColumns).
		AddRow(u.ID, u.Email, u.PasswordHash, string(u.Role), u.Name, u.CreatedAt, u.UpdatedAt, u.UpdatedBy)
}

func newTestUser(t *testing.T) model.User {
	t.Helper()
	u, err := model.NewUser(model.UserParams{Email: "ana@example.com", PasswordHash: "$2a$hash", Name: "Ana"})
	require.NoError(t, err)
	return u
}

func TestUserPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	u := newTestUser(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(u.ID, u.Email, u.PasswordHash, "USER", u.Name, u.CreatedAt, u.UpdatedAt, u.UpdatedBy).
		WillReturnRows(userRows(u))
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	mock.ExpectQuery("INSERT INTO users").WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = repo.Create(context.Background(), u)
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_Find(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	u := newTestUser(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").WithArgs(u.ID).WillReturnRows(userRows(u))
	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("ANA@example.com").
		WillReturnRows(userRows(u))
	got, err = repo.FindByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_UpdateDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	u := newTestUser(t)

	mock.ExpectQuery("UPDATE users").WillReturnError(sql.ErrNoRows)
	_, err = repo.Update(ctx, u)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	mock.ExpectQuery("UPDATE users").WillReturnRows(userRows(u))
	_, err = repo.Update(ctx, u)
	assert.NoError(t, err)

	mock.ExpectExec("DELETE FROM users WHERE id = ?").WithArgs(u.ID).WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
