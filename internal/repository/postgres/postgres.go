// Package postgres implements the repository ports on PostgreSQL through database/sql.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"docvault/internal/repository"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// mapWriteError translates constraint violations into repository sentinels.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return repository.ErrAlreadyExists
		case foreignKeyViolation:
			return repository.ErrInvalidReference
		}
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}
