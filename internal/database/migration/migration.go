package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created by the last table step; its presence means the schema is in place.
const sentinelTable = "public.permissions"

var steps = []migrationStep{
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            UUID         PRIMARY KEY,
  email         TEXT         NOT NULL UNIQUE,
  password_hash TEXT         NOT NULL,
  role          TEXT         NOT NULL CHECK (role IN ('USER', 'ADMIN')),
  name          VARCHAR(50)  NOT NULL,
  created_at    TIMESTAMPTZ  NOT NULL,
  updated_at    TIMESTAMPTZ  NOT NULL,
  updated_by    UUID         NOT NULL
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id              UUID         PRIMARY KEY,
  creator_id      UUID         NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  created_at      TIMESTAMPTZ  NOT NULL,
  file_path       TEXT         NOT NULL UNIQUE,
  name            VARCHAR(100) NOT NULL,
  tags            TEXT[]       NOT NULL DEFAULT '{}',
  document_format TEXT         NOT NULL CHECK (document_format IN ('pdf', 'docx', 'txt', 'json', 'jpeg', 'png')),
  updated_at      TIMESTAMPTZ  NOT NULL,
  updated_by      UUID         NOT NULL,
  CONSTRAINT uq_documents_creator_name UNIQUE (creator_id, name)
);`,
	},
	{
		Name: "create_index_documents_tags",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_tags ON documents USING GIN (tags);`,
	},
	{
		Name: "create_index_documents_updated_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_updated_at ON documents (updated_at);`,
	},
	{
		Name: "create_table_permissions",
		SQL: `CREATE TABLE IF NOT EXISTS permissions (
  id              UUID        PRIMARY KEY,
  user_id         UUID        NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  creator_id      UUID        NOT NULL,
  document_id     UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  permission_type TEXT        NOT NULL CHECK (permission_type IN ('CREATOR', 'EDITOR', 'VIEWER')),
  created_at      TIMESTAMPTZ NOT NULL,
  CONSTRAINT uq_permissions_user_document UNIQUE (user_id, document_id)
);`,
	},
	{
		Name: "create_index_permissions_document",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_permissions_document_id ON permissions (document_id);`,
	},
	{
		Name: "create_index_permissions_single_creator",
		SQL: `CREATE UNIQUE INDEX IF NOT EXISTS uq_permissions_document_creator
  ON permissions (document_id) WHERE permission_type = 'CREATOR';`,
	},
}

// EnsureMigrated checks whether the schema exists and runs every step if it does not.
// Steps are idempotent, so a partially applied schema is completed on the next start.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	start := time.Now()
	log = log.With(zap.String("component", "database"), zap.String("db_host", dbHost))

	log.Info("db_migration_check", zap.String("status", "starting"))

	var exists bool
	query := "SELECT to_regclass($1) IS NOT NULL"
	if err := db.QueryRowContext(ctx, query, sentinelTable).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.Error(err),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			zap.String("status", "success"),
			zap.String("reason", "schema already exists"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start", zap.String("status", "in_progress"), zap.Int("steps", len(steps)))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("status", "error"),
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			zap.String("status", "success"),
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("db_migration_success",
		zap.String("status", "success"),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
