package database

import (
	"context"
	"fmt"
	"strings"
)

// Migrate creates the tables the development backend needs. It is safe to
// run on every start.
func (db *DB) Migrate(ctx context.Context) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.driver != DriverSQLite {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			display_name  TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'user',
			created_at    TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id          ` + serial + `,
			article_id  BIGINT NOT NULL,
			parent_id   BIGINT NULL,
			user_id     TEXT NOT NULL,
			author_name TEXT NOT NULL DEFAULT '',
			content     TEXT NOT NULL,
			created_at  TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_article ON comments (article_id)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments (parent_id)`,
		`CREATE TABLE IF NOT EXISTS reactions (
			target_kind TEXT NOT NULL,
			target_id   BIGINT NOT NULL,
			user_id     TEXT NOT NULL,
			reaction    TEXT NOT NULL,
			updated_at  TIMESTAMP NOT NULL,
			PRIMARY KEY (target_kind, target_id, user_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed at %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
