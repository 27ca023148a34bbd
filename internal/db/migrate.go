package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent and are
// re-run on every open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN has no IF NOT EXISTS form.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS chat_threads (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_chat_threads_updated ON chat_threads(updated_at)`,

	`CREATE TABLE IF NOT EXISTS chat_messages (
		id         TEXT PRIMARY KEY,
		thread_id  TEXT NOT NULL REFERENCES chat_threads(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		role       TEXT NOT NULL CHECK(role IN ('user','assistant','system')),
		content    TEXT NOT NULL,
		intent     TEXT NOT NULL DEFAULT ''
		           CHECK(intent IN ('','SCHEMA_QUERY','DOMAIN_KNOWLEDGE','HYBRID','GENERAL')),
		confidence REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		UNIQUE (thread_id, seq)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_chat_messages_thread ON chat_messages(thread_id, seq)`,

	`CREATE TABLE IF NOT EXISTS request_history (
		id              TEXT PRIMARY KEY,
		method          TEXT NOT NULL,
		url             TEXT NOT NULL,
		request_headers TEXT NOT NULL DEFAULT '{}',
		request_body    TEXT NOT NULL DEFAULT '',
		status_code     INTEGER NOT NULL DEFAULT 0,
		response_body   TEXT NOT NULL DEFAULT '',
		duration_ms     INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_request_history_created ON request_history(created_at)`,

	// transport failures have no status code
	`ALTER TABLE request_history ADD COLUMN error TEXT NOT NULL DEFAULT ''`,
}
