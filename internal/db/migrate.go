package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent and written
// in the subset of SQL shared by SQLite and Postgres.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate re-applied ALTER TABLE statements on either backend.
			msg := err.Error()
			if strings.Contains(msg, "duplicate column name") || strings.Contains(msg, "already exists") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS pathways (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL UNIQUE,
		description        TEXT NOT NULL DEFAULT '',
		country            TEXT NOT NULL DEFAULT '',
		target_role        TEXT NOT NULL DEFAULT '',
		estimated_duration TEXT NOT NULL DEFAULT '',
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS pathway_milestones (
		id            TEXT PRIMARY KEY,
		pathway_id    TEXT NOT NULL REFERENCES pathways(id) ON DELETE CASCADE,
		name          TEXT NOT NULL,
		category      TEXT NOT NULL,
		is_required   INTEGER NOT NULL DEFAULT 1,
		display_order INTEGER NOT NULL DEFAULT 0,
		description   TEXT NOT NULL DEFAULT '',
		resource_url  TEXT NOT NULL DEFAULT '',
		alternatives  TEXT NOT NULL DEFAULT '[]',
		UNIQUE(pathway_id, name)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_pathway_milestones_pathway
		ON pathway_milestones(pathway_id, display_order)`,

	`CREATE TABLE IF NOT EXISTS user_profiles (
		id                TEXT PRIMARY KEY,
		display_name      TEXT NOT NULL DEFAULT '',
		specialty         TEXT NOT NULL DEFAULT '',
		pathway_refs      TEXT NOT NULL DEFAULT '[]',
		custom_milestones TEXT NOT NULL DEFAULT '[]',
		pathway_configs   TEXT NOT NULL DEFAULT '{}',
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS user_milestones (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		milestone_id   TEXT NOT NULL,
		milestone_name TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT 'todo'
		               CHECK(status IN ('todo','in_progress','done','skipped')),
		completed_at   TEXT,
		notes          TEXT NOT NULL DEFAULT '',
		updated_at     TEXT NOT NULL,
		UNIQUE(user_id, milestone_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_user_milestones_user
		ON user_milestones(user_id)`,
}
