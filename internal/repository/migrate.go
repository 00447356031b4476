package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

const (
	tableTemplates      = "templates"
	tableInstructions   = "trained_instructions"
	tableSettings       = "settings"
	tablePromptVersions = "prompt_versions"
)

func schemaStatements(d string) []string {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if d == dialect.Postgres {
		idColumn = "id BIGSERIAL PRIMARY KEY"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS templates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			document_type TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trained_instructions (
			template_id TEXT PRIMARY KEY,
			body TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS prompt_versions (
			` + idColumn + `,
			template_id TEXT NOT NULL,
			version TEXT NOT NULL,
			prompt TEXT NOT NULL,
			field_count INTEGER NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS prompt_versions_template_id ON prompt_versions (template_id, id)`,
	}
}

// Migrate creates the template store tables if they don't exist.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements(db.Dialect()) {
		if err := db.Driver.Exec(ctx, stmt, []any{}, nil); err != nil {
			db.logger.Error("migration failed", "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	db.logger.Info("database schema ready")
	return nil
}
