// Package migration creates and evolves the database schema. Every
// statement is idempotent so the runner can execute on each startup.
package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"ecocausal/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAnalysesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create analyses table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createAnalysesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analyses (
			id UUID PRIMARY KEY,
			kind VARCHAR(50) NOT NULL,
			target_name TEXT NOT NULL,
			fingerprint VARCHAR(64) UNIQUE NOT NULL,
			payload JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_analyses_kind ON analyses(kind)",
		"CREATE INDEX IF NOT EXISTS idx_analyses_target ON analyses(target_name)",
		"CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC)",
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return err
		}
	}
	return nil
}
