package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Dialect selects the SQL flavour of a store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

var sqliteMigrations = []Migration{
	{Version: 1, Name: "create_marketplace_schema", SQL: SchemaSQL},
}

var postgresMigrations = []Migration{
	{Version: 1, Name: "create_marketplace_schema", SQL: PostgresSchemaSQL},
	{Version: 2, Name: "add_can_submit_feedback_function", SQL: PostgresFeedbackFunctionSQL},
}

// Migrations returns the ordered migrations for a dialect.
func Migrations(d Dialect) []Migration {
	if d == DialectPostgres {
		return postgresMigrations
	}
	return sqliteMigrations
}

// RunMigrations executes all pending migrations for the dialect.
// Each migration runs in its own transaction together with its
// schema_version row.
func RunMigrations(ctx context.Context, database *sql.DB, d Dialect, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	_, err := database.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	currentVersion, err := CurrentVersion(ctx, database)
	if err != nil {
		return err
	}

	insertVersion := "INSERT INTO schema_version (version) VALUES (?)"
	if d == DialectPostgres {
		insertVersion = "INSERT INTO schema_version (version) VALUES ($1)"
	}

	for _, m := range Migrations(d) {
		if m.Version <= currentVersion {
			continue
		}

		logger.Info("running migration", "version", m.Version, "name", m.Name, "dialect", d)

		tx, err := database.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", m.Version, err)
		}

		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}

		if _, err := tx.ExecContext(ctx, insertVersion, m.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// CurrentVersion returns the highest applied migration, or 0.
func CurrentVersion(ctx context.Context, database *sql.DB) (int, error) {
	var v int
	err := database.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return v, nil
}
