// Package db opens the backing stores and owns their schemas.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// sqliteParams enables foreign keys, waits on a locked database instead of
// failing, and takes the write lock at BEGIN so that read-then-write
// transactions are serialized.
const sqliteParams = "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"

// DefaultPath returns the default SQLite database location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".rabotim", "rabotim.db"), nil
}

// SQLiteDSN builds the driver DSN for a database file.
func SQLiteDSN(path string) string {
	return "file:" + path + sqliteParams
}

// OpenSQLite opens (and creates if needed) a SQLite database and applies
// pending migrations.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	database, err := sql.Open("sqlite3", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := RunMigrations(ctx, database, DialectSQLite, logger); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// OpenPostgres connects to Postgres through the pgx stdlib driver and
// applies pending migrations.
func OpenPostgres(ctx context.Context, url string, logger *slog.Logger) (*sql.DB, error) {
	if url == "" {
		return nil, fmt.Errorf("postgres database URL is required")
	}

	database, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := RunMigrations(ctx, database, DialectPostgres, logger); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}
