// Package sqlite_test contains integration tests for SQLite repositories.
//
// All test setup goes through setupTestDB, which loads db.GetSchemaSQL()
// so tests always run against the authoritative schema. Do not declare
// tables in test files; use setupTestDB and the seed* helpers.
package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/rabotim/internal/db"
)

var testEpoch = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory database with the authoritative schema.
// The pool is pinned to one connection so every statement sees the same
// in-memory database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// setupFileDB opens a file-backed database through db.OpenSQLite, with the
// production connection parameters, for tests that need real concurrency.
func setupFileDB(t *testing.T) *sql.DB {
	t.Helper()

	fileDB, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "rabotim.db"), nil)
	if err != nil {
		t.Fatalf("failed to open file db: %v", err)
	}
	t.Cleanup(func() {
		fileDB.Close()
	})
	return fileDB
}

// seedTask inserts a pending task and returns its ID.
func seedTask(t *testing.T, db *sql.DB, id, posterID string) string {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO tasks (id, poster_id, title, budget, status, created_at, updated_at) VALUES (?, ?, ?, 0, 'pending', ?, ?)",
		id, posterID, "Fix the sink "+id, testEpoch, testEpoch)
	if err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	return id
}

// seedInProgressTask inserts a task with an accepted worker.
func seedInProgressTask(t *testing.T, db *sql.DB, id, posterID, workerID string) string {
	t.Helper()
	seedTask(t, db, id, posterID)
	_, err := db.Exec(
		"INSERT INTO applications (id, task_id, applicant_id, status, created_at, updated_at, decided_at) VALUES (?, ?, ?, 'accepted', ?, ?, ?)",
		"APP-"+id, id, workerID, testEpoch, testEpoch, testEpoch)
	if err != nil {
		t.Fatalf("failed to seed accepted application: %v", err)
	}
	_, err = db.Exec("UPDATE tasks SET status = 'in_progress', started_at = ? WHERE id = ?", testEpoch, id)
	if err != nil {
		t.Fatalf("failed to start task: %v", err)
	}
	return id
}

// seedApplication inserts a pending application and returns its ID.
func seedApplication(t *testing.T, db *sql.DB, id, taskID, applicantID string) string {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO applications (id, task_id, applicant_id, status, created_at, updated_at) VALUES (?, ?, ?, 'pending', ?, ?)",
		id, taskID, applicantID, testEpoch, testEpoch)
	if err != nil {
		t.Fatalf("failed to seed application: %v", err)
	}
	return id
}
