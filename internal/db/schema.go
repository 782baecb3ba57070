package db

// SchemaSQL is the complete SQLite schema for rabotim.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the SQLite schema. Repository tests
// load it through GetSchemaSQL() instead of declaring their own tables, so a
// repository referencing a missing column fails with "no such column" at
// test time.
//
// The Postgres schema lives in postgres.go and must describe the same
// tables and constraints.
const SchemaSQL = `
-- Profiles (mirrors of identity-provider users)
CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	display_name TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Tasks
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	poster_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	category TEXT,
	budget INTEGER NOT NULL DEFAULT 0 CHECK(budget >= 0),
	status TEXT NOT NULL CHECK(status IN ('pending', 'in_progress', 'completed', 'cancelled')) DEFAULT 'pending',
	confirmed_by_poster INTEGER NOT NULL DEFAULT 0,
	confirmed_by_poster_at DATETIME,
	confirmed_by_worker INTEGER NOT NULL DEFAULT 0,
	confirmed_by_worker_at DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	started_at DATETIME,
	completed_at DATETIME,
	cancelled_at DATETIME,
	CHECK ((confirmed_by_poster = 1) = (confirmed_by_poster_at IS NOT NULL)),
	CHECK ((confirmed_by_worker = 1) = (confirmed_by_worker_at IS NOT NULL)),
	CHECK (status != 'completed' OR (confirmed_by_poster = 1 AND confirmed_by_worker = 1))
);

CREATE INDEX IF NOT EXISTS idx_tasks_poster ON tasks(poster_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

-- Applications (the accepted one defines the worker)
CREATE TABLE IF NOT EXISTS applications (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL,
	applicant_id TEXT NOT NULL,
	message TEXT,
	status TEXT NOT NULL CHECK(status IN ('pending', 'accepted', 'rejected', 'withdrawn')) DEFAULT 'pending',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	decided_at DATETIME,
	FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE,
	UNIQUE(task_id, applicant_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_one_accepted ON applications(task_id) WHERE status = 'accepted';

-- Reviews (one per reviewer and task)
CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL,
	reviewer_id TEXT NOT NULL,
	reviewee_id TEXT NOT NULL,
	reviewer_party TEXT NOT NULL CHECK(reviewer_party IN ('poster', 'worker')),
	score INTEGER NOT NULL CHECK(score BETWEEN 1 AND 5),
	text TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE,
	UNIQUE(task_id, reviewer_id)
);

CREATE INDEX IF NOT EXISTS idx_reviews_reviewee ON reviews(reviewee_id);

-- Activity log (audit trail)
CREATE TABLE IF NOT EXISTS activity_log (
	id TEXT PRIMARY KEY,
	actor_id TEXT,
	entity_type TEXT NOT NULL CHECK(entity_type IN ('task', 'application', 'review', 'profile')),
	entity_id TEXT NOT NULL,
	action TEXT NOT NULL CHECK(action IN ('create', 'update')),
	field_name TEXT,
	old_value TEXT,
	new_value TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_activity_log_entity ON activity_log(entity_type, entity_id);
`

// GetSchemaSQL returns the authoritative SQLite schema.
func GetSchemaSQL() string {
	return SchemaSQL
}
