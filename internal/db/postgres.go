package db

// PostgresSchemaSQL mirrors SchemaSQL for Postgres (Supabase).
const PostgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	display_name TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	poster_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	category TEXT,
	budget BIGINT NOT NULL DEFAULT 0 CHECK (budget >= 0),
	status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'in_progress', 'completed', 'cancelled')),
	confirmed_by_poster BOOLEAN NOT NULL DEFAULT FALSE,
	confirmed_by_poster_at TIMESTAMPTZ,
	confirmed_by_worker BOOLEAN NOT NULL DEFAULT FALSE,
	confirmed_by_worker_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ,
	cancelled_at TIMESTAMPTZ,
	CHECK (confirmed_by_poster = (confirmed_by_poster_at IS NOT NULL)),
	CHECK (confirmed_by_worker = (confirmed_by_worker_at IS NOT NULL)),
	CHECK (status <> 'completed' OR (confirmed_by_poster AND confirmed_by_worker))
);

CREATE INDEX IF NOT EXISTS idx_tasks_poster ON tasks(poster_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

CREATE TABLE IF NOT EXISTS applications (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	applicant_id TEXT NOT NULL,
	message TEXT,
	status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected', 'withdrawn')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	decided_at TIMESTAMPTZ,
	UNIQUE (task_id, applicant_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_one_accepted ON applications(task_id) WHERE status = 'accepted';

CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	reviewer_id TEXT NOT NULL,
	reviewee_id TEXT NOT NULL,
	reviewer_party TEXT NOT NULL CHECK (reviewer_party IN ('poster', 'worker')),
	score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 5),
	text TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (task_id, reviewer_id)
);

CREATE INDEX IF NOT EXISTS idx_reviews_reviewee ON reviews(reviewee_id);

CREATE TABLE IF NOT EXISTS activity_log (
	id TEXT PRIMARY KEY,
	actor_id TEXT,
	entity_type TEXT NOT NULL CHECK (entity_type IN ('task', 'application', 'review', 'profile')),
	entity_id TEXT NOT NULL,
	action TEXT NOT NULL CHECK (action IN ('create', 'update')),
	field_name TEXT,
	old_value TEXT,
	new_value TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_activity_log_entity ON activity_log(entity_type, entity_id);
`

// PostgresFeedbackFunctionSQL installs can_submit_feedback(task_id, user_id)
// so RPC clients get the same answer as the service's feedback gate.
// Keep it in step with completion.EvaluateFeedback.
const PostgresFeedbackFunctionSQL = `
CREATE OR REPLACE FUNCTION can_submit_feedback(p_task_id TEXT, p_user_id TEXT)
RETURNS BOOLEAN
LANGUAGE plpgsql
STABLE
AS $$
DECLARE
	t tasks%ROWTYPE;
	v_worker TEXT;
	v_viewer_at TIMESTAMPTZ;
BEGIN
	SELECT * INTO t FROM tasks WHERE id = p_task_id;
	IF NOT FOUND THEN
		RETURN FALSE;
	END IF;

	SELECT applicant_id INTO v_worker
	FROM applications
	WHERE task_id = p_task_id AND status = 'accepted';

	IF p_user_id = t.poster_id THEN
		v_viewer_at := t.confirmed_by_poster_at;
	ELSIF v_worker IS NOT NULL AND p_user_id = v_worker THEN
		v_viewer_at := t.confirmed_by_worker_at;
	ELSE
		RETURN FALSE;
	END IF;

	IF t.status = 'completed' OR (t.confirmed_by_poster AND t.confirmed_by_worker) THEN
		RETURN TRUE;
	END IF;

	IF v_viewer_at IS NULL THEN
		RETURN FALSE;
	END IF;

	RETURN now() - v_viewer_at >= INTERVAL '7 days';
END;
$$;
`
