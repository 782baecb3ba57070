package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/example/rabotim/internal/core/completion"
	"github.com/example/rabotim/internal/core/task"
	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/secondary"
)

// TaskRepository implements secondary.TaskRepository with Postgres.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new Postgres task repository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskSelectCols = "id, poster_id, title, description, category, budget, status, confirmed_by_poster, confirmed_by_poster_at, confirmed_by_worker, confirmed_by_worker_at, created_at, updated_at, started_at, completed_at, cancelled_at"

var confirmColumns = map[string]struct{ flag, at, other string }{
	string(completion.PartyPoster): {"confirmed_by_poster", "confirmed_by_poster_at", "confirmed_by_worker"},
	string(completion.PartyWorker): {"confirmed_by_worker", "confirmed_by_worker_at", "confirmed_by_poster"},
}

func scanTask(scanner rowScanner) (*secondary.TaskRecord, error) {
	var (
		desc, category                                          sql.NullString
		posterAt, workerAt, startedAt, completedAt, cancelledAt sql.NullTime
	)

	record := &secondary.TaskRecord{}
	err := scanner.Scan(
		&record.ID, &record.PosterID, &record.Title, &desc, &category, &record.Budget, &record.Status,
		&record.ConfirmedByPoster, &posterAt, &record.ConfirmedByWorker, &workerAt,
		&record.CreatedAt, &record.UpdatedAt, &startedAt, &completedAt, &cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	record.Description = desc.String
	record.Category = category.String
	record.ConfirmedByPosterAt = timePtr(posterAt)
	record.ConfirmedByWorkerAt = timePtr(workerAt)
	record.StartedAt = timePtr(startedAt)
	record.CompletedAt = timePtr(completedAt)
	record.CancelledAt = timePtr(cancelledAt)
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

// Create persists a new task.
func (r *TaskRepository) Create(ctx context.Context, t *secondary.TaskRecord) error {
	now := t.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO tasks (id, poster_id, title, description, category, budget, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)",
		t.ID, t.PosterID, t.Title, nullString(t.Description), nullString(t.Category), t.Budget, task.StatusPending, now.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.New(errs.KindConflict, "task %s already exists", t.ID)
		}
		return errs.Transient("failed to create task", err)
	}
	return nil
}

// GetByID retrieves a task by its ID.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*secondary.TaskRecord, error) {
	return getTask(ctx, r.db, "SELECT "+taskSelectCols+" FROM tasks WHERE id = $1", id)
}

func getTask(ctx context.Context, q querier, query, id string) (*secondary.TaskRecord, error) {
	record, err := scanTask(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.KindNotFound, "task %s not found", id)
	}
	if err != nil {
		return nil, errs.Transient("failed to get task", err)
	}
	return record, nil
}

// List retrieves tasks matching the given filters.
func (r *TaskRepository) List(ctx context.Context, filters secondary.TaskFilters) ([]*secondary.TaskRecord, error) {
	query := "SELECT " + taskSelectCols + " FROM tasks WHERE 1=1"
	args := []any{}
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filters.PosterID != "" {
		query += " AND poster_id = " + next(filters.PosterID)
	}
	if filters.WorkerID != "" {
		query += " AND id IN (SELECT task_id FROM applications WHERE applicant_id = " + next(filters.WorkerID) + " AND status = 'accepted')"
	}
	if filters.Status != "" {
		query += " AND status = " + next(filters.Status)
	}
	query += " ORDER BY created_at DESC, id ASC"
	if filters.Limit > 0 {
		query += " LIMIT " + next(filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Transient("failed to list tasks", err)
	}
	defer rows.Close()

	var tasks []*secondary.TaskRecord
	for rows.Next() {
		record, err := scanTask(rows)
		if err != nil {
			return nil, errs.Transient("failed to scan task", err)
		}
		tasks = append(tasks, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Transient("failed to list tasks", err)
	}
	return tasks, nil
}

// Cancel moves a pending or in_progress task to cancelled.
func (r *TaskRepository) Cancel(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET status = 'cancelled', cancelled_at = $1, updated_at = $1 WHERE id = $2 AND status IN ('pending', 'in_progress')",
		at.UTC(), id,
	)
	if err != nil {
		return errs.Transient("failed to cancel task", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return errs.New(errs.KindInvalidState, "can only cancel pending or in_progress tasks (current status: %s)", current.Status)
	}
	return nil
}

// ConfirmParty locks the task row, sets the party's confirmation and, when
// the other party has already confirmed, completes the task in the same
// statement. The row lock serializes concurrent confirmations.
func (r *TaskRepository) ConfirmParty(ctx context.Context, id, party string, at time.Time) (*secondary.ConfirmOutcome, error) {
	cols, ok := confirmColumns[party]
	if !ok {
		return nil, errs.New(errs.KindValidation, "unknown party %q", party)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errs.Transient("failed to begin confirmation", err)
	}
	defer tx.Rollback()

	current, err := getTask(ctx, tx, "SELECT "+taskSelectCols+" FROM tasks WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, err
	}

	already := current.ConfirmedByPoster
	if party == string(completion.PartyWorker) {
		already = current.ConfirmedByWorker
	}
	if already {
		if err := tx.Commit(); err != nil {
			return nil, errs.Transient("failed to commit confirmation", err)
		}
		return &secondary.ConfirmOutcome{Task: current}, nil
	}
	if current.Status != task.StatusInProgress {
		return nil, errs.New(errs.KindInvalidState, "task %s is not in progress (current status: %s)", id, current.Status)
	}

	updated, err := scanTask(tx.QueryRowContext(ctx,
		"UPDATE tasks SET "+cols.flag+" = TRUE, "+cols.at+" = $1, updated_at = $1, "+
			"status = CASE WHEN "+cols.other+" THEN 'completed' ELSE status END, "+
			"completed_at = CASE WHEN "+cols.other+" THEN $1 ELSE completed_at END "+
			"WHERE id = $2 RETURNING "+taskSelectCols,
		at.UTC(), id,
	))
	if err != nil {
		return nil, errs.Transient("failed to record confirmation", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Transient("failed to commit confirmation", err)
	}

	return &secondary.ConfirmOutcome{
		Task:         updated,
		Applied:      true,
		CompletedNow: updated.Status == task.StatusCompleted,
	}, nil
}

// FeedbackAllowed asks the database's can_submit_feedback function.
func (r *TaskRepository) FeedbackAllowed(ctx context.Context, taskID, userID string) (bool, error) {
	var allowed bool
	if err := r.db.QueryRowContext(ctx, "SELECT can_submit_feedback($1, $2)", taskID, userID).Scan(&allowed); err != nil {
		return false, errs.Transient("failed to evaluate can_submit_feedback", err)
	}
	return allowed, nil
}

// Ensure TaskRepository implements the interfaces
var (
	_ secondary.TaskRepository  = (*TaskRepository)(nil)
	_ secondary.FeedbackChecker = (*TaskRepository)(nil)
)
