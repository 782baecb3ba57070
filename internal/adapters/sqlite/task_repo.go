// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/rabotim/internal/core/completion"
	"github.com/example/rabotim/internal/core/task"
	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/secondary"
)

// TaskRepository implements secondary.TaskRepository with SQLite.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new SQLite task repository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask scans a task row into a TaskRecord.
func scanTask(scanner rowScanner) (*secondary.TaskRecord, error) {
	var (
		desc        sql.NullString
		category    sql.NullString
		posterAt    sql.NullTime
		workerAt    sql.NullTime
		startedAt   sql.NullTime
		completedAt sql.NullTime
		cancelledAt sql.NullTime
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

	return record, nil
}

const taskSelectCols = "id, poster_id, title, description, category, budget, status, confirmed_by_poster, confirmed_by_poster_at, confirmed_by_worker, confirmed_by_worker_at, created_at, updated_at, started_at, completed_at, cancelled_at"

// confirmColumns maps a party to its flag and stamp columns. Column names
// are never taken from input.
var confirmColumns = map[string]struct{ flag, at string }{
	string(completion.PartyPoster): {"confirmed_by_poster", "confirmed_by_poster_at"},
	string(completion.PartyWorker): {"confirmed_by_worker", "confirmed_by_worker_at"},
}

// Create persists a new task.
func (r *TaskRepository) Create(ctx context.Context, t *secondary.TaskRecord) error {
	now := t.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO tasks (id, poster_id, title, description, category, budget, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.PosterID, t.Title, nullString(t.Description), nullString(t.Category), t.Budget, task.StatusPending, now.UTC(), now.UTC(),
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
	return getTask(ctx, r.db, id)
}

func getTask(ctx context.Context, q querier, id string) (*secondary.TaskRecord, error) {
	row := q.QueryRowContext(ctx, "SELECT "+taskSelectCols+" FROM tasks WHERE id = ?", id)

	record, err := scanTask(row)
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

	if filters.PosterID != "" {
		query += " AND poster_id = ?"
		args = append(args, filters.PosterID)
	}

	if filters.WorkerID != "" {
		query += " AND id IN (SELECT task_id FROM applications WHERE applicant_id = ? AND status = 'accepted')"
		args = append(args, filters.WorkerID)
	}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	query += " ORDER BY created_at DESC, id ASC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
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
		"UPDATE tasks SET status = 'cancelled', cancelled_at = ?, updated_at = ? WHERE id = ? AND status IN ('pending', 'in_progress')",
		at.UTC(), at.UTC(), id,
	)
	if err != nil {
		return errs.Transient("failed to cancel task", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errs.Transient("failed to cancel task", err)
	}
	if n == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return errs.New(errs.KindInvalidState, "can only cancel pending or in_progress tasks (current status: %s)", current.Status)
	}

	return nil
}

// ConfirmParty sets the party's confirmation and completes the task when
// both parties have confirmed. The transaction starts with BEGIN IMMEDIATE
// (see db.SQLiteDSN), so two confirmations of the same task are serialized
// and exactly one of them observes both flags set.
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

	res, err := tx.ExecContext(ctx,
		"UPDATE tasks SET "+cols.flag+" = 1, "+cols.at+" = ?, updated_at = ? WHERE id = ? AND status = 'in_progress' AND "+cols.flag+" = 0",
		at.UTC(), at.UTC(), id,
	)
	if err != nil {
		return nil, errs.Transient("failed to record confirmation", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, errs.Transient("failed to record confirmation", err)
	}
	applied := n == 1

	completedNow := false
	if applied {
		res, err = tx.ExecContext(ctx,
			"UPDATE tasks SET status = 'completed', completed_at = ?, updated_at = ? WHERE id = ? AND status = 'in_progress' AND confirmed_by_poster = 1 AND confirmed_by_worker = 1",
			at.UTC(), at.UTC(), id,
		)
		if err != nil {
			return nil, errs.Transient("failed to complete task", err)
		}
		if n, err = res.RowsAffected(); err != nil {
			return nil, errs.Transient("failed to complete task", err)
		}
		completedNow = n == 1
	}

	record, err := getTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if !applied && !confirmedBy(record, party) {
		return nil, errs.New(errs.KindInvalidState, "task %s is not in progress (current status: %s)", id, record.Status)
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Transient("failed to commit confirmation", err)
	}

	return &secondary.ConfirmOutcome{Task: record, Applied: applied, CompletedNow: completedNow}, nil
}

func confirmedBy(t *secondary.TaskRecord, party string) bool {
	if party == string(completion.PartyPoster) {
		return t.ConfirmedByPoster
	}
	return t.ConfirmedByWorker
}

// Ensure TaskRepository implements the interface
var _ secondary.TaskRepository = (*TaskRepository)(nil)
