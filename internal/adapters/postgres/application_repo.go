package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/rabotim/internal/core/application"
	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/secondary"
)

// ApplicationRepository implements secondary.ApplicationRepository with Postgres.
type ApplicationRepository struct {
	db *sql.DB
}

// NewApplicationRepository creates a new Postgres application repository.
func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationSelectCols = "id, task_id, applicant_id, message, status, created_at, updated_at, decided_at"

func scanApplication(scanner rowScanner) (*secondary.ApplicationRecord, error) {
	var (
		message   sql.NullString
		decidedAt sql.NullTime
	)

	record := &secondary.ApplicationRecord{}
	err := scanner.Scan(&record.ID, &record.TaskID, &record.ApplicantID, &message, &record.Status,
		&record.CreatedAt, &record.UpdatedAt, &decidedAt)
	if err != nil {
		return nil, err
	}
	record.Message = message.String
	record.DecidedAt = timePtr(decidedAt)
	return record, nil
}

// Create persists a new pending application.
func (r *ApplicationRepository) Create(ctx context.Context, a *secondary.ApplicationRecord) error {
	now := a.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO applications (id, task_id, applicant_id, message, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $6)",
		a.ID, a.TaskID, a.ApplicantID, nullString(a.Message), application.StatusPending, now.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.New(errs.KindConflict, "you have already applied to task %s", a.TaskID)
		}
		return errs.Transient("failed to create application", err)
	}
	return nil
}

// GetByID retrieves an application by its ID.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*secondary.ApplicationRecord, error) {
	return getApplication(ctx, r.db, "SELECT "+applicationSelectCols+" FROM applications WHERE id = $1", id)
}

func getApplication(ctx context.Context, q querier, query, id string) (*secondary.ApplicationRecord, error) {
	record, err := scanApplication(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.KindNotFound, "application %s not found", id)
	}
	if err != nil {
		return nil, errs.Transient("failed to get application", err)
	}
	return record, nil
}

// ListByTask retrieves all applications for a task, oldest first.
func (r *ApplicationRepository) ListByTask(ctx context.Context, taskID string) ([]*secondary.ApplicationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+applicationSelectCols+" FROM applications WHERE task_id = $1 ORDER BY created_at ASC, id ASC", taskID)
	if err != nil {
		return nil, errs.Transient("failed to list applications", err)
	}
	defer rows.Close()

	var apps []*secondary.ApplicationRecord
	for rows.Next() {
		record, err := scanApplication(rows)
		if err != nil {
			return nil, errs.Transient("failed to scan application", err)
		}
		apps = append(apps, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Transient("failed to list applications", err)
	}
	return apps, nil
}

// GetAccepted returns the accepted application of a task, or nil.
func (r *ApplicationRepository) GetAccepted(ctx context.Context, taskID string) (*secondary.ApplicationRecord, error) {
	record, err := scanApplication(r.db.QueryRowContext(ctx,
		"SELECT "+applicationSelectCols+" FROM applications WHERE task_id = $1 AND status = 'accepted'", taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Transient("failed to get accepted application", err)
	}
	return record, nil
}

// Exists checks whether the applicant already applied to the task.
func (r *ApplicationRepository) Exists(ctx context.Context, taskID, applicantID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM applications WHERE task_id = $1 AND applicant_id = $2)", taskID, applicantID,
	).Scan(&exists)
	if err != nil {
		return false, errs.Transient("failed to check application", err)
	}
	return exists, nil
}

// Accept accepts the application, rejects the task's other pending
// applications and starts the task, in one transaction. The task row is
// locked first so two acceptances on one task cannot interleave.
func (r *ApplicationRepository) Accept(ctx context.Context, id string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Transient("failed to begin acceptance", err)
	}
	defer tx.Rollback()

	app, err := getApplication(ctx, tx, "SELECT "+applicationSelectCols+" FROM applications WHERE id = $1", id)
	if err != nil {
		return err
	}

	var taskStatus string
	err = tx.QueryRowContext(ctx, "SELECT status FROM tasks WHERE id = $1 FOR UPDATE", app.TaskID).Scan(&taskStatus)
	if err != nil {
		return errs.Transient("failed to lock task", err)
	}
	if taskStatus != "pending" {
		return errs.New(errs.KindInvalidState, "task %s already has an accepted worker", app.TaskID)
	}
	if app.Status != application.StatusPending {
		return errs.New(errs.KindInvalidState, "application %s is not pending (current status: %s)", id, app.Status)
	}

	statements := []struct {
		query string
		args  []any
		op    string
	}{
		{"UPDATE applications SET status = 'accepted', decided_at = $1, updated_at = $1 WHERE id = $2", []any{at.UTC(), id}, "failed to accept application"},
		{"UPDATE tasks SET status = 'in_progress', started_at = $1, updated_at = $1 WHERE id = $2", []any{at.UTC(), app.TaskID}, "failed to start task"},
		{"UPDATE applications SET status = 'rejected', decided_at = $1, updated_at = $1 WHERE task_id = $2 AND id <> $3 AND status = 'pending'", []any{at.UTC(), app.TaskID, id}, "failed to reject other applications"},
	}
	for _, s := range statements {
		if _, err := tx.ExecContext(ctx, s.query, s.args...); err != nil {
			return errs.Transient(s.op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Transient("failed to commit acceptance", err)
	}
	return nil
}

// Withdraw marks a pending application withdrawn.
func (r *ApplicationRepository) Withdraw(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE applications SET status = 'withdrawn', decided_at = $1, updated_at = $1 WHERE id = $2 AND status = 'pending'",
		at.UTC(), id)
	if err != nil {
		return errs.Transient("failed to withdraw application", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return errs.New(errs.KindInvalidState, "application %s is not pending (current status: %s)", id, current.Status)
	}
	return nil
}

// Ensure ApplicationRepository implements the interface
var _ secondary.ApplicationRepository = (*ApplicationRepository)(nil)
