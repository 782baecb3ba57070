package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/secondary"
)

// ReviewRepository implements secondary.ReviewRepository with SQLite.
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new SQLite review repository.
func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewSelectCols = "id, task_id, reviewer_id, reviewee_id, reviewer_party, score, text, created_at"

func scanReview(scanner rowScanner) (*secondary.ReviewRecord, error) {
	var text sql.NullString
	record := &secondary.ReviewRecord{}
	err := scanner.Scan(&record.ID, &record.TaskID, &record.ReviewerID, &record.RevieweeID,
		&record.ReviewerParty, &record.Score, &text, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	record.Text = text.String
	return record, nil
}

// Create persists a review.
func (r *ReviewRepository) Create(ctx context.Context, rv *secondary.ReviewRecord) error {
	created := rv.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (id, task_id, reviewer_id, reviewee_id, reviewer_party, score, text, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		rv.ID, rv.TaskID, rv.ReviewerID, rv.RevieweeID, rv.ReviewerParty, rv.Score, nullString(rv.Text), created.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.New(errs.KindConflict, "you have already reviewed task %s", rv.TaskID)
		}
		return errs.Transient("failed to create review", err)
	}
	return nil
}

// Exists checks whether the reviewer already reviewed the task.
func (r *ReviewRepository) Exists(ctx context.Context, taskID, reviewerID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reviews WHERE task_id = ? AND reviewer_id = ?", taskID, reviewerID,
	).Scan(&count)
	if err != nil {
		return false, errs.Transient("failed to check review", err)
	}
	return count > 0, nil
}

// ListForUser retrieves reviews received by a user, newest first.
func (r *ReviewRepository) ListForUser(ctx context.Context, revieweeID string) ([]*secondary.ReviewRecord, error) {
	return r.list(ctx, "SELECT "+reviewSelectCols+" FROM reviews WHERE reviewee_id = ? ORDER BY created_at DESC, id ASC", revieweeID)
}

// ListForTask retrieves reviews left on a task.
func (r *ReviewRepository) ListForTask(ctx context.Context, taskID string) ([]*secondary.ReviewRecord, error) {
	return r.list(ctx, "SELECT "+reviewSelectCols+" FROM reviews WHERE task_id = ? ORDER BY created_at ASC, id ASC", taskID)
}

func (r *ReviewRepository) list(ctx context.Context, query string, args ...any) ([]*secondary.ReviewRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Transient("failed to list reviews", err)
	}
	defer rows.Close()

	var reviews []*secondary.ReviewRecord
	for rows.Next() {
		record, err := scanReview(rows)
		if err != nil {
			return nil, errs.Transient("failed to scan review", err)
		}
		reviews = append(reviews, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Transient("failed to list reviews", err)
	}
	return reviews, nil
}

// Ensure ReviewRepository implements the interface
var _ secondary.ReviewRepository = (*ReviewRepository)(nil)
