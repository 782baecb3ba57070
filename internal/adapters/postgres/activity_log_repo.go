package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/secondary"
)

// ActivityLogRepository implements secondary.ActivityLogRepository with Postgres.
type ActivityLogRepository struct {
	db *sql.DB
}

// NewActivityLogRepository creates a new Postgres activity log repository.
func NewActivityLogRepository(db *sql.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Create persists a new activity log entry.
func (r *ActivityLogRepository) Create(ctx context.Context, entry *secondary.ActivityLogRecord) error {
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_log (id, actor_id, entity_type, entity_id, action, field_name, old_value, new_value, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, nullString(entry.ActorID), entry.EntityType, entry.EntityID, entry.Action,
		nullString(entry.FieldName), nullString(entry.OldValue), nullString(entry.NewValue), created.UTC(),
	)
	if err != nil {
		return errs.Transient("failed to create activity log entry", err)
	}
	return nil
}

// ListByEntity retrieves entries for one entity, oldest first.
func (r *ActivityLogRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]*secondary.ActivityLogRecord, error) {
	query := `SELECT id, actor_id, entity_type, entity_id, action, field_name, old_value, new_value, created_at FROM activity_log WHERE 1=1`
	args := []any{}
	if entityType != "" {
		args = append(args, entityType)
		query += " AND entity_type = $" + strconv.Itoa(len(args))
	}
	if entityID != "" {
		args = append(args, entityID)
		query += " AND entity_id = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Transient("failed to list activity log", err)
	}
	defer rows.Close()

	var entries []*secondary.ActivityLogRecord
	for rows.Next() {
		var actorID, fieldName, oldValue, newValue sql.NullString
		record := &secondary.ActivityLogRecord{}
		if err := rows.Scan(&record.ID, &actorID, &record.EntityType, &record.EntityID, &record.Action,
			&fieldName, &oldValue, &newValue, &record.CreatedAt); err != nil {
			return nil, errs.Transient("failed to scan activity log entry", err)
		}
		record.ActorID = actorID.String
		record.FieldName = fieldName.String
		record.OldValue = oldValue.String
		record.NewValue = newValue.String
		entries = append(entries, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Transient("failed to list activity log", err)
	}
	return entries, nil
}

// Ensure ActivityLogRepository implements the interface
var _ secondary.ActivityLogRepository = (*ActivityLogRepository)(nil)
