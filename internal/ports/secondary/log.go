package secondary

import (
	"context"
	"time"
)

// LogWriter defines the interface for writing activity log entries.
// Implementations take the actor from context.
type LogWriter interface {
	// LogCreate logs a create operation for an entity.
	LogCreate(ctx context.Context, entityType, entityID string) error

	// LogUpdate logs an update operation for an entity field.
	// fieldName, oldValue, newValue describe what changed.
	LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error
}

// ActivityLogRepository defines the secondary port for the activity log,
// the audit trail moderators read.
type ActivityLogRepository interface {
	// Create persists a log entry.
	Create(ctx context.Context, entry *ActivityLogRecord) error

	// ListByEntity retrieves entries for one entity, oldest first.
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*ActivityLogRecord, error)
}

// ActivityLogRecord represents one audit entry.
type ActivityLogRecord struct {
	ID         string
	ActorID    string // Empty string means null
	EntityType string // task, application, review
	EntityID   string
	Action     string // create, update
	FieldName  string // Empty string means null
	OldValue   string // Empty string means null
	NewValue   string // Empty string means null
	CreatedAt  time.Time
}
