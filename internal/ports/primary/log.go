package primary

import (
	"context"
	"time"
)

// LogService defines the primary port for reading the activity log.
type LogService interface {
	// ListLogs retrieves the log entries of one entity, oldest first.
	ListLogs(ctx context.Context, filters LogFilters) ([]*LogEntry, error)
}

// LogEntry represents an activity log entry at the port boundary.
type LogEntry struct {
	ID         string
	ActorID    string
	EntityType string
	EntityID   string
	Action     string // 'create', 'update'
	FieldName  string // For updates only
	OldValue   string
	NewValue   string
	CreatedAt  time.Time
}

// LogFilters contains filter options for listing log entries.
type LogFilters struct {
	EntityType string
	EntityID   string
}
