package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/rabotim/internal/ctxutil"
	"github.com/example/rabotim/internal/ports/secondary"
)

// LogWriterAdapter implements secondary.LogWriter on top of an
// ActivityLogRepository. It works with any store's repository.
type LogWriterAdapter struct {
	logRepo secondary.ActivityLogRepository
	now     func() time.Time
}

// NewLogWriterAdapter creates a new LogWriterAdapter.
func NewLogWriterAdapter(logRepo secondary.ActivityLogRepository) *LogWriterAdapter {
	return &LogWriterAdapter{logRepo: logRepo, now: time.Now}
}

// LogCreate logs a create operation for an entity.
func (w *LogWriterAdapter) LogCreate(ctx context.Context, entityType, entityID string) error {
	return w.writeLog(ctx, entityType, entityID, "create", "", "", "")
}

// LogUpdate logs an update operation for an entity field.
func (w *LogWriterAdapter) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	return w.writeLog(ctx, entityType, entityID, "update", fieldName, oldValue, newValue)
}

func (w *LogWriterAdapter) writeLog(ctx context.Context, entityType, entityID, action, fieldName, oldValue, newValue string) error {
	record := &secondary.ActivityLogRecord{
		ID:         uuid.NewString(),
		ActorID:    ctxutil.ActorFromContext(ctx),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		FieldName:  fieldName,
		OldValue:   oldValue,
		NewValue:   newValue,
		CreatedAt:  w.now().UTC(),
	}

	return w.logRepo.Create(ctx, record)
}

// Ensure LogWriterAdapter implements the interface
var _ secondary.LogWriter = (*LogWriterAdapter)(nil)
