package app

import (
	"context"

	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/primary"
	"github.com/example/rabotim/internal/ports/secondary"
)

// LogServiceImpl implements the LogService interface.
type LogServiceImpl struct {
	logRepo secondary.ActivityLogRepository
}

// NewLogService creates a new LogService with injected dependencies.
func NewLogService(logRepo secondary.ActivityLogRepository) *LogServiceImpl {
	return &LogServiceImpl{
		logRepo: logRepo,
	}
}

// ListLogs retrieves the log entries of one entity.
func (s *LogServiceImpl) ListLogs(ctx context.Context, filters primary.LogFilters) ([]*primary.LogEntry, error) {
	if filters.EntityID == "" {
		return nil, errs.New(errs.KindValidation, "entity ID is required")
	}

	records, err := s.logRepo.ListByEntity(ctx, filters.EntityType, filters.EntityID)
	if err != nil {
		return nil, err
	}

	entries := make([]*primary.LogEntry, len(records))
	for i, r := range records {
		entries[i] = s.recordToLogEntry(r)
	}
	return entries, nil
}

// Helper methods

func (s *LogServiceImpl) recordToLogEntry(r *secondary.ActivityLogRecord) *primary.LogEntry {
	return &primary.LogEntry{
		ID:         r.ID,
		ActorID:    r.ActorID,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Action:     r.Action,
		FieldName:  r.FieldName,
		OldValue:   r.OldValue,
		NewValue:   r.NewValue,
		CreatedAt:  r.CreatedAt,
	}
}

// Ensure LogServiceImpl implements the interface
var _ primary.LogService = (*LogServiceImpl)(nil)
