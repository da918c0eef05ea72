package sqlite

import (
	"context"
	"fmt"

	"github.com/example/umig/internal/ctxutil"
	"github.com/example/umig/internal/ports/secondary"
)

// LogWriterAdapter implements secondary.LogWriter on top of AuditLogRepository.
type LogWriterAdapter struct {
	auditRepo secondary.AuditLogRepository
}

// NewLogWriterAdapter creates a new LogWriterAdapter.
func NewLogWriterAdapter(auditRepo secondary.AuditLogRepository) *LogWriterAdapter {
	return &LogWriterAdapter{auditRepo: auditRepo}
}

// LogCreate logs a create operation for an entity.
func (w *LogWriterAdapter) LogCreate(ctx context.Context, entityType, entityID string) error {
	return w.writeLog(ctx, entityType, entityID, "create", "")
}

// LogUpdate logs an update operation for an entity field.
func (w *LogWriterAdapter) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	details := fmt.Sprintf("%s: %q -> %q", fieldName, oldValue, newValue)
	return w.writeLog(ctx, entityType, entityID, "update", details)
}

// LogDelete logs a delete operation for an entity.
func (w *LogWriterAdapter) LogDelete(ctx context.Context, entityType, entityID string) error {
	return w.writeLog(ctx, entityType, entityID, "delete", "")
}

// writeLog attributes the entry to the context actor, or "system".
func (w *LogWriterAdapter) writeLog(ctx context.Context, entityType, entityID, action, details string) error {
	return w.auditRepo.Create(ctx, &secondary.AuditLogRecord{
		Actor:      ctxutil.ActorOrSystem(ctx),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    details,
	})
}

// Ensure LogWriterAdapter implements the interface
var _ secondary.LogWriter = (*LogWriterAdapter)(nil)
