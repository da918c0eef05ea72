package app

import (
	"context"
	"fmt"

	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/ports/secondary"
)

// AuditServiceImpl implements the AuditService interface.
type AuditServiceImpl struct {
	auditRepo secondary.AuditLogRepository
}

// NewAuditService creates a new AuditService with injected dependencies.
func NewAuditService(auditRepo secondary.AuditLogRepository) *AuditServiceImpl {
	return &AuditServiceImpl{
		auditRepo: auditRepo,
	}
}

// ListEntries retrieves audit entries matching the given filters.
func (s *AuditServiceImpl) ListEntries(ctx context.Context, filters primary.AuditFilters) ([]*primary.AuditEntry, error) {
	records, err := s.auditRepo.List(ctx, secondary.AuditLogFilters{
		EntityType: filters.EntityType,
		EntityID:   filters.EntityID,
		Actor:      filters.Actor,
		Limit:      filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	entries := make([]*primary.AuditEntry, len(records))
	for i, r := range records {
		entries[i] = &primary.AuditEntry{
			ID:         r.ID,
			Actor:      r.Actor,
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			Action:     r.Action,
			Details:    r.Details,
			CreatedAt:  r.CreatedAt,
		}
	}
	return entries, nil
}

// Ensure AuditServiceImpl implements the interface
var _ primary.AuditService = (*AuditServiceImpl)(nil)
