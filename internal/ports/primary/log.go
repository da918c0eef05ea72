package primary

import "context"

// AuditService defines the primary port for the audit trail of entity changes.
type AuditService interface {
	// ListEntries retrieves audit entries matching the given filters, newest first.
	ListEntries(ctx context.Context, filters AuditFilters) ([]*AuditEntry, error)
}

// AuditEntry represents an audit entry at the port boundary.
type AuditEntry struct {
	ID         int64  `json:"id"`
	Actor      string `json:"actor"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Action     string `json:"action"` // 'create', 'update', 'delete'
	Details    string `json:"details,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// AuditFilters contains filter options for querying the audit trail.
type AuditFilters struct {
	EntityType string `form:"entityType"`
	EntityID   string `form:"entityId"`
	Actor      string `form:"actor"`
	Limit      int    `form:"limit" validate:"gte=0,lte=1000"`
}
