package primary

import (
	"context"
	"io"
)

// NotificationService defines the primary port for step notifications:
// building variables, rendering into the outbox and delivering.
type NotificationService interface {
	// Notify renders the notification for a step and enqueues it.
	Notify(ctx context.Context, req NotifyRequest) (*NotifyResponse, error)

	// PreviewVariables builds the template variables without enqueuing anything.
	PreviewVariables(ctx context.Context, req NotifyRequest) (*VariablesPreview, error)

	// DispatchPending delivers deliverable outbox rows.
	DispatchPending(ctx context.Context) (*DispatchResult, error)

	// EnsureDefaultTemplates installs the built-in template for every type without one.
	EnsureDefaultTemplates(ctx context.Context) (int, error)

	// ListOutbox lists outbox rows.
	ListOutbox(ctx context.Context, filters OutboxFilters) ([]*OutboxEntry, error)
}

// NotifyRequest names the step and notification type plus type-specific data.
type NotifyRequest struct {
	StepID         string `json:"stepId"`
	Type           string `json:"type"`
	PreviousStatus string `json:"previousStatus,omitempty"`
	NewStatus      string `json:"newStatus,omitempty"`
	CompletedBy    string `json:"completedBy,omitempty"`
	CompletedAt    string `json:"completedAt,omitempty"`
	Instruction    string `json:"instruction,omitempty"`
}

// NotifyResponse reports the enqueued outbox row.
type NotifyResponse struct {
	OutboxID   string   `json:"outboxId,omitempty"`
	Recipients []string `json:"recipients"`
	Warnings   []string `json:"warnings,omitempty"`
	Skipped    bool     `json:"skipped"` // no recipient or no template
}

// VariablesPreview is the variable bag for a notification.
type VariablesPreview struct {
	Variables map[string]any `json:"variables"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// DispatchResult counts the outcome of one dispatch run.
type DispatchResult struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// OutboxFilters contains filter options for listing the outbox.
type OutboxFilters struct {
	Status           string `form:"status" validate:"omitempty,oneof=pending sent failed"`
	NotificationType string `form:"type"`
	EntityID         string `form:"entityId"`
	Limit            int    `form:"limit" validate:"gte=0,lte=10000"`
}

// OutboxEntry represents an outbox row at the port boundary.
type OutboxEntry struct {
	ID               string   `json:"id"`
	NotificationType string   `json:"notificationType"`
	EntityType       string   `json:"entityType"`
	EntityID         string   `json:"entityId"`
	Recipients       []string `json:"recipients"`
	Subject          string   `json:"subject"`
	BodyHTML         string   `json:"bodyHtml,omitempty"`
	Status           string   `json:"status"`
	Attempts         int      `json:"attempts"`
	LastError        string   `json:"lastError,omitempty"`
	CreatedAt        string   `json:"createdAt,omitempty"`
	SentAt           string   `json:"sentAt,omitempty"`
}

// Export formats for DebugService.
const (
	ExportJSON = "json"
	ExportCSV  = "csv"
)

// DebugService defines the primary port for debugging the e-mail pipeline.
type DebugService interface {
	// ExportEmails writes outbox rows to w as a JSON array or CSV.
	ExportEmails(ctx context.Context, w io.Writer, req ExportRequest) (int, error)
}

// ExportRequest selects the rows and format of an export.
type ExportRequest struct {
	Format  string        `form:"format" validate:"omitempty,oneof=json csv"`
	Filters OutboxFilters `form:"-"`
}
