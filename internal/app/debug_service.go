package app

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/ports/secondary"
)

// csvHeader is the column order of the CSV export.
var csvHeader = []string{
	"id", "notification_type", "entity_id", "recipients", "subject",
	"status", "attempts", "last_error", "created_at", "sent_at",
}

// DebugServiceImpl implements the DebugService interface.
type DebugServiceImpl struct {
	outboxRepo secondary.EmailOutboxRepository
}

// NewDebugService creates a new DebugService with injected dependencies.
func NewDebugService(outboxRepo secondary.EmailOutboxRepository) *DebugServiceImpl {
	return &DebugServiceImpl{outboxRepo: outboxRepo}
}

// ExportEmails writes outbox rows to w as a JSON array or CSV and returns the row count.
// Format defaults to JSON.
func (s *DebugServiceImpl) ExportEmails(ctx context.Context, w io.Writer, req primary.ExportRequest) (int, error) {
	format := strings.ToLower(req.Format)
	if format == "" {
		format = primary.ExportJSON
	}
	if format != primary.ExportJSON && format != primary.ExportCSV {
		return 0, dberr.Validation("unsupported export format %q", req.Format)
	}

	records, err := s.outboxRepo.List(ctx, secondary.OutboxFilters{
		Status:           req.Filters.Status,
		NotificationType: req.Filters.NotificationType,
		EntityID:         req.Filters.EntityID,
		Limit:            req.Filters.Limit,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list outbox: %w", err)
	}

	if format == primary.ExportCSV {
		return len(records), writeOutboxCSV(w, records)
	}

	entries := make([]*primary.OutboxEntry, len(records))
	for i, r := range records {
		entries[i] = recordToOutboxEntry(r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return 0, fmt.Errorf("failed to encode export: %w", err)
	}
	return len(records), nil
}

// writeOutboxCSV writes one row per outbox entry; recipients are joined with ';'.
func writeOutboxCSV(w io.Writer, records []*secondary.OutboxRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	for _, r := range records {
		if err := cw.Write([]string{
			r.ID,
			r.NotificationType,
			r.EntityID,
			strings.Join(r.Recipients, ";"),
			r.Subject,
			r.Status,
			strconv.Itoa(r.Attempts),
			r.LastError,
			r.CreatedAt,
			r.SentAt,
		}); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Ensure DebugServiceImpl implements the interface
var _ primary.DebugService = (*DebugServiceImpl)(nil)
