package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/umig/internal/ports/secondary"
)

// AuditLogRepository implements secondary.AuditLogRepository with SQLite.
type AuditLogRepository struct {
	db *sql.DB
}

// NewAuditLogRepository creates a new SQLite audit log repository.
func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create persists an audit entry and sets its ID.
func (r *AuditLogRepository) Create(ctx context.Context, entry *secondary.AuditLogRecord) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO audit_log (actor, entity_type, entity_id, action, details) VALUES (?, ?, ?, ?, ?)",
		entry.Actor, entry.EntityType, entry.EntityID, entry.Action, nullString(entry.Details),
	)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	entry.ID, _ = result.LastInsertId()
	return nil
}

// List retrieves audit entries newest first.
func (r *AuditLogRepository) List(ctx context.Context, filters secondary.AuditLogFilters) ([]*secondary.AuditLogRecord, error) {
	query := "SELECT id, actor, entity_type, entity_id, action, details, created_at FROM audit_log WHERE 1=1"
	args := []any{}

	if filters.EntityType != "" {
		query += " AND entity_type = ?"
		args = append(args, filters.EntityType)
	}
	if filters.EntityID != "" {
		query += " AND entity_id = ?"
		args = append(args, filters.EntityID)
	}
	if filters.Actor != "" {
		query += " AND actor = ?"
		args = append(args, filters.Actor)
	}
	query += " ORDER BY id DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.AuditLogRecord
	for rows.Next() {
		var (
			details   sql.NullString
			createdAt sql.NullTime
		)
		record := &secondary.AuditLogRecord{}
		if err := rows.Scan(&record.ID, &record.Actor, &record.EntityType, &record.EntityID, &record.Action,
			&details, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		record.Details = details.String
		record.CreatedAt = formatTime(createdAt)
		entries = append(entries, record)
	}
	return entries, rows.Err()
}

var _ secondary.AuditLogRepository = (*AuditLogRepository)(nil)
