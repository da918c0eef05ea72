package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

// EmailOutboxRepository implements secondary.EmailOutboxRepository with SQLite.
type EmailOutboxRepository struct {
	db *sql.DB
}

// NewEmailOutboxRepository creates a new SQLite outbox repository.
func NewEmailOutboxRepository(db *sql.DB) *EmailOutboxRepository {
	return &EmailOutboxRepository{db: db}
}

// Recipients are stored comma separated.
const recipientSeparator = ","

// Create persists a new outbox entry in pending state.
func (r *EmailOutboxRepository) Create(ctx context.Context, entry *secondary.OutboxRecord) error {
	status := entry.Status
	if status == "" {
		status = secondary.OutboxPending
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO email_outbox (id, notification_type, entity_type, entity_id, recipients, subject, body_html, variables, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.NotificationType, entry.EntityType, entry.EntityID,
		strings.Join(entry.Recipients, recipientSeparator), entry.Subject, entry.BodyHTML,
		nullString(entry.Variables), status,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue e-mail: %w", dberr.Classify(err, "email outbox", dberr.OpCreate))
	}
	return nil
}

const outboxSelect = `SELECT id, notification_type, entity_type, entity_id, recipients, subject, body_html, variables,
	status, attempts, last_error, created_at, sent_at FROM email_outbox`

func scanOutbox(scan func(...any) error) (*secondary.OutboxRecord, error) {
	var (
		recipients         string
		variables, lastErr sql.NullString
		createdAt, sentAt  sql.NullTime
	)
	record := &secondary.OutboxRecord{}
	if err := scan(&record.ID, &record.NotificationType, &record.EntityType, &record.EntityID, &recipients,
		&record.Subject, &record.BodyHTML, &variables, &record.Status, &record.Attempts, &lastErr,
		&createdAt, &sentAt); err != nil {
		return nil, err
	}
	if recipients != "" {
		record.Recipients = strings.Split(recipients, recipientSeparator)
	}
	record.Variables = variables.String
	record.LastError = lastErr.String
	record.CreatedAt = formatTime(createdAt)
	record.SentAt = formatTime(sentAt)
	return record, nil
}

func (r *EmailOutboxRepository) query(ctx context.Context, query string, args ...any) ([]*secondary.OutboxRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.OutboxRecord
	for rows.Next() {
		record, err := scanOutbox(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		entries = append(entries, record)
	}
	return entries, rows.Err()
}

// GetByID retrieves an outbox entry by its ID.
func (r *EmailOutboxRepository) GetByID(ctx context.Context, id string) (*secondary.OutboxRecord, error) {
	record, err := scanOutbox(r.db.QueryRowContext(ctx, outboxSelect+" WHERE id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("outbox entry", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox entry: %w", err)
	}
	return record, nil
}

// List retrieves outbox entries matching the given filters, oldest first.
func (r *EmailOutboxRepository) List(ctx context.Context, filters secondary.OutboxFilters) ([]*secondary.OutboxRecord, error) {
	query := outboxSelect + " WHERE 1=1"
	args := []any{}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	if filters.NotificationType != "" {
		query += " AND notification_type = ?"
		args = append(args, filters.NotificationType)
	}
	if filters.EntityID != "" {
		query += " AND entity_id = ?"
		args = append(args, filters.EntityID)
	}
	query += " ORDER BY created_at, id"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}
	return r.query(ctx, query, args...)
}

// ListDeliverable returns pending rows and failed rows with fewer than
// maxAttempts attempts, oldest first.
func (r *EmailOutboxRepository) ListDeliverable(ctx context.Context, maxAttempts, limit int) ([]*secondary.OutboxRecord, error) {
	query := outboxSelect + " WHERE (status = ? OR (status = ? AND attempts < ?)) ORDER BY created_at, id"
	args := []any{secondary.OutboxPending, secondary.OutboxFailed, maxAttempts}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.query(ctx, query, args...)
}

// MarkSent records a successful delivery.
func (r *EmailOutboxRepository) MarkSent(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE email_outbox SET status = ?, attempts = attempts + 1, last_error = NULL, sent_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		secondary.OutboxSent, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark e-mail sent: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dberr.NotFound("outbox entry", id)
	}
	return nil
}

// MarkFailed records a failed delivery attempt.
func (r *EmailOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE email_outbox SET status = ?, attempts = attempts + 1, last_error = ? WHERE id = ?",
		secondary.OutboxFailed, reason, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark e-mail failed: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dberr.NotFound("outbox entry", id)
	}
	return nil
}

var _ secondary.EmailOutboxRepository = (*EmailOutboxRepository)(nil)
