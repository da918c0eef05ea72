package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

// EmailTemplateRepository implements secondary.EmailTemplateRepository with SQLite.
type EmailTemplateRepository struct {
	db *sql.DB
}

// NewEmailTemplateRepository creates a new SQLite e-mail template repository.
func NewEmailTemplateRepository(db *sql.DB) *EmailTemplateRepository {
	return &EmailTemplateRepository{db: db}
}

// Upsert creates or replaces the template for its notification type.
func (r *EmailTemplateRepository) Upsert(ctx context.Context, tmpl *secondary.EmailTemplateRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO email_templates (id, notification_type, name, subject, body_html, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(notification_type) DO UPDATE SET
			name = excluded.name,
			subject = excluded.subject,
			body_html = excluded.body_html,
			is_active = excluded.is_active,
			updated_at = CURRENT_TIMESTAMP`,
		tmpl.ID, tmpl.NotificationType, tmpl.Name, tmpl.Subject, tmpl.BodyHTML, tmpl.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to save e-mail template: %w", dberr.Classify(err, "email template", dberr.OpCreate))
	}
	return nil
}

const emailTemplateSelect = `SELECT id, notification_type, name, subject, body_html, is_active, created_at, updated_at
	FROM email_templates`

func scanEmailTemplate(scan func(...any) error) (*secondary.EmailTemplateRecord, error) {
	var createdAt, updatedAt sql.NullTime
	record := &secondary.EmailTemplateRecord{}
	if err := scan(&record.ID, &record.NotificationType, &record.Name, &record.Subject, &record.BodyHTML,
		&record.IsActive, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	record.CreatedAt = formatTime(createdAt)
	record.UpdatedAt = formatTime(updatedAt)
	return record, nil
}

// GetActive returns the active template for a notification type.
func (r *EmailTemplateRepository) GetActive(ctx context.Context, notificationType string) (*secondary.EmailTemplateRecord, error) {
	record, err := scanEmailTemplate(r.db.QueryRowContext(ctx,
		emailTemplateSelect+" WHERE notification_type = ? AND is_active = 1", notificationType,
	).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("email template", notificationType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get e-mail template: %w", err)
	}
	return record, nil
}

// List retrieves every template ordered by notification type.
func (r *EmailTemplateRepository) List(ctx context.Context) ([]*secondary.EmailTemplateRecord, error) {
	rows, err := r.db.QueryContext(ctx, emailTemplateSelect+" ORDER BY notification_type")
	if err != nil {
		return nil, fmt.Errorf("failed to list e-mail templates: %w", err)
	}
	defer rows.Close()

	var templates []*secondary.EmailTemplateRecord
	for rows.Next() {
		record, err := scanEmailTemplate(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan e-mail template: %w", err)
		}
		templates = append(templates, record)
	}
	return templates, rows.Err()
}

var _ secondary.EmailTemplateRepository = (*EmailTemplateRepository)(nil)
