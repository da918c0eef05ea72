package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

// StatusRepository implements secondary.StatusRepository with SQLite.
type StatusRepository struct {
	db *sql.DB
}

// NewStatusRepository creates a new SQLite status repository.
func NewStatusRepository(db *sql.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// GetByID retrieves a status by its ID.
func (r *StatusRepository) GetByID(ctx context.Context, id int) (*secondary.StatusRecord, error) {
	record := &secondary.StatusRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, color, entity_type FROM statuses WHERE id = ?", id,
	).Scan(&record.ID, &record.Name, &record.Color, &record.EntityType)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("status", fmt.Sprint(id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return record, nil
}

// GetByName retrieves the status with the given name for an entity type.
func (r *StatusRepository) GetByName(ctx context.Context, name, entityType string) (*secondary.StatusRecord, error) {
	record := &secondary.StatusRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, color, entity_type FROM statuses WHERE name = ? AND entity_type = ?", name, entityType,
	).Scan(&record.ID, &record.Name, &record.Color, &record.EntityType)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound(entityType+" status", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return record, nil
}

// List retrieves statuses, optionally restricted to one entity type.
func (r *StatusRepository) List(ctx context.Context, entityType string) ([]*secondary.StatusRecord, error) {
	query := "SELECT id, name, color, entity_type FROM statuses WHERE 1=1"
	args := []any{}
	if entityType != "" {
		query += " AND entity_type = ?"
		args = append(args, entityType)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	defer rows.Close()

	var statuses []*secondary.StatusRecord
	for rows.Next() {
		record := &secondary.StatusRecord{}
		if err := rows.Scan(&record.ID, &record.Name, &record.Color, &record.EntityType); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		statuses = append(statuses, record)
	}
	return statuses, rows.Err()
}

var _ secondary.StatusRepository = (*StatusRepository)(nil)
