package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

// IterationRepository implements secondary.IterationRepository with SQLite.
type IterationRepository struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewIterationRepository creates a new SQLite iteration repository.
func NewIterationRepository(db *sql.DB, logWriter secondary.LogWriter) *IterationRepository {
	return &IterationRepository{db: db, logWriter: logWriter}
}

// Create persists a new iteration.
func (r *IterationRepository) Create(ctx context.Context, iteration *secondary.IterationRecord) error {
	iterationType := iteration.Type
	if iterationType == "" {
		iterationType = "RUN"
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO iterations (id, migration_id, name, description, type, status_id, start_date, end_date, created_by, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		iteration.ID, iteration.MigrationID, iteration.Name, nullString(iteration.Description), iterationType,
		iteration.StatusID, nullString(iteration.StartDate), nullString(iteration.EndDate),
		nullString(iteration.CreatedBy), nullString(iteration.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to create iteration: %w", dberr.Classify(err, "iteration", dberr.OpCreate))
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogCreate(ctx, "iteration", iteration.ID)
	}
	return nil
}

// Orphans keep their migration_id but report an empty MigrationName.
const iterationSelect = `SELECT i.id, i.migration_id, m.name, i.name, i.description, i.type, i.status_id, ` + statusColumns + `,
	i.start_date, i.end_date, i.deleted_at, i.created_by, i.created_at, i.updated_by, i.updated_at
	FROM iterations i
	LEFT JOIN migrations m ON m.id = i.migration_id
	LEFT JOIN statuses st ON st.id = i.status_id`

func scanIteration(scan func(...any) error) (*secondary.IterationRecord, error) {
	var (
		migrationName, desc, createdBy, updatedBy sql.NullString
		start, end, deleted, createdAt, updatedAt sql.NullTime
		status                                    nullStatus
	)
	record := &secondary.IterationRecord{}
	dest := []any{&record.ID, &record.MigrationID, &migrationName, &record.Name, &desc, &record.Type, &record.StatusID}
	dest = append(dest, status.dest()...)
	dest = append(dest, &start, &end, &deleted, &createdBy, &createdAt, &updatedBy, &updatedAt)
	if err := scan(dest...); err != nil {
		return nil, err
	}

	record.MigrationName = migrationName.String
	record.Description = desc.String
	record.Status = status.record()
	record.StartDate = formatTime(start)
	record.EndDate = formatTime(end)
	record.DeletedAt = formatTime(deleted)
	record.CreatedBy = createdBy.String
	record.CreatedAt = formatTime(createdAt)
	record.UpdatedBy = updatedBy.String
	record.UpdatedAt = formatTime(updatedAt)
	return record, nil
}

// GetByID retrieves an iteration by its ID.
func (r *IterationRepository) GetByID(ctx context.Context, id string) (*secondary.IterationRecord, error) {
	record, err := scanIteration(r.db.QueryRowContext(ctx, iterationSelect+" WHERE i.id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("iteration", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get iteration: %w", err)
	}
	return record, nil
}

// List retrieves iterations matching the given filters.
func (r *IterationRepository) List(ctx context.Context, filters secondary.IterationFilters) ([]*secondary.IterationRecord, error) {
	query := iterationSelect + " WHERE 1=1"
	args := []any{}

	if !filters.IncludeDeleted {
		query += " AND i.deleted_at IS NULL"
	}
	if filters.MigrationID != "" {
		query += " AND i.migration_id = ?"
		args = append(args, filters.MigrationID)
	}
	if filters.StatusName != "" {
		query += " AND st.name = ?"
		args = append(args, filters.StatusName)
	}
	query += " ORDER BY i.created_at, i.name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list iterations: %w", err)
	}
	defer rows.Close()

	var iterations []*secondary.IterationRecord
	for rows.Next() {
		record, err := scanIteration(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan iteration: %w", err)
		}
		iterations = append(iterations, record)
	}
	return iterations, rows.Err()
}

// Update updates an iteration. A non-empty MigrationID re-parents the iteration;
// pointing it at a missing migration is a foreign key violation.
func (r *IterationRepository) Update(ctx context.Context, iteration *secondary.IterationRecord) error {
	query := "UPDATE iterations SET updated_at = CURRENT_TIMESTAMP"
	args := []any{}

	if iteration.MigrationID != "" {
		query += ", migration_id = ?"
		args = append(args, iteration.MigrationID)
	}
	if iteration.Name != "" {
		query += ", name = ?"
		args = append(args, iteration.Name)
	}
	if iteration.Description != "" {
		query += ", description = ?"
		args = append(args, iteration.Description)
	}
	if iteration.Type != "" {
		query += ", type = ?"
		args = append(args, iteration.Type)
	}
	if iteration.StartDate != "" {
		query += ", start_date = ?"
		args = append(args, iteration.StartDate)
	}
	if iteration.EndDate != "" {
		query += ", end_date = ?"
		args = append(args, iteration.EndDate)
	}
	if iteration.UpdatedBy != "" {
		query += ", updated_by = ?"
		args = append(args, iteration.UpdatedBy)
	}

	query += " WHERE id = ?"
	args = append(args, iteration.ID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update iteration: %w", dberr.Classify(err, "iteration", dberr.OpUpdate))
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dberr.NotFound("iteration", iteration.ID)
	}

	if r.logWriter != nil && iteration.MigrationID != "" {
		_ = r.logWriter.LogUpdate(ctx, "iteration", iteration.ID, "migration_id", "", iteration.MigrationID)
	}
	return nil
}

var _ secondary.IterationRepository = (*IterationRepository)(nil)
