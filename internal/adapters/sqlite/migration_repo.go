package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

// MigrationRepository implements secondary.MigrationRepository with SQLite.
type MigrationRepository struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewMigrationRepository creates a new SQLite migration repository.
// logWriter is optional - if nil, no audit logging is performed.
func NewMigrationRepository(db *sql.DB, logWriter secondary.LogWriter) *MigrationRepository {
	return &MigrationRepository{db: db, logWriter: logWriter}
}

// Create persists a new migration.
func (r *MigrationRepository) Create(ctx context.Context, migration *secondary.MigrationRecord) error {
	migrationType := migration.Type
	if migrationType == "" {
		migrationType = "EXTERNAL"
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO migrations (id, name, description, type, status_id, start_date, end_date, created_by, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		migration.ID, migration.Name, nullString(migration.Description), migrationType, migration.StatusID,
		nullString(migration.StartDate), nullString(migration.EndDate),
		nullString(migration.CreatedBy), nullString(migration.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to create migration: %w", dberr.Classify(err, "migration", dberr.OpCreate))
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogCreate(ctx, "migration", migration.ID)
	}
	return nil
}

const migrationSelect = `SELECT m.id, m.name, m.description, m.type, m.status_id, ` + statusColumns + `,
	m.start_date, m.end_date, m.deleted_at, m.created_by, m.created_at, m.updated_by, m.updated_at
	FROM migrations m
	LEFT JOIN statuses st ON st.id = m.status_id`

func scanMigration(scan func(...any) error) (*secondary.MigrationRecord, error) {
	var (
		desc, createdBy, updatedBy sql.NullString
		start, end, deleted        sql.NullTime
		createdAt, updatedAt       sql.NullTime
		status                     nullStatus
	)
	record := &secondary.MigrationRecord{}
	dest := []any{&record.ID, &record.Name, &desc, &record.Type, &record.StatusID}
	dest = append(dest, status.dest()...)
	dest = append(dest, &start, &end, &deleted, &createdBy, &createdAt, &updatedBy, &updatedAt)
	if err := scan(dest...); err != nil {
		return nil, err
	}

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

// GetByID retrieves a migration by its ID.
func (r *MigrationRepository) GetByID(ctx context.Context, id string) (*secondary.MigrationRecord, error) {
	record, err := scanMigration(r.db.QueryRowContext(ctx, migrationSelect+" WHERE m.id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("migration", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get migration: %w", err)
	}
	return record, nil
}

// List retrieves migrations matching the given filters.
func (r *MigrationRepository) List(ctx context.Context, filters secondary.MigrationFilters) ([]*secondary.MigrationRecord, error) {
	query := migrationSelect + " WHERE 1=1"
	args := []any{}

	if !filters.IncludeDeleted {
		query += " AND m.deleted_at IS NULL"
	}
	if filters.StatusName != "" {
		query += " AND st.name = ?"
		args = append(args, filters.StatusName)
	}
	query += " ORDER BY m.name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	defer rows.Close()

	var migrations []*secondary.MigrationRecord
	for rows.Next() {
		record, err := scanMigration(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		migrations = append(migrations, record)
	}
	return migrations, rows.Err()
}

// Update updates name, description, type and dates. Empty fields are left unchanged.
func (r *MigrationRepository) Update(ctx context.Context, migration *secondary.MigrationRecord) error {
	query := "UPDATE migrations SET updated_at = CURRENT_TIMESTAMP"
	args := []any{}

	if migration.Name != "" {
		query += ", name = ?"
		args = append(args, migration.Name)
	}
	if migration.Description != "" {
		query += ", description = ?"
		args = append(args, migration.Description)
	}
	if migration.Type != "" {
		query += ", type = ?"
		args = append(args, migration.Type)
	}
	if migration.StartDate != "" {
		query += ", start_date = ?"
		args = append(args, migration.StartDate)
	}
	if migration.EndDate != "" {
		query += ", end_date = ?"
		args = append(args, migration.EndDate)
	}
	if migration.UpdatedBy != "" {
		query += ", updated_by = ?"
		args = append(args, migration.UpdatedBy)
	}

	query += " WHERE id = ?"
	args = append(args, migration.ID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update migration: %w", dberr.Classify(err, "migration", dberr.OpUpdate))
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dberr.NotFound("migration", migration.ID)
	}

	if r.logWriter != nil && migration.Name != "" {
		_ = r.logWriter.LogUpdate(ctx, "migration", migration.ID, "name", "", migration.Name)
	}
	return nil
}

var _ secondary.MigrationRepository = (*MigrationRepository)(nil)
