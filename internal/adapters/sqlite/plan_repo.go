package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

// PlanRepository implements secondary.PlanRepository with SQLite.
type PlanRepository struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewPlanRepository creates a new SQLite plan repository.
// logWriter is optional - if nil, no audit logging is performed.
func NewPlanRepository(db *sql.DB, logWriter secondary.LogWriter) *PlanRepository {
	return &PlanRepository{db: db, logWriter: logWriter}
}

// CreateMaster persists a new plan template.
func (r *PlanRepository) CreateMaster(ctx context.Context, plan *secondary.PlanMasterRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO plans_master (id, team_id, name, description, status_id, created_by, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, nullString(plan.TeamID), plan.Name, nullString(plan.Description), plan.StatusID,
		nullString(plan.CreatedBy), nullString(plan.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", dberr.Classify(err, "plan master", dberr.OpCreate))
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogCreate(ctx, "plan_master", plan.ID)
	}
	return nil
}

const planMasterSelect = `SELECT p.id, p.team_id, p.name, p.description, p.status_id, ` + statusColumns + `,
	p.deleted_at, p.created_by, p.created_at, p.updated_by, p.updated_at
	FROM plans_master p
	LEFT JOIN statuses st ON st.id = p.status_id`

func scanPlanMaster(scan func(...any) error) (*secondary.PlanMasterRecord, error) {
	var (
		teamID, desc, createdBy, updatedBy sql.NullString
		deleted, createdAt, updatedAt      sql.NullTime
		status                             nullStatus
	)
	record := &secondary.PlanMasterRecord{}
	dest := []any{&record.ID, &teamID, &record.Name, &desc, &record.StatusID}
	dest = append(dest, status.dest()...)
	dest = append(dest, &deleted, &createdBy, &createdAt, &updatedBy, &updatedAt)
	if err := scan(dest...); err != nil {
		return nil, err
	}

	record.TeamID = teamID.String
	record.Description = desc.String
	record.Status = status.record()
	record.DeletedAt = formatTime(deleted)
	record.CreatedBy = createdBy.String
	record.CreatedAt = formatTime(createdAt)
	record.UpdatedBy = updatedBy.String
	record.UpdatedAt = formatTime(updatedAt)
	return record, nil
}

// GetMaster retrieves a plan template by its ID.
func (r *PlanRepository) GetMaster(ctx context.Context, id string) (*secondary.PlanMasterRecord, error) {
	record, err := scanPlanMaster(r.db.QueryRowContext(ctx, planMasterSelect+" WHERE p.id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("plan master", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return record, nil
}

// ListMasters retrieves plan templates ordered by name.
func (r *PlanRepository) ListMasters(ctx context.Context, includeDeleted bool) ([]*secondary.PlanMasterRecord, error) {
	query := planMasterSelect + " WHERE 1=1"
	if !includeDeleted {
		query += " AND p.deleted_at IS NULL"
	}
	query += " ORDER BY p.name"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*secondary.PlanMasterRecord
	for rows.Next() {
		record, err := scanPlanMaster(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, record)
	}
	return plans, rows.Err()
}

// UpdateMaster updates a plan template. Empty fields are left unchanged.
func (r *PlanRepository) UpdateMaster(ctx context.Context, plan *secondary.PlanMasterRecord) error {
	query := "UPDATE plans_master SET updated_at = CURRENT_TIMESTAMP"
	args := []any{}

	if plan.Name != "" {
		query += ", name = ?"
		args = append(args, plan.Name)
	}
	if plan.Description != "" {
		query += ", description = ?"
		args = append(args, plan.Description)
	}
	if plan.TeamID != "" {
		query += ", team_id = ?"
		args = append(args, plan.TeamID)
	}
	if plan.UpdatedBy != "" {
		query += ", updated_by = ?"
		args = append(args, plan.UpdatedBy)
	}

	query += " WHERE id = ?"
	args = append(args, plan.ID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", dberr.Classify(err, "plan master", dberr.OpUpdate))
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dberr.NotFound("plan master", plan.ID)
	}
	return nil
}

const planInstanceSelect = `SELECT pi.id, pi.plan_master_id, pi.iteration_id, i.name, pi.name, pi.description, pi.status_id, ` + statusColumns + `,
	pi.deleted_at, pi.created_by, pi.created_at, pi.updated_by, pi.updated_at
	FROM plans_instance pi
	LEFT JOIN iterations i ON i.id = pi.iteration_id
	LEFT JOIN statuses st ON st.id = pi.status_id`

func scanPlanInstance(scan func(...any) error) (*secondary.PlanInstanceRecord, error) {
	var (
		iterationName, desc, createdBy, updatedBy sql.NullString
		deleted, createdAt, updatedAt             sql.NullTime
		status                                    nullStatus
	)
	record := &secondary.PlanInstanceRecord{}
	dest := []any{&record.ID, &record.PlanMasterID, &record.IterationID, &iterationName, &record.Name, &desc, &record.StatusID}
	dest = append(dest, status.dest()...)
	dest = append(dest, &deleted, &createdBy, &createdAt, &updatedBy, &updatedAt)
	if err := scan(dest...); err != nil {
		return nil, err
	}

	record.IterationName = iterationName.String
	record.Description = desc.String
	record.Status = status.record()
	record.DeletedAt = formatTime(deleted)
	record.CreatedBy = createdBy.String
	record.CreatedAt = formatTime(createdAt)
	record.UpdatedBy = updatedBy.String
	record.UpdatedAt = formatTime(updatedAt)
	return record, nil
}

// GetInstance retrieves a plan instance by its ID.
func (r *PlanRepository) GetInstance(ctx context.Context, id string) (*secondary.PlanInstanceRecord, error) {
	record, err := scanPlanInstance(r.db.QueryRowContext(ctx, planInstanceSelect+" WHERE pi.id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("plan instance", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan instance: %w", err)
	}
	return record, nil
}

// ListInstances retrieves plan instances matching the given filters.
func (r *PlanRepository) ListInstances(ctx context.Context, filters secondary.PlanInstanceFilters) ([]*secondary.PlanInstanceRecord, error) {
	query := planInstanceSelect + " WHERE 1=1"
	args := []any{}

	if !filters.IncludeDeleted {
		query += " AND pi.deleted_at IS NULL"
	}
	if filters.MigrationID != "" {
		query += " AND i.migration_id = ?"
		args = append(args, filters.MigrationID)
	}
	if filters.IterationID != "" {
		query += " AND pi.iteration_id = ?"
		args = append(args, filters.IterationID)
	}
	if filters.PlanMasterID != "" {
		query += " AND pi.plan_master_id = ?"
		args = append(args, filters.PlanMasterID)
	}
	if filters.StatusName != "" {
		query += " AND st.name = ?"
		args = append(args, filters.StatusName)
	}
	query += " ORDER BY pi.created_at, pi.name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan instances: %w", err)
	}
	defer rows.Close()

	var plans []*secondary.PlanInstanceRecord
	for rows.Next() {
		record, err := scanPlanInstance(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan instance: %w", err)
		}
		plans = append(plans, record)
	}
	return plans, rows.Err()
}

var _ secondary.PlanRepository = (*PlanRepository)(nil)
