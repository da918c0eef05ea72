package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

// InstructionRepository implements secondary.InstructionRepository with SQLite.
type InstructionRepository struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewInstructionRepository creates a new SQLite instruction repository.
func NewInstructionRepository(db *sql.DB, logWriter secondary.LogWriter) *InstructionRepository {
	return &InstructionRepository{db: db, logWriter: logWriter}
}

// CreateMaster persists a new instruction template.
func (r *InstructionRepository) CreateMaster(ctx context.Context, instruction *secondary.InstructionMasterRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO instructions_master (id, step_master_id, team_id, instruction_order, body, duration_minutes, created_by, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		instruction.ID, instruction.StepMasterID, nullString(instruction.TeamID), instruction.Order, instruction.Body,
		instruction.DurationMinutes, nullString(instruction.CreatedBy), nullString(instruction.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to create instruction: %w", dberr.Classify(err, "instruction master", dberr.OpCreate))
	}
	return nil
}

// ListMasters retrieves the live instruction templates of a step template in order.
func (r *InstructionRepository) ListMasters(ctx context.Context, stepMasterID string) ([]*secondary.InstructionMasterRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, step_master_id, team_id, instruction_order, body, duration_minutes, deleted_at, created_by, created_at
		FROM instructions_master WHERE step_master_id = ? AND deleted_at IS NULL ORDER BY instruction_order`,
		stepMasterID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructions: %w", err)
	}
	defer rows.Close()

	var instructions []*secondary.InstructionMasterRecord
	for rows.Next() {
		var (
			teamID, createdBy  sql.NullString
			duration           sql.NullInt64
			deleted, createdAt sql.NullTime
		)
		record := &secondary.InstructionMasterRecord{}
		if err := rows.Scan(&record.ID, &record.StepMasterID, &teamID, &record.Order, &record.Body, &duration,
			&deleted, &createdBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan instruction: %w", err)
		}
		record.TeamID = teamID.String
		record.DurationMinutes = int(duration.Int64)
		record.DeletedAt = formatTime(deleted)
		record.CreatedBy = createdBy.String
		record.CreatedAt = formatTime(createdAt)
		instructions = append(instructions, record)
	}
	return instructions, rows.Err()
}

// Body and order come from the master; an orphaned instance reports them empty.
const instructionInstanceSelect = `SELECT ii.id, ii.instruction_master_id, ii.step_instance_id, im.instruction_order, im.body,
	ii.is_completed, ii.completed_at, ii.completed_by, ii.deleted_at, ii.created_at, ii.updated_at
	FROM instructions_instance ii
	LEFT JOIN instructions_master im ON im.id = ii.instruction_master_id`

func scanInstructionInstance(scan func(...any) error) (*secondary.InstructionInstanceRecord, error) {
	var (
		order                                    sql.NullInt64
		body, completedBy                        sql.NullString
		completed, deleted, createdAt, updatedAt sql.NullTime
	)
	record := &secondary.InstructionInstanceRecord{}
	if err := scan(&record.ID, &record.InstructionMasterID, &record.StepInstanceID, &order, &body,
		&record.IsCompleted, &completed, &completedBy, &deleted, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	record.Order = int(order.Int64)
	record.Body = body.String
	record.CompletedAt = formatTime(completed)
	record.CompletedBy = completedBy.String
	record.DeletedAt = formatTime(deleted)
	record.CreatedAt = formatTime(createdAt)
	record.UpdatedAt = formatTime(updatedAt)
	return record, nil
}

// NextMasterOrder returns the first free instruction_order of a step template.
func (r *InstructionRepository) NextMasterOrder(ctx context.Context, stepMasterID string) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(instruction_order), 0) + 1 FROM instructions_master WHERE step_master_id = ?", stepMasterID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next instruction order: %w", err)
	}
	return next, nil
}

// GetInstance retrieves an instruction instance by its ID.
func (r *InstructionRepository) GetInstance(ctx context.Context, id string) (*secondary.InstructionInstanceRecord, error) {
	record, err := scanInstructionInstance(r.db.QueryRowContext(ctx, instructionInstanceSelect+" WHERE ii.id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("instruction instance", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instruction instance: %w", err)
	}
	return record, nil
}

// ListInstances retrieves the live instruction instances of a step instance in order.
func (r *InstructionRepository) ListInstances(ctx context.Context, stepInstanceID string) ([]*secondary.InstructionInstanceRecord, error) {
	return listInstructionInstances(ctx, r.db, stepInstanceID)
}

func listInstructionInstances(ctx context.Context, db *sql.DB, stepInstanceID string) ([]*secondary.InstructionInstanceRecord, error) {
	rows, err := db.QueryContext(ctx,
		instructionInstanceSelect+" WHERE ii.step_instance_id = ? AND ii.deleted_at IS NULL ORDER BY im.instruction_order, ii.id",
		stepInstanceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list instruction instances: %w", err)
	}
	defer rows.Close()

	var instructions []*secondary.InstructionInstanceRecord
	for rows.Next() {
		record, err := scanInstructionInstance(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instruction instance: %w", err)
		}
		instructions = append(instructions, record)
	}
	return instructions, rows.Err()
}

// SetCompleted marks an instruction instance complete or clears completion.
func (r *InstructionRepository) SetCompleted(ctx context.Context, id string, completed bool, by string) error {
	var (
		result sql.Result
		err    error
	)
	if completed {
		result, err = r.db.ExecContext(ctx,
			`UPDATE instructions_instance SET is_completed = 1, completed_at = CURRENT_TIMESTAMP, completed_by = ?,
			updated_by = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			nullString(by), nullString(by), id,
		)
	} else {
		result, err = r.db.ExecContext(ctx,
			`UPDATE instructions_instance SET is_completed = 0, completed_at = NULL, completed_by = NULL,
			updated_by = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			nullString(by), id,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to update instruction: %w", dberr.Classify(err, "instruction instance", dberr.OpUpdate))
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dberr.NotFound("instruction instance", id)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogUpdate(ctx, "instruction", id, "is_completed", fmt.Sprint(!completed), fmt.Sprint(completed))
	}
	return nil
}

var _ secondary.InstructionRepository = (*InstructionRepository)(nil)
