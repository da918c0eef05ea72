package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

// StepRepository implements secondary.StepRepository with SQLite.
type StepRepository struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewStepRepository creates a new SQLite step repository.
// logWriter is optional - if nil, no audit logging is performed.
func NewStepRepository(db *sql.DB, logWriter secondary.LogWriter) *StepRepository {
	return &StepRepository{db: db, logWriter: logWriter}
}

// CreateMaster persists a new step template.
func (r *StepRepository) CreateMaster(ctx context.Context, step *secondary.StepMasterRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO steps_master (id, phase_master_id, team_id, type_code, step_number, name, description, duration_minutes, created_by, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		step.ID, step.PhaseMasterID, nullString(step.TeamID), step.TypeCode, step.Number, step.Name,
		nullString(step.Description), step.DurationMinutes, nullString(step.CreatedBy), nullString(step.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to create step: %w", dberr.Classify(err, "step master", dberr.OpCreate))
	}
	return nil
}

const stepMasterSelect = `SELECT id, phase_master_id, team_id, type_code, step_number, name, description,
	duration_minutes, deleted_at, created_by, created_at FROM steps_master`

func scanStepMaster(scan func(...any) error) (*secondary.StepMasterRecord, error) {
	var (
		teamID, desc, createdBy sql.NullString
		duration                sql.NullInt64
		deleted, createdAt      sql.NullTime
	)
	record := &secondary.StepMasterRecord{}
	if err := scan(&record.ID, &record.PhaseMasterID, &teamID, &record.TypeCode, &record.Number, &record.Name, &desc,
		&duration, &deleted, &createdBy, &createdAt); err != nil {
		return nil, err
	}
	record.TeamID = teamID.String
	record.Description = desc.String
	record.DurationMinutes = int(duration.Int64)
	record.DeletedAt = formatTime(deleted)
	record.CreatedBy = createdBy.String
	record.CreatedAt = formatTime(createdAt)
	return record, nil
}

// GetMaster retrieves a step template by its ID.
func (r *StepRepository) GetMaster(ctx context.Context, id string) (*secondary.StepMasterRecord, error) {
	record, err := scanStepMaster(r.db.QueryRowContext(ctx, stepMasterSelect+" WHERE id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("step master", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get step: %w", err)
	}
	return record, nil
}

// ListMasters retrieves the live step templates of a phase template.
func (r *StepRepository) ListMasters(ctx context.Context, phaseMasterID string) ([]*secondary.StepMasterRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		stepMasterSelect+" WHERE phase_master_id = ? AND deleted_at IS NULL ORDER BY type_code, step_number", phaseMasterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	var steps []*secondary.StepMasterRecord
	for rows.Next() {
		record, err := scanStepMaster(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, record)
	}
	return steps, rows.Err()
}

// stepInstanceSelect walks the full ancestor chain with LEFT JOINs so a
// broken link yields NULL ancestors instead of dropping the row.
// NextMasterNumber returns the first free step_number for a type code in a
// phase template.
func (r *StepRepository) NextMasterNumber(ctx context.Context, phaseMasterID, typeCode string) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(step_number), 0) + 1 FROM steps_master WHERE phase_master_id = ? AND type_code = ?",
		phaseMasterID, typeCode,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next step number: %w", err)
	}
	return next, nil
}

const stepInstanceSelect = `SELECT si.id, si.step_master_id, si.phase_instance_id, si.name,
	sm.type_code, sm.step_number, si.status_id, ` + statusColumns + `,
	t.id, t.name, t.email,
	si.started_at, si.completed_at, si.deleted_at, si.created_by, si.created_at, si.updated_by, si.updated_at,
	phi.name, sqi.id, sqi.name, pli.id, pli.name, itr.id, itr.name, mig.id, mig.name
	FROM steps_instance si
	LEFT JOIN steps_master sm ON sm.id = si.step_master_id
	LEFT JOIN statuses st ON st.id = si.status_id
	LEFT JOIN teams t ON t.id = COALESCE(si.team_id, sm.team_id)
	LEFT JOIN phases_instance phi ON phi.id = si.phase_instance_id
	LEFT JOIN sequences_instance sqi ON sqi.id = phi.sequence_instance_id
	LEFT JOIN plans_instance pli ON pli.id = sqi.plan_instance_id
	LEFT JOIN iterations itr ON itr.id = pli.iteration_id
	LEFT JOIN migrations mig ON mig.id = itr.migration_id`

func scanStepInstance(scan func(...any) error) (*secondary.StepInstanceRecord, error) {
	var (
		typeCode, teamID, teamName, teamEmail sql.NullString
		stepNumber                            sql.NullInt64
		createdBy, updatedBy                  sql.NullString
		started, completed, deleted           sql.NullTime
		createdAt, updatedAt                  sql.NullTime
		phaseName, seqID, seqName             sql.NullString
		planID, planName, iterID, iterName    sql.NullString
		migID, migName                        sql.NullString
		status                                nullStatus
	)
	record := &secondary.StepInstanceRecord{}
	dest := []any{&record.ID, &record.StepMasterID, &record.PhaseInstanceID, &record.Name,
		&typeCode, &stepNumber, &record.StatusID}
	dest = append(dest, status.dest()...)
	dest = append(dest, &teamID, &teamName, &teamEmail,
		&started, &completed, &deleted, &createdBy, &createdAt, &updatedBy, &updatedAt,
		&phaseName, &seqID, &seqName, &planID, &planName, &iterID, &iterName, &migID, &migName)
	if err := scan(dest...); err != nil {
		return nil, err
	}

	record.TypeCode = typeCode.String
	record.Number = int(stepNumber.Int64)
	record.Status = status.record()
	record.TeamID = teamID.String
	record.TeamName = teamName.String
	record.TeamEmail = teamEmail.String
	record.StartedAt = formatTime(started)
	record.CompletedAt = formatTime(completed)
	record.DeletedAt = formatTime(deleted)
	record.CreatedBy = createdBy.String
	record.CreatedAt = formatTime(createdAt)
	record.UpdatedBy = updatedBy.String
	record.UpdatedAt = formatTime(updatedAt)
	record.PhaseName = phaseName.String
	record.SequenceInstanceID = seqID.String
	record.SequenceName = seqName.String
	record.PlanInstanceID = planID.String
	record.PlanName = planName.String
	record.IterationID = iterID.String
	record.IterationName = iterName.String
	record.MigrationID = migID.String
	record.MigrationName = migName.String
	return record, nil
}

// GetInstance retrieves a step instance with ancestor names.
func (r *StepRepository) GetInstance(ctx context.Context, id string) (*secondary.StepInstanceRecord, error) {
	record, err := scanStepInstance(r.db.QueryRowContext(ctx, stepInstanceSelect+" WHERE si.id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("step instance", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get step instance: %w", err)
	}
	return record, nil
}

// ListInstances retrieves step instances under the given ancestors.
// Orphaned steps are returned with empty ancestor fields unless an
// ancestor filter excludes them.
func (r *StepRepository) ListInstances(ctx context.Context, filters secondary.StepInstanceFilters) ([]*secondary.StepInstanceRecord, error) {
	query := stepInstanceSelect + " WHERE 1=1"
	args := []any{}

	if !filters.IncludeDeleted {
		query += " AND si.deleted_at IS NULL"
	}
	if filters.MigrationID != "" {
		query += " AND mig.id = ?"
		args = append(args, filters.MigrationID)
	}
	if filters.IterationID != "" {
		query += " AND itr.id = ?"
		args = append(args, filters.IterationID)
	}
	if filters.PlanInstanceID != "" {
		query += " AND pli.id = ?"
		args = append(args, filters.PlanInstanceID)
	}
	if filters.SequenceInstanceID != "" {
		query += " AND sqi.id = ?"
		args = append(args, filters.SequenceInstanceID)
	}
	if filters.PhaseInstanceID != "" {
		query += " AND si.phase_instance_id = ?"
		args = append(args, filters.PhaseInstanceID)
	}
	if filters.TeamID != "" {
		query += " AND t.id = ?"
		args = append(args, filters.TeamID)
	}
	if filters.StatusName != "" {
		query += " AND st.name = ?"
		args = append(args, filters.StatusName)
	}

	query += " ORDER BY sqi.seq_order, phi.phase_order, sm.type_code, sm.step_number, si.id"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list step instances: %w", err)
	}
	defer rows.Close()

	var steps []*secondary.StepInstanceRecord
	for rows.Next() {
		record, err := scanStepInstance(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step instance: %w", err)
		}
		steps = append(steps, record)
	}
	return steps, rows.Err()
}

// GetDetails retrieves a step instance with its instructions and the
// commentLimit most recent comments.
func (r *StepRepository) GetDetails(ctx context.Context, id string, commentLimit int) (*secondary.StepDetailsRecord, error) {
	step, err := r.GetInstance(ctx, id)
	if err != nil {
		return nil, err
	}

	instructions, err := listInstructionInstances(ctx, r.db, id)
	if err != nil {
		return nil, err
	}

	comments, err := listCommentsByStep(ctx, r.db, id, commentLimit)
	if err != nil {
		return nil, err
	}

	return &secondary.StepDetailsRecord{
		Step:           step,
		Instructions:   instructions,
		RecentComments: comments,
	}, nil
}

// AssignTeam overrides the owning team of a step instance.
func (r *StepRepository) AssignTeam(ctx context.Context, id, teamID, actor string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE steps_instance SET team_id = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		nullString(teamID), nullString(actor), id,
	)
	if err != nil {
		return fmt.Errorf("failed to assign team: %w", dberr.Classify(err, "step instance", dberr.OpUpdate))
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dberr.NotFound("step instance", id)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogUpdate(ctx, "step", id, "team_id", "", teamID)
	}
	return nil
}

var _ secondary.StepRepository = (*StepRepository)(nil)
