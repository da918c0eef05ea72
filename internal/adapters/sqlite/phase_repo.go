package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

// PhaseRepository implements secondary.PhaseRepository with SQLite.
type PhaseRepository struct {
	db *sql.DB
}

// NewPhaseRepository creates a new SQLite phase repository.
func NewPhaseRepository(db *sql.DB) *PhaseRepository {
	return &PhaseRepository{db: db}
}

// CreateMaster persists a new phase template.
func (r *PhaseRepository) CreateMaster(ctx context.Context, phase *secondary.PhaseMasterRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO phases_master (id, sequence_master_id, phase_order, name, description, predecessor_id, created_by, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		phase.ID, phase.SequenceMasterID, phase.Order, phase.Name, nullString(phase.Description),
		nullString(phase.PredecessorID), nullString(phase.CreatedBy), nullString(phase.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to create phase: %w", dberr.Classify(err, "phase master", dberr.OpCreate))
	}
	return nil
}

const phaseMasterSelect = `SELECT id, sequence_master_id, phase_order, name, description, predecessor_id,
	deleted_at, created_by, created_at FROM phases_master`

func scanPhaseMaster(scan func(...any) error) (*secondary.PhaseMasterRecord, error) {
	var (
		desc, predecessor, createdBy sql.NullString
		deleted, createdAt           sql.NullTime
	)
	record := &secondary.PhaseMasterRecord{}
	if err := scan(&record.ID, &record.SequenceMasterID, &record.Order, &record.Name, &desc, &predecessor,
		&deleted, &createdBy, &createdAt); err != nil {
		return nil, err
	}
	record.Description = desc.String
	record.PredecessorID = predecessor.String
	record.DeletedAt = formatTime(deleted)
	record.CreatedBy = createdBy.String
	record.CreatedAt = formatTime(createdAt)
	return record, nil
}

// GetMaster retrieves a phase template by its ID.
func (r *PhaseRepository) GetMaster(ctx context.Context, id string) (*secondary.PhaseMasterRecord, error) {
	record, err := scanPhaseMaster(r.db.QueryRowContext(ctx, phaseMasterSelect+" WHERE id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("phase master", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phase: %w", err)
	}
	return record, nil
}

// ListMasters retrieves the live phase templates of a sequence template in order.
func (r *PhaseRepository) ListMasters(ctx context.Context, sequenceMasterID string) ([]*secondary.PhaseMasterRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		phaseMasterSelect+" WHERE sequence_master_id = ? AND deleted_at IS NULL ORDER BY phase_order", sequenceMasterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}
	defer rows.Close()

	var phases []*secondary.PhaseMasterRecord
	for rows.Next() {
		record, err := scanPhaseMaster(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan phase: %w", err)
		}
		phases = append(phases, record)
	}
	return phases, rows.Err()
}

// NextMasterOrder returns the first free phase_order of a sequence template.
func (r *PhaseRepository) NextMasterOrder(ctx context.Context, sequenceMasterID string) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(phase_order), 0) + 1 FROM phases_master WHERE sequence_master_id = ?", sequenceMasterID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next phase order: %w", err)
	}
	return next, nil
}

const phaseInstanceSelect = `SELECT pi.id, pi.phase_master_id, pi.sequence_instance_id, pi.name, pi.phase_order, pi.status_id, ` + statusColumns + `,
	pi.deleted_at, pi.created_at, pi.updated_at
	FROM phases_instance pi
	LEFT JOIN statuses st ON st.id = pi.status_id`

func scanPhaseInstance(scan func(...any) error) (*secondary.PhaseInstanceRecord, error) {
	var (
		deleted, createdAt, updatedAt sql.NullTime
		status                        nullStatus
	)
	record := &secondary.PhaseInstanceRecord{}
	dest := []any{&record.ID, &record.PhaseMasterID, &record.SequenceInstanceID, &record.Name, &record.Order, &record.StatusID}
	dest = append(dest, status.dest()...)
	dest = append(dest, &deleted, &createdAt, &updatedAt)
	if err := scan(dest...); err != nil {
		return nil, err
	}
	record.Status = status.record()
	record.DeletedAt = formatTime(deleted)
	record.CreatedAt = formatTime(createdAt)
	record.UpdatedAt = formatTime(updatedAt)
	return record, nil
}

// GetInstance retrieves a phase instance by its ID.
func (r *PhaseRepository) GetInstance(ctx context.Context, id string) (*secondary.PhaseInstanceRecord, error) {
	record, err := scanPhaseInstance(r.db.QueryRowContext(ctx, phaseInstanceSelect+" WHERE pi.id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("phase instance", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phase instance: %w", err)
	}
	return record, nil
}

// ListInstances retrieves the phase instances of a sequence instance in order.
func (r *PhaseRepository) ListInstances(ctx context.Context, sequenceInstanceID string, includeDeleted bool) ([]*secondary.PhaseInstanceRecord, error) {
	query := phaseInstanceSelect + " WHERE pi.sequence_instance_id = ?"
	if !includeDeleted {
		query += " AND pi.deleted_at IS NULL"
	}
	query += " ORDER BY pi.phase_order"

	rows, err := r.db.QueryContext(ctx, query, sequenceInstanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list phase instances: %w", err)
	}
	defer rows.Close()

	var phases []*secondary.PhaseInstanceRecord
	for rows.Next() {
		record, err := scanPhaseInstance(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan phase instance: %w", err)
		}
		phases = append(phases, record)
	}
	return phases, rows.Err()
}

var _ secondary.PhaseRepository = (*PhaseRepository)(nil)
