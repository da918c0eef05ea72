package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

// SequenceRepository implements secondary.SequenceRepository with SQLite.
type SequenceRepository struct {
	db *sql.DB
}

// NewSequenceRepository creates a new SQLite sequence repository.
func NewSequenceRepository(db *sql.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// CreateMaster persists a new sequence template.
func (r *SequenceRepository) CreateMaster(ctx context.Context, seq *secondary.SequenceMasterRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sequences_master (id, plan_master_id, seq_order, name, description, predecessor_id, created_by, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		seq.ID, seq.PlanMasterID, seq.Order, seq.Name, nullString(seq.Description),
		nullString(seq.PredecessorID), nullString(seq.CreatedBy), nullString(seq.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to create sequence: %w", dberr.Classify(err, "sequence master", dberr.OpCreate))
	}
	return nil
}

const sequenceMasterSelect = `SELECT id, plan_master_id, seq_order, name, description, predecessor_id,
	deleted_at, created_by, created_at FROM sequences_master`

func scanSequenceMaster(scan func(...any) error) (*secondary.SequenceMasterRecord, error) {
	var (
		desc, predecessor, createdBy sql.NullString
		deleted, createdAt           sql.NullTime
	)
	record := &secondary.SequenceMasterRecord{}
	if err := scan(&record.ID, &record.PlanMasterID, &record.Order, &record.Name, &desc, &predecessor,
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

// GetMaster retrieves a sequence template by its ID.
func (r *SequenceRepository) GetMaster(ctx context.Context, id string) (*secondary.SequenceMasterRecord, error) {
	record, err := scanSequenceMaster(r.db.QueryRowContext(ctx, sequenceMasterSelect+" WHERE id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("sequence master", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sequence: %w", err)
	}
	return record, nil
}

// ListMasters retrieves the live sequence templates of a plan template in order.
func (r *SequenceRepository) ListMasters(ctx context.Context, planMasterID string) ([]*secondary.SequenceMasterRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		sequenceMasterSelect+" WHERE plan_master_id = ? AND deleted_at IS NULL ORDER BY seq_order", planMasterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sequences: %w", err)
	}
	defer rows.Close()

	var sequences []*secondary.SequenceMasterRecord
	for rows.Next() {
		record, err := scanSequenceMaster(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sequence: %w", err)
		}
		sequences = append(sequences, record)
	}
	return sequences, rows.Err()
}

// NextMasterOrder returns the first free seq_order of a plan template.
// Soft-deleted rows still hold their order under the unique key.
func (r *SequenceRepository) NextMasterOrder(ctx context.Context, planMasterID string) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq_order), 0) + 1 FROM sequences_master WHERE plan_master_id = ?", planMasterID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next sequence order: %w", err)
	}
	return next, nil
}

const sequenceInstanceSelect = `SELECT si.id, si.sequence_master_id, si.plan_instance_id, si.name, si.seq_order, si.status_id, ` + statusColumns + `,
	si.deleted_at, si.created_at, si.updated_at
	FROM sequences_instance si
	LEFT JOIN statuses st ON st.id = si.status_id`

func scanSequenceInstance(scan func(...any) error) (*secondary.SequenceInstanceRecord, error) {
	var (
		deleted, createdAt, updatedAt sql.NullTime
		status                        nullStatus
	)
	record := &secondary.SequenceInstanceRecord{}
	dest := []any{&record.ID, &record.SequenceMasterID, &record.PlanInstanceID, &record.Name, &record.Order, &record.StatusID}
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

// GetInstance retrieves a sequence instance by its ID.
func (r *SequenceRepository) GetInstance(ctx context.Context, id string) (*secondary.SequenceInstanceRecord, error) {
	record, err := scanSequenceInstance(r.db.QueryRowContext(ctx, sequenceInstanceSelect+" WHERE si.id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("sequence instance", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sequence instance: %w", err)
	}
	return record, nil
}

// ListInstances retrieves the sequence instances of a plan instance in order.
func (r *SequenceRepository) ListInstances(ctx context.Context, planInstanceID string, includeDeleted bool) ([]*secondary.SequenceInstanceRecord, error) {
	query := sequenceInstanceSelect + " WHERE si.plan_instance_id = ?"
	if !includeDeleted {
		query += " AND si.deleted_at IS NULL"
	}
	query += " ORDER BY si.seq_order"

	rows, err := r.db.QueryContext(ctx, query, planInstanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sequence instances: %w", err)
	}
	defer rows.Close()

	var sequences []*secondary.SequenceInstanceRecord
	for rows.Next() {
		record, err := scanSequenceInstance(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sequence instance: %w", err)
		}
		sequences = append(sequences, record)
	}
	return sequences, rows.Err()
}

var _ secondary.SequenceRepository = (*SequenceRepository)(nil)
