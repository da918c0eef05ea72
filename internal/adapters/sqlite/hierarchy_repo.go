package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/umig/internal/db"
	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

type childRef struct {
	table  string
	column string
}

type levelTable struct {
	table     string
	hasStatus bool
	children  []childRef
}

// levelTables maps hierarchy level names onto tables and the foreign keys
// that reference them. Comments are excluded because they cascade.
var levelTables = map[string]levelTable{
	"migration": {table: "migrations", hasStatus: true, children: []childRef{
		{"iterations", "migration_id"},
	}},
	"iteration": {table: "iterations", hasStatus: true, children: []childRef{
		{"plans_instance", "iteration_id"},
	}},
	"plan_master": {table: "plans_master", hasStatus: true, children: []childRef{
		{"plans_instance", "plan_master_id"},
		{"sequences_master", "plan_master_id"},
	}},
	"plan": {table: "plans_instance", hasStatus: true, children: []childRef{
		{"sequences_instance", "plan_instance_id"},
	}},
	"sequence_master": {table: "sequences_master", children: []childRef{
		{"sequences_instance", "sequence_master_id"},
		{"phases_master", "sequence_master_id"},
		{"sequences_master", "predecessor_id"},
	}},
	"sequence": {table: "sequences_instance", hasStatus: true, children: []childRef{
		{"phases_instance", "sequence_instance_id"},
	}},
	"phase_master": {table: "phases_master", children: []childRef{
		{"phases_instance", "phase_master_id"},
		{"steps_master", "phase_master_id"},
		{"phases_master", "predecessor_id"},
	}},
	"phase": {table: "phases_instance", hasStatus: true, children: []childRef{
		{"steps_instance", "phase_instance_id"},
	}},
	"step_master": {table: "steps_master", children: []childRef{
		{"steps_instance", "step_master_id"},
		{"instructions_master", "step_master_id"},
	}},
	"step": {table: "steps_instance", hasStatus: true, children: []childRef{
		{"instructions_instance", "step_instance_id"},
	}},
	"instruction_master": {table: "instructions_master", children: []childRef{
		{"instructions_instance", "instruction_master_id"},
	}},
	"instruction": {table: "instructions_instance"},
}

func lookupLevel(level string) (levelTable, error) {
	lt, ok := levelTables[level]
	if !ok {
		return levelTable{}, dberr.Validation("unknown hierarchy level %q", level)
	}
	return lt, nil
}

// HierarchyRepository implements secondary.HierarchyRepository with SQLite.
type HierarchyRepository struct {
	db *sql.DB
}

// NewHierarchyRepository creates a new SQLite hierarchy repository.
func NewHierarchyRepository(db *sql.DB) *HierarchyRepository {
	return &HierarchyRepository{db: db}
}

// State returns existence, soft-delete and child count for a row.
// Child counts include soft-deleted children because they still hold
// foreign keys.
func (r *HierarchyRepository) State(ctx context.Context, level, id string) (*secondary.NodeState, error) {
	lt, err := lookupLevel(level)
	if err != nil {
		return nil, err
	}

	statusCol := "0"
	if lt.hasStatus {
		statusCol = "status_id"
	}

	var deleted sql.NullTime
	state := &secondary.NodeState{}
	err = r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT deleted_at, %s FROM %s WHERE id = ?", statusCol, lt.table), id,
	).Scan(&deleted, &state.StatusID)
	if err == sql.ErrNoRows {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", level, err)
	}
	state.Exists = true
	state.Deleted = deleted.Valid

	for _, child := range lt.children {
		var count int
		if err := r.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", child.table, child.column), id,
		).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s children: %w", level, err)
		}
		state.Children += count
	}
	return state, nil
}

// SoftDelete sets deleted_at. Children are untouched.
func (r *HierarchyRepository) SoftDelete(ctx context.Context, level, id, actor string) error {
	lt, err := lookupLevel(level)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET deleted_at = CURRENT_TIMESTAMP, updated_by = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL", lt.table),
		nullString(actor), id,
	)
	if err != nil {
		return fmt.Errorf("failed to soft delete %s: %w", level, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dberr.NotFound(level, id)
	}
	return nil
}

// Restore clears deleted_at.
func (r *HierarchyRepository) Restore(ctx context.Context, level, id, actor string) error {
	lt, err := lookupLevel(level)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET deleted_at = NULL, updated_by = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NOT NULL", lt.table),
		nullString(actor), id,
	)
	if err != nil {
		return fmt.Errorf("failed to restore %s: %w", level, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dberr.NotFound("deleted "+level, id)
	}
	return nil
}

// HardDelete removes the row. Live children cause a foreign key violation.
func (r *HierarchyRepository) HardDelete(ctx context.Context, level, id string) error {
	lt, err := lookupLevel(level)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", lt.table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", level, dberr.Classify(err, level, dberr.OpDelete))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dberr.NotFound(level, id)
	}
	return nil
}

// stepStatusTimestamps stamps started_at on the first move to IN_PROGRESS
// and completed_at on every move to COMPLETED.
const stepStatusTimestamps = `,
	started_at = CASE WHEN started_at IS NULL AND (SELECT name FROM statuses WHERE id = ?) = 'IN_PROGRESS' THEN CURRENT_TIMESTAMP ELSE started_at END,
	completed_at = CASE WHEN (SELECT name FROM statuses WHERE id = ?) = 'COMPLETED' THEN CURRENT_TIMESTAMP ELSE completed_at END`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateStatus(ctx context.Context, ex execer, level string, lt levelTable, id string, statusID int, actor string) error {
	query := fmt.Sprintf("UPDATE %s SET status_id = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP", lt.table)
	args := []any{statusID, nullString(actor)}
	if lt.table == "steps_instance" {
		query += stepStatusTimestamps
		args = append(args, statusID, statusID)
	}
	query += " WHERE id = ?"
	args = append(args, id)

	result, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return dberr.Classify(err, level, dberr.OpUpdate)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dberr.NotFound(level, id)
	}
	return nil
}

// liveStatus returns the current status of a row that is neither missing
// nor soft-deleted.
func liveStatus(ctx context.Context, tx *sql.Tx, level string, lt levelTable, id string) (int, error) {
	var deleted sql.NullTime
	var statusID int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT deleted_at, status_id FROM %s WHERE id = ?", lt.table), id,
	).Scan(&deleted, &statusID)
	if err == sql.ErrNoRows {
		return 0, dberr.NotFound(level, id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", level, err)
	}
	if deleted.Valid {
		return 0, dberr.Validation("%s %s is deleted", level, id)
	}
	return statusID, nil
}

// UpdateStatus sets the status of a status-bearing row.
func (r *HierarchyRepository) UpdateStatus(ctx context.Context, level, id string, statusID int, actor string) error {
	lt, err := lookupLevel(level)
	if err != nil {
		return err
	}
	if !lt.hasStatus {
		return dberr.Validation("%s has no status", level)
	}
	if err := updateStatus(ctx, r.db, level, lt, id, statusID, actor); err != nil {
		return fmt.Errorf("failed to update %s status: %w", level, err)
	}
	return nil
}

// BulkUpdateStatus updates many rows in one transaction. Each row runs
// under its own savepoint so that with continueOnError a failing row is
// undone on its own while the others commit. Missing and soft-deleted
// rows fail.
func (r *HierarchyRepository) BulkUpdateStatus(ctx context.Context, level string, ids []string, statusID int, actor string, continueOnError bool) (*secondary.BulkStatusResult, error) {
	lt, err := lookupLevel(level)
	if err != nil {
		return nil, err
	}
	if !lt.hasStatus {
		return nil, dberr.Validation("%s has no status", level)
	}

	result := &secondary.BulkStatusResult{Previous: make(map[string]int)}
	err = db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, id := range ids {
			savepoint := "bulk_" + uuid.NewString()[:8]
			if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
				return fmt.Errorf("failed to open savepoint: %w", err)
			}

			prev, err := liveStatus(ctx, tx, level, lt, id)
			if err == nil {
				err = updateStatus(ctx, tx, level, lt, id, statusID, actor)
			}
			if err != nil {
				if !continueOnError {
					return fmt.Errorf("%s %s: %w", level, id, err)
				}
				for _, stmt := range []string{"ROLLBACK TO ", "RELEASE "} {
					if _, rbErr := tx.ExecContext(ctx, stmt+savepoint); rbErr != nil {
						return fmt.Errorf("failed to roll back savepoint: %w", rbErr)
					}
				}
				result.Failed = append(result.Failed, secondary.BulkStatusFailure{ID: id, Err: err})
				continue
			}

			if _, err := tx.ExecContext(ctx, "RELEASE "+savepoint); err != nil {
				return fmt.Errorf("failed to release savepoint: %w", err)
			}
			result.Updated = append(result.Updated, id)
			result.Previous[id] = prev
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bulk status update failed: %w", err)
	}
	return result, nil
}

var _ secondary.HierarchyRepository = (*HierarchyRepository)(nil)
