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

// Initial statuses given to freshly instantiated rows.
const (
	initialContainerStatus = "PLANNING"
	initialStepStatus      = "PENDING"
)

// PlanInstantiator implements secondary.Instantiator with SQLite.
type PlanInstantiator struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewPlanInstantiator creates a new SQLite plan instantiator.
func NewPlanInstantiator(db *sql.DB, logWriter secondary.LogWriter) *PlanInstantiator {
	return &PlanInstantiator{db: db, logWriter: logWriter}
}

type masterRow struct {
	id    string
	name  string
	order int
}

// InstantiatePlan copies the live master tree of a plan into the iteration
// in a single transaction. Either every row is created or none is.
func (p *PlanInstantiator) InstantiatePlan(ctx context.Context, req secondary.InstantiateRequest) (*secondary.InstantiateResult, error) {
	result := &secondary.InstantiateResult{PlanInstanceID: uuid.NewString()}

	err := db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		statuses, err := initialStatuses(ctx, tx)
		if err != nil {
			return err
		}

		var masterName string
		var masterDesc sql.NullString
		err = tx.QueryRowContext(ctx,
			"SELECT name, description FROM plans_master WHERE id = ? AND deleted_at IS NULL", req.PlanMasterID,
		).Scan(&masterName, &masterDesc)
		if err == sql.ErrNoRows {
			return dberr.NotFound("plan master", req.PlanMasterID)
		}
		if err != nil {
			return fmt.Errorf("failed to read plan master: %w", err)
		}

		name := req.Name
		if name == "" {
			name = masterName
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO plans_instance (id, plan_master_id, iteration_id, name, description, status_id, created_by, updated_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			result.PlanInstanceID, req.PlanMasterID, req.IterationID, name, masterDesc, statuses["plan"],
			nullString(req.Actor), nullString(req.Actor),
		); err != nil {
			return dberr.Classify(err, "plan instance", dberr.OpCreate)
		}

		sequences, err := collectMasters(ctx, tx,
			"SELECT id, name, seq_order FROM sequences_master WHERE plan_master_id = ? AND deleted_at IS NULL ORDER BY seq_order",
			req.PlanMasterID)
		if err != nil {
			return err
		}

		for _, seq := range sequences {
			seqInstanceID := uuid.NewString()
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sequences_instance (id, sequence_master_id, plan_instance_id, name, seq_order, status_id, created_by, updated_by)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				seqInstanceID, seq.id, result.PlanInstanceID, seq.name, seq.order, statuses["sequence"],
				nullString(req.Actor), nullString(req.Actor),
			); err != nil {
				return dberr.Classify(err, "sequence instance", dberr.OpCreate)
			}
			result.Sequences++

			if err := p.instantiatePhases(ctx, tx, req.Actor, seq.id, seqInstanceID, statuses, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate plan: %w", err)
	}

	if p.logWriter != nil {
		_ = p.logWriter.LogCreate(ctx, "plan", result.PlanInstanceID)
	}
	return result, nil
}

func (p *PlanInstantiator) instantiatePhases(ctx context.Context, tx *sql.Tx, actor, seqMasterID, seqInstanceID string, statuses map[string]int, result *secondary.InstantiateResult) error {
	phases, err := collectMasters(ctx, tx,
		"SELECT id, name, phase_order FROM phases_master WHERE sequence_master_id = ? AND deleted_at IS NULL ORDER BY phase_order",
		seqMasterID)
	if err != nil {
		return err
	}

	for _, phase := range phases {
		phaseInstanceID := uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO phases_instance (id, phase_master_id, sequence_instance_id, name, phase_order, status_id, created_by, updated_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			phaseInstanceID, phase.id, seqInstanceID, phase.name, phase.order, statuses["phase"],
			nullString(actor), nullString(actor),
		); err != nil {
			return dberr.Classify(err, "phase instance", dberr.OpCreate)
		}
		result.Phases++

		steps, err := collectMasters(ctx, tx,
			"SELECT id, name, step_number FROM steps_master WHERE phase_master_id = ? AND deleted_at IS NULL ORDER BY type_code, step_number",
			phase.id)
		if err != nil {
			return err
		}

		for _, step := range steps {
			stepInstanceID := uuid.NewString()
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO steps_instance (id, step_master_id, phase_instance_id, name, status_id, created_by, updated_by)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				stepInstanceID, step.id, phaseInstanceID, step.name, statuses["step"],
				nullString(actor), nullString(actor),
			); err != nil {
				return dberr.Classify(err, "step instance", dberr.OpCreate)
			}
			result.Steps++

			instructions, err := collectMasters(ctx, tx,
				"SELECT id, '', instruction_order FROM instructions_master WHERE step_master_id = ? AND deleted_at IS NULL ORDER BY instruction_order",
				step.id)
			if err != nil {
				return err
			}
			for _, instruction := range instructions {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO instructions_instance (id, instruction_master_id, step_instance_id, created_by, updated_by)
					VALUES (?, ?, ?, ?, ?)`,
					uuid.NewString(), instruction.id, stepInstanceID, nullString(actor), nullString(actor),
				); err != nil {
					return dberr.Classify(err, "instruction instance", dberr.OpCreate)
				}
				result.Instructions++
			}
		}
	}
	return nil
}

// collectMasters reads every row before returning so that no cursor is
// open while the caller inserts on the same transaction.
func collectMasters(ctx context.Context, tx *sql.Tx, query, parentID string) ([]masterRow, error) {
	rows, err := tx.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to read masters: %w", err)
	}
	defer rows.Close()

	var masters []masterRow
	for rows.Next() {
		var m masterRow
		if err := rows.Scan(&m.id, &m.name, &m.order); err != nil {
			return nil, fmt.Errorf("failed to scan master: %w", err)
		}
		masters = append(masters, m)
	}
	return masters, rows.Err()
}

func initialStatuses(ctx context.Context, tx *sql.Tx) (map[string]int, error) {
	statuses := make(map[string]int, 4)
	for _, entity := range []string{"plan", "sequence", "phase", "step"} {
		name := initialContainerStatus
		if entity == "step" {
			name = initialStepStatus
		}
		var id int
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM statuses WHERE name = ? AND entity_type = ?", name, entity,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s status %s: %w", entity, name, err)
		}
		statuses[entity] = id
	}
	return statuses, nil
}

var _ secondary.Instantiator = (*PlanInstantiator)(nil)
