package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/example/umig/internal/adapters/sqlite"
	"github.com/example/umig/internal/ports/secondary"
)

// seedMasterChain inserts one plan, sequence, phase and step template.
func seedMasterChain(t *testing.T, testDB *sql.DB) {
	t.Helper()
	stmts := []string{
		"INSERT INTO plans_master (id, name, status_id) VALUES ('PM', 'Plan', 9)",
		"INSERT INTO sequences_master (id, plan_master_id, seq_order, name) VALUES ('SQ', 'PM', 1, 'Sequence')",
		"INSERT INTO phases_master (id, sequence_master_id, phase_order, name) VALUES ('PH', 'SQ', 1, 'Phase')",
		"INSERT INTO steps_master (id, phase_master_id, type_code, step_number, name) VALUES ('ST', 'PH', 'APP', 1, 'Step')",
	}
	for _, stmt := range stmts {
		if _, err := testDB.Exec(stmt); err != nil {
			t.Fatalf("failed to seed templates: %v", err)
		}
	}
}

func TestNextMasterOrder_CountsSoftDeletedSiblings(t *testing.T) {
	type levelOps struct {
		create func(ctx context.Context, id string, order int) error
		next   func(ctx context.Context) (int, error)
	}

	tests := []struct {
		name  string
		level string
		ops   func(testDB *sql.DB) levelOps
	}{
		{
			name:  "sequence",
			level: "sequence_master",
			ops: func(testDB *sql.DB) levelOps {
				repo := sqlite.NewSequenceRepository(testDB)
				return levelOps{
					create: func(ctx context.Context, id string, order int) error {
						return repo.CreateMaster(ctx, &secondary.SequenceMasterRecord{ID: id, PlanMasterID: "PM", Order: order, Name: id})
					},
					next: func(ctx context.Context) (int, error) { return repo.NextMasterOrder(ctx, "PM") },
				}
			},
		},
		{
			name:  "phase",
			level: "phase_master",
			ops: func(testDB *sql.DB) levelOps {
				repo := sqlite.NewPhaseRepository(testDB)
				return levelOps{
					create: func(ctx context.Context, id string, order int) error {
						return repo.CreateMaster(ctx, &secondary.PhaseMasterRecord{ID: id, SequenceMasterID: "SQ", Order: order, Name: id})
					},
					next: func(ctx context.Context) (int, error) { return repo.NextMasterOrder(ctx, "SQ") },
				}
			},
		},
		{
			name:  "step",
			level: "step_master",
			ops: func(testDB *sql.DB) levelOps {
				repo := sqlite.NewStepRepository(testDB, nil)
				return levelOps{
					create: func(ctx context.Context, id string, number int) error {
						return repo.CreateMaster(ctx, &secondary.StepMasterRecord{ID: id, PhaseMasterID: "PH", TypeCode: "APP", Number: number, Name: id})
					},
					next: func(ctx context.Context) (int, error) { return repo.NextMasterNumber(ctx, "PH", "APP") },
				}
			},
		},
		{
			name:  "instruction",
			level: "instruction_master",
			ops: func(testDB *sql.DB) levelOps {
				repo := sqlite.NewInstructionRepository(testDB, nil)
				return levelOps{
					create: func(ctx context.Context, id string, order int) error {
						return repo.CreateMaster(ctx, &secondary.InstructionMasterRecord{ID: id, StepMasterID: "ST", Order: order, Body: id})
					},
					next: func(ctx context.Context) (int, error) { return repo.NextMasterOrder(ctx, "ST") },
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testDB := setupTestDB(t)
			seedMasterChain(t, testDB)
			ctx := context.Background()
			ops := tt.ops(testDB)

			// The seeded chain already holds order 1 for sequence, phase and step.
			first, err := ops.next(ctx)
			if err != nil {
				t.Fatalf("next failed: %v", err)
			}
			for i := 0; i < 2; i++ {
				if err := ops.create(ctx, fmt.Sprintf("%s-%d", tt.name, i), first+i); err != nil {
					t.Fatalf("create failed: %v", err)
				}
			}

			last := fmt.Sprintf("%s-%d", tt.name, 1)
			if err := sqlite.NewHierarchyRepository(testDB).SoftDelete(ctx, tt.level, last, "ADM"); err != nil {
				t.Fatalf("SoftDelete failed: %v", err)
			}

			next, err := ops.next(ctx)
			if err != nil {
				t.Fatalf("next failed: %v", err)
			}
			if next != first+2 {
				t.Errorf("expected next slot %d past the deleted sibling, got %d", first+2, next)
			}
			if err := ops.create(ctx, tt.name+"-appended", next); err != nil {
				t.Errorf("appending after a deleted sibling failed: %v", err)
			}
		})
	}
}
