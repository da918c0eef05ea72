package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/umig/internal/ctxutil"
	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/ports/secondary"
)

type planFixture struct {
	service      *PlanServiceImpl
	plans        *mockPlanRepository
	sequences    *mockSequenceRepository
	phases       *mockPhaseRepository
	steps        *mockStepRepository
	instructions *mockInstructionRepository
	statuses     *mockStatusRepository
	hierarchy    *mockHierarchyRepository
	instantiator *mockInstantiator
	logWriter    *mockLogWriter
}

func newTestPlanService() *planFixture {
	f := &planFixture{
		plans:        newMockPlanRepository(),
		sequences:    &mockSequenceRepository{},
		phases:       &mockPhaseRepository{},
		steps:        newMockStepRepository(),
		instructions: newMockInstructionRepository(),
		statuses:     newMockStatusRepository(),
		hierarchy:    newMockHierarchyRepository(),
		instantiator: &mockInstantiator{},
		logWriter:    &mockLogWriter{},
	}
	f.service = NewPlanService(PlanRepositories{
		Plans:        f.plans,
		Sequences:    f.sequences,
		Phases:       f.phases,
		Steps:        f.steps,
		Instructions: f.instructions,
		Statuses:     f.statuses,
		Hierarchy:    f.hierarchy,
	}, f.instantiator, f.logWriter, nil)
	return f
}

func TestPlanService_CreatePlanMaster(t *testing.T) {
	f := newTestPlanService()
	ctx := ctxutil.WithActor(context.Background(), "ADM")

	plan, err := f.service.CreatePlanMaster(ctx, primary.CreatePlanMasterRequest{Name: "Standard Cutover Plan"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	stored := f.plans.masters[plan.ID]
	if stored.StatusID != f.statuses.mustStatus("PLANNING", "plan").ID {
		t.Errorf("expected plan PLANNING status, got %d", stored.StatusID)
	}
	if stored.CreatedBy != "ADM" {
		t.Errorf("expected created by ADM, got %q", stored.CreatedBy)
	}

	if _, err := f.service.CreatePlanMaster(ctx, primary.CreatePlanMasterRequest{}); !dberr.IsValidation(err) {
		t.Errorf("expected validation error for missing name, got %v", err)
	}
}

func TestPlanService_AddSequence_AppendsOrder(t *testing.T) {
	f := newTestPlanService()
	ctx := context.Background()
	f.hierarchy.put("plan_master", "pm-1", secondary.NodeState{})
	f.sequences.masters = []*secondary.SequenceMasterRecord{
		{ID: "s-1", PlanMasterID: "pm-1", Order: 1},
		{ID: "s-2", PlanMasterID: "pm-1", Order: 4},
		{ID: "s-x", PlanMasterID: "pm-other", Order: 9},
	}

	seq, err := f.service.AddSequence(ctx, primary.AddSequenceRequest{PlanMasterID: "pm-1", Name: "Rollback"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if seq.Order != 5 {
		t.Errorf("expected order 5, got %d", seq.Order)
	}

	explicit, err := f.service.AddSequence(ctx, primary.AddSequenceRequest{PlanMasterID: "pm-1", Name: "Extra", Order: 10})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if explicit.Order != 10 {
		t.Errorf("expected explicit order 10, got %d", explicit.Order)
	}
}

func TestPlanService_AddChildren_ParentGuards(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *planFixture)
		add       func(f *planFixture) error
		wantCheck func(error) bool
	}{
		{
			name: "sequence on missing plan",
			add: func(f *planFixture) error {
				_, err := f.service.AddSequence(context.Background(), primary.AddSequenceRequest{PlanMasterID: "pm-x", Name: "S"})
				return err
			},
			wantCheck: dberr.IsForeignKeyViolation,
		},
		{
			name: "phase on deleted sequence",
			setup: func(f *planFixture) {
				f.hierarchy.put("sequence_master", "s-1", secondary.NodeState{Deleted: true})
			},
			add: func(f *planFixture) error {
				_, err := f.service.AddPhase(context.Background(), primary.AddPhaseRequest{SequenceMasterID: "s-1", Name: "P"})
				return err
			},
			wantCheck: dberr.IsValidation,
		},
		{
			name: "step without type code",
			add: func(f *planFixture) error {
				_, err := f.service.AddStep(context.Background(), primary.AddStepRequest{PhaseMasterID: "ph-1", Name: "S"})
				return err
			},
			wantCheck: dberr.IsValidation,
		},
		{
			name: "instruction on missing step",
			add: func(f *planFixture) error {
				_, err := f.service.AddInstruction(context.Background(), primary.AddInstructionRequest{StepMasterID: "st-x", Body: "Do it"})
				return err
			},
			wantCheck: dberr.IsForeignKeyViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestPlanService()
			if tt.setup != nil {
				tt.setup(f)
			}
			err := tt.add(f)
			if err == nil || !tt.wantCheck(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPlanService_AddStep_NumbersPerTypeCode(t *testing.T) {
	f := newTestPlanService()
	ctx := context.Background()
	f.hierarchy.put("phase_master", "ph-1", secondary.NodeState{})
	f.steps.masters = []*secondary.StepMasterRecord{
		{ID: "a", PhaseMasterID: "ph-1", TypeCode: "APP", Number: 1},
		{ID: "b", PhaseMasterID: "ph-1", TypeCode: "APP", Number: 2},
		{ID: "c", PhaseMasterID: "ph-1", TypeCode: "DB", Number: 7},
	}

	step, err := f.service.AddStep(ctx, primary.AddStepRequest{PhaseMasterID: "ph-1", TypeCode: "APP", Name: "Verify"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if step.Number != 3 || step.Code != "APP-003" {
		t.Errorf("expected APP-003, got %s (%d)", step.Code, step.Number)
	}

	first, err := f.service.AddStep(ctx, primary.AddStepRequest{PhaseMasterID: "ph-1", TypeCode: "NET", Name: "Route"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first.Code != "NET-001" {
		t.Errorf("expected NET-001, got %s", first.Code)
	}
}

func TestPlanService_GetPlanTemplate(t *testing.T) {
	f := newTestPlanService()
	f.plans.masters["pm-1"] = &secondary.PlanMasterRecord{ID: "pm-1", Name: "Standard"}
	f.sequences.masters = []*secondary.SequenceMasterRecord{{ID: "s-1", PlanMasterID: "pm-1", Order: 1, Name: "Prep"}}
	f.phases.masters = []*secondary.PhaseMasterRecord{{ID: "ph-1", SequenceMasterID: "s-1", Order: 1, Name: "Checks"}}
	f.steps.masters = []*secondary.StepMasterRecord{{ID: "st-1", PhaseMasterID: "ph-1", TypeCode: "DB", Number: 1, Name: "Backup"}}
	f.instructions.masters = []*secondary.InstructionMasterRecord{
		{ID: "in-1", StepMasterID: "st-1", Order: 1, Body: "Stop writes"},
		{ID: "in-2", StepMasterID: "st-1", Order: 2, Body: "Dump"},
	}

	tree, err := f.service.GetPlanTemplate(context.Background(), "pm-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []*primary.SequenceMaster{{
		ID: "s-1", PlanMasterID: "pm-1", Order: 1, Name: "Prep",
		Phases: []*primary.PhaseMaster{{
			ID: "ph-1", SequenceMasterID: "s-1", Order: 1, Name: "Checks",
			Steps: []*primary.StepMaster{{
				ID: "st-1", PhaseMasterID: "ph-1", Code: "DB-001", TypeCode: "DB", Number: 1, Name: "Backup",
				Instructions: []*primary.InstructionMaster{
					{ID: "in-1", StepMasterID: "st-1", Order: 1, Body: "Stop writes"},
					{ID: "in-2", StepMasterID: "st-1", Order: 2, Body: "Dump"},
				},
			}},
		}},
	}}
	if diff := cmp.Diff(want, tree.Sequences); diff != "" {
		t.Errorf("template tree mismatch (-want +got):\n%s", diff)
	}

	if _, err := f.service.GetPlanTemplate(context.Background(), "missing"); !dberr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestPlanService_InstantiatePlan(t *testing.T) {
	tests := []struct {
		name         string
		master       *secondary.NodeState
		iteration    *secondary.NodeState
		instantiator error
		wantCheck    func(error) bool
		wantCalls    int
	}{
		{
			name:      "live master into live iteration",
			master:    &secondary.NodeState{},
			iteration: &secondary.NodeState{},
			wantCalls: 1,
		},
		{
			name:      "missing master is not found",
			iteration: &secondary.NodeState{},
			wantCheck: dberr.IsNotFound,
		},
		{
			name:      "deleted master is rejected",
			master:    &secondary.NodeState{Deleted: true},
			iteration: &secondary.NodeState{},
			wantCheck: dberr.IsValidation,
		},
		{
			name:      "missing iteration is foreign key violation",
			master:    &secondary.NodeState{},
			wantCheck: dberr.IsForeignKeyViolation,
		},
		{
			name:         "store failure propagates",
			master:       &secondary.NodeState{},
			iteration:    &secondary.NodeState{},
			instantiator: dberr.ForeignKeyViolation("plan instance", dberr.OpCreate, "iteration vanished"),
			wantCheck:    dberr.IsForeignKeyViolation,
			wantCalls:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestPlanService()
			if tt.master != nil {
				f.hierarchy.put("plan_master", "pm-1", *tt.master)
			}
			if tt.iteration != nil {
				f.hierarchy.put("iteration", "it-1", *tt.iteration)
			}
			f.instantiator.err = tt.instantiator
			f.instantiator.result = &secondary.InstantiateResult{
				PlanInstanceID: "pi-1", Sequences: 2, Phases: 2, Steps: 3, Instructions: 5,
			}

			ctx := ctxutil.WithActor(context.Background(), "JDO")
			resp, err := f.service.InstantiatePlan(ctx, primary.InstantiatePlanRequest{PlanMasterID: "pm-1", IterationID: "it-1"})

			if len(f.instantiator.requests) != tt.wantCalls {
				t.Errorf("expected %d instantiator calls, got %d", tt.wantCalls, len(f.instantiator.requests))
			}
			if tt.wantCheck != nil {
				if err == nil || !tt.wantCheck(err) {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.PlanInstanceID != "pi-1" || resp.Steps != 3 || resp.Instructions != 5 {
				t.Errorf("unexpected response: %+v", resp)
			}
			if f.instantiator.requests[0].Actor != "JDO" {
				t.Errorf("expected actor JDO, got %q", f.instantiator.requests[0].Actor)
			}
		})
	}
}

func TestPlanService_InstantiatePlan_MissingIDs(t *testing.T) {
	f := newTestPlanService()
	_, err := f.service.InstantiatePlan(context.Background(), primary.InstantiatePlanRequest{PlanMasterID: "pm-1"})
	if !errors.Is(err, dberr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestPlanService_DeletePlanMaster(t *testing.T) {
	f := newTestPlanService()
	f.hierarchy.put("plan_master", "pm-1", secondary.NodeState{Children: 3})

	if err := f.service.DeletePlanMaster(context.Background(), primary.DeleteRequest{ID: "pm-1"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(f.hierarchy.softDeleted) != 1 {
		t.Errorf("expected soft delete, got %v", f.hierarchy.softDeleted)
	}
	if err := f.service.DeletePlanMaster(context.Background(), primary.DeleteRequest{ID: "pm-1", Hard: true}); !dberr.IsForeignKeyViolation(err) {
		t.Errorf("expected foreign key violation, got %v", err)
	}
}
