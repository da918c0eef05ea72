package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/example/umig/internal/core/hierarchy"
	"github.com/example/umig/internal/core/notification"
	"github.com/example/umig/internal/ctxutil"
	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/logging"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/ports/secondary"
	"github.com/example/umig/internal/telemetry"
)

// PlanRepositories groups the master-side repositories the plan service drives.
type PlanRepositories struct {
	Plans        secondary.PlanRepository
	Sequences    secondary.SequenceRepository
	Phases       secondary.PhaseRepository
	Steps        secondary.StepRepository
	Instructions secondary.InstructionRepository
	Statuses     secondary.StatusRepository
	Hierarchy    secondary.HierarchyRepository
}

// PlanServiceImpl implements the PlanService interface.
type PlanServiceImpl struct {
	repos        PlanRepositories
	instantiator secondary.Instantiator
	logWriter    secondary.LogWriter
	logger       *zap.Logger
}

// NewPlanService creates a new PlanService with injected dependencies.
func NewPlanService(
	repos PlanRepositories,
	instantiator secondary.Instantiator,
	logWriter secondary.LogWriter,
	logger *zap.Logger,
) *PlanServiceImpl {
	return &PlanServiceImpl{
		repos:        repos,
		instantiator: instantiator,
		logWriter:    logWriter,
		logger:       logging.OrNop(logger),
	}
}

// CreatePlanMaster creates a plan template in PLANNING status.
func (s *PlanServiceImpl) CreatePlanMaster(ctx context.Context, req primary.CreatePlanMasterRequest) (*primary.PlanMaster, error) {
	if req.Name == "" {
		return nil, dberr.Validation("plan name is required")
	}

	status, err := resolveStatus(ctx, s.repos.Statuses, hierarchy.LevelPlanMaster, initialStatusName)
	if err != nil {
		return nil, err
	}

	record := &secondary.PlanMasterRecord{
		ID:          uuid.NewString(),
		TeamID:      req.TeamID,
		Name:        req.Name,
		Description: req.Description,
		StatusID:    status.ID,
		CreatedBy:   ctxutil.ActorOrSystem(ctx),
	}
	if err := s.repos.Plans.CreateMaster(ctx, record); err != nil {
		return nil, err
	}

	created, err := s.repos.Plans.GetMaster(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created plan: %w", err)
	}
	return recordToPlanMaster(created), nil
}

// GetPlanMaster retrieves a plan template by ID.
func (s *PlanServiceImpl) GetPlanMaster(ctx context.Context, id string) (*primary.PlanMaster, error) {
	record, err := s.repos.Plans.GetMaster(ctx, id)
	if err != nil {
		return nil, err
	}
	return recordToPlanMaster(record), nil
}

// ListPlanMasters lists plan templates.
func (s *PlanServiceImpl) ListPlanMasters(ctx context.Context, includeDeleted bool) ([]*primary.PlanMaster, error) {
	records, err := s.repos.Plans.ListMasters(ctx, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	plans := make([]*primary.PlanMaster, len(records))
	for i, r := range records {
		plans[i] = recordToPlanMaster(r)
	}
	return plans, nil
}

// UpdatePlanMaster updates a plan template. Empty fields are left unchanged.
func (s *PlanServiceImpl) UpdatePlanMaster(ctx context.Context, req primary.UpdatePlanMasterRequest) error {
	if req.ID == "" {
		return dberr.Validation("plan id is required")
	}
	return s.repos.Plans.UpdateMaster(ctx, &secondary.PlanMasterRecord{
		ID:          req.ID,
		TeamID:      req.TeamID,
		Name:        req.Name,
		Description: req.Description,
		UpdatedBy:   ctxutil.ActorOrSystem(ctx),
	})
}

// DeletePlanMaster soft-deletes a plan template, or removes it when Hard is set.
// Soft-deleted templates can no longer be instantiated.
func (s *PlanServiceImpl) DeletePlanMaster(ctx context.Context, req primary.DeleteRequest) error {
	return deleteNode(ctx, s.repos.Hierarchy, s.logWriter, hierarchy.LevelPlanMaster, req)
}

// GetPlanTemplate returns the live master tree of a plan template.
func (s *PlanServiceImpl) GetPlanTemplate(ctx context.Context, planMasterID string) (*primary.PlanTemplate, error) {
	plan, err := s.repos.Plans.GetMaster(ctx, planMasterID)
	if err != nil {
		return nil, err
	}

	sequences, err := s.repos.Sequences.ListMasters(ctx, planMasterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sequences: %w", err)
	}

	template := &primary.PlanTemplate{
		Plan:      recordToPlanMaster(plan),
		Sequences: make([]*primary.SequenceMaster, 0, len(sequences)),
	}
	for _, seq := range sequences {
		sm := recordToSequenceMaster(seq)
		phases, err := s.repos.Phases.ListMasters(ctx, seq.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list phases: %w", err)
		}
		for _, phase := range phases {
			pm := recordToPhaseMaster(phase)
			steps, err := s.repos.Steps.ListMasters(ctx, phase.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to list steps: %w", err)
			}
			for _, step := range steps {
				stm := recordToStepMaster(step)
				instructions, err := s.repos.Instructions.ListMasters(ctx, step.ID)
				if err != nil {
					return nil, fmt.Errorf("failed to list instructions: %w", err)
				}
				for _, inst := range instructions {
					stm.Instructions = append(stm.Instructions, recordToInstructionMaster(inst))
				}
				pm.Steps = append(pm.Steps, stm)
			}
			sm.Phases = append(sm.Phases, pm)
		}
		template.Sequences = append(template.Sequences, sm)
	}
	return template, nil
}

// AddSequence appends a sequence template to a live plan template.
func (s *PlanServiceImpl) AddSequence(ctx context.Context, req primary.AddSequenceRequest) (*primary.SequenceMaster, error) {
	if req.Name == "" {
		return nil, dberr.Validation("sequence name is required")
	}
	if err := checkParent(ctx, s.repos.Hierarchy, hierarchy.LevelSequenceMaster, req.PlanMasterID); err != nil {
		return nil, err
	}

	order := req.Order
	if order == 0 {
		next, err := s.repos.Sequences.NextMasterOrder(ctx, req.PlanMasterID)
		if err != nil {
			return nil, err
		}
		order = next
	}

	record := &secondary.SequenceMasterRecord{
		ID:            uuid.NewString(),
		PlanMasterID:  req.PlanMasterID,
		Order:         order,
		Name:          req.Name,
		Description:   req.Description,
		PredecessorID: req.PredecessorID,
		CreatedBy:     ctxutil.ActorOrSystem(ctx),
	}
	if err := s.repos.Sequences.CreateMaster(ctx, record); err != nil {
		return nil, err
	}
	return recordToSequenceMaster(record), nil
}

// AddPhase appends a phase template to a live sequence template.
func (s *PlanServiceImpl) AddPhase(ctx context.Context, req primary.AddPhaseRequest) (*primary.PhaseMaster, error) {
	if req.Name == "" {
		return nil, dberr.Validation("phase name is required")
	}
	if err := checkParent(ctx, s.repos.Hierarchy, hierarchy.LevelPhaseMaster, req.SequenceMasterID); err != nil {
		return nil, err
	}

	order := req.Order
	if order == 0 {
		next, err := s.repos.Phases.NextMasterOrder(ctx, req.SequenceMasterID)
		if err != nil {
			return nil, err
		}
		order = next
	}

	record := &secondary.PhaseMasterRecord{
		ID:               uuid.NewString(),
		SequenceMasterID: req.SequenceMasterID,
		Order:            order,
		Name:             req.Name,
		Description:      req.Description,
		PredecessorID:    req.PredecessorID,
		CreatedBy:        ctxutil.ActorOrSystem(ctx),
	}
	if err := s.repos.Phases.CreateMaster(ctx, record); err != nil {
		return nil, err
	}
	return recordToPhaseMaster(record), nil
}

// AddStep adds a step template to a live phase template.
// Number 0 takes the next free number for the type code.
func (s *PlanServiceImpl) AddStep(ctx context.Context, req primary.AddStepRequest) (*primary.StepMaster, error) {
	if req.Name == "" || req.TypeCode == "" {
		return nil, dberr.Validation("step name and type code are required")
	}
	if err := checkParent(ctx, s.repos.Hierarchy, hierarchy.LevelStepMaster, req.PhaseMasterID); err != nil {
		return nil, err
	}

	number := req.Number
	if number == 0 {
		next, err := s.repos.Steps.NextMasterNumber(ctx, req.PhaseMasterID, req.TypeCode)
		if err != nil {
			return nil, err
		}
		number = next
	}

	record := &secondary.StepMasterRecord{
		ID:              uuid.NewString(),
		PhaseMasterID:   req.PhaseMasterID,
		TeamID:          req.TeamID,
		TypeCode:        req.TypeCode,
		Number:          number,
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		CreatedBy:       ctxutil.ActorOrSystem(ctx),
	}
	if err := s.repos.Steps.CreateMaster(ctx, record); err != nil {
		return nil, err
	}
	return recordToStepMaster(record), nil
}

// AddInstruction appends an instruction template to a live step template.
func (s *PlanServiceImpl) AddInstruction(ctx context.Context, req primary.AddInstructionRequest) (*primary.InstructionMaster, error) {
	if req.Body == "" {
		return nil, dberr.Validation("instruction body is required")
	}
	if err := checkParent(ctx, s.repos.Hierarchy, hierarchy.LevelInstructionMaster, req.StepMasterID); err != nil {
		return nil, err
	}

	order := req.Order
	if order == 0 {
		next, err := s.repos.Instructions.NextMasterOrder(ctx, req.StepMasterID)
		if err != nil {
			return nil, err
		}
		order = next
	}

	record := &secondary.InstructionMasterRecord{
		ID:              uuid.NewString(),
		StepMasterID:    req.StepMasterID,
		TeamID:          req.TeamID,
		Order:           order,
		Body:            req.Body,
		DurationMinutes: req.DurationMinutes,
		CreatedBy:       ctxutil.ActorOrSystem(ctx),
	}
	if err := s.repos.Instructions.CreateMaster(ctx, record); err != nil {
		return nil, err
	}
	return recordToInstructionMaster(record), nil
}

// InstantiatePlan copies the live master tree of a plan template into an iteration.
func (s *PlanServiceImpl) InstantiatePlan(ctx context.Context, req primary.InstantiatePlanRequest) (*primary.InstantiatePlanResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "plan.instantiate")
	defer span.End()
	span.SetAttributes(
		attribute.String("umig.plan_master_id", req.PlanMasterID),
		attribute.String("umig.iteration_id", req.IterationID),
	)

	guardCtx := hierarchy.InstantiatePlanContext{
		PlanMasterID: req.PlanMasterID,
		IterationID:  req.IterationID,
	}
	if req.PlanMasterID != "" && req.IterationID != "" {
		master, err := s.repos.Hierarchy.State(ctx, string(hierarchy.LevelPlanMaster), req.PlanMasterID)
		if err != nil {
			return nil, fmt.Errorf("failed to read plan master: %w", err)
		}
		iteration, err := s.repos.Hierarchy.State(ctx, string(hierarchy.LevelIteration), req.IterationID)
		if err != nil {
			return nil, fmt.Errorf("failed to read iteration: %w", err)
		}
		guardCtx.MasterExists = master.Exists
		guardCtx.MasterDeleted = master.Deleted
		guardCtx.IterationExists = iteration.Exists
		guardCtx.IterationDeleted = iteration.Deleted
	}
	if result := hierarchy.CanInstantiatePlan(guardCtx); !result.Allowed {
		err := result.Error()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result, err := s.instantiator.InstantiatePlan(ctx, secondary.InstantiateRequest{
		PlanMasterID: req.PlanMasterID,
		IterationID:  req.IterationID,
		Name:         req.Name,
		Actor:        ctxutil.ActorOrSystem(ctx),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("umig.steps_created", result.Steps))
	s.logger.Info("plan instantiated",
		zap.String("plan_master_id", req.PlanMasterID),
		zap.String("iteration_id", req.IterationID),
		zap.String("plan_instance_id", result.PlanInstanceID),
		zap.Int("sequences", result.Sequences),
		zap.Int("phases", result.Phases),
		zap.Int("steps", result.Steps),
		zap.Int("instructions", result.Instructions),
	)

	return &primary.InstantiatePlanResponse{
		PlanInstanceID: result.PlanInstanceID,
		Sequences:      result.Sequences,
		Phases:         result.Phases,
		Steps:          result.Steps,
		Instructions:   result.Instructions,
	}, nil
}

// Helper methods

func recordToPlanMaster(r *secondary.PlanMasterRecord) *primary.PlanMaster {
	return &primary.PlanMaster{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		TeamID:      r.TeamID,
		Status:      recordToStatus(r.Status),
		DeletedAt:   r.DeletedAt,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func recordToSequenceMaster(r *secondary.SequenceMasterRecord) *primary.SequenceMaster {
	return &primary.SequenceMaster{
		ID:            r.ID,
		PlanMasterID:  r.PlanMasterID,
		Order:         r.Order,
		Name:          r.Name,
		Description:   r.Description,
		PredecessorID: r.PredecessorID,
	}
}

func recordToPhaseMaster(r *secondary.PhaseMasterRecord) *primary.PhaseMaster {
	return &primary.PhaseMaster{
		ID:               r.ID,
		SequenceMasterID: r.SequenceMasterID,
		Order:            r.Order,
		Name:             r.Name,
		Description:      r.Description,
		PredecessorID:    r.PredecessorID,
	}
}

func recordToStepMaster(r *secondary.StepMasterRecord) *primary.StepMaster {
	return &primary.StepMaster{
		ID:              r.ID,
		PhaseMasterID:   r.PhaseMasterID,
		TeamID:          r.TeamID,
		Code:            notification.StepCode(r.TypeCode, r.Number),
		TypeCode:        r.TypeCode,
		Number:          r.Number,
		Name:            r.Name,
		Description:     r.Description,
		DurationMinutes: r.DurationMinutes,
	}
}

func recordToInstructionMaster(r *secondary.InstructionMasterRecord) *primary.InstructionMaster {
	return &primary.InstructionMaster{
		ID:              r.ID,
		StepMasterID:    r.StepMasterID,
		Order:           r.Order,
		Body:            r.Body,
		TeamID:          r.TeamID,
		DurationMinutes: r.DurationMinutes,
	}
}

// Ensure PlanServiceImpl implements the interface
var _ primary.PlanService = (*PlanServiceImpl)(nil)
