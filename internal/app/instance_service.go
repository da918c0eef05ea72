package app

import (
	"context"
	"fmt"

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

// InstanceServiceImpl implements the InstanceService interface.
type InstanceServiceImpl struct {
	planRepo      secondary.PlanRepository
	sequenceRepo  secondary.SequenceRepository
	phaseRepo     secondary.PhaseRepository
	stepRepo      secondary.StepRepository
	statusRepo    secondary.StatusRepository
	hierarchyRepo secondary.HierarchyRepository
	logWriter     secondary.LogWriter
	logger        *zap.Logger
}

// NewInstanceService creates a new InstanceService with injected dependencies.
func NewInstanceService(
	planRepo secondary.PlanRepository,
	sequenceRepo secondary.SequenceRepository,
	phaseRepo secondary.PhaseRepository,
	stepRepo secondary.StepRepository,
	statusRepo secondary.StatusRepository,
	hierarchyRepo secondary.HierarchyRepository,
	logWriter secondary.LogWriter,
	logger *zap.Logger,
) *InstanceServiceImpl {
	return &InstanceServiceImpl{
		planRepo:      planRepo,
		sequenceRepo:  sequenceRepo,
		phaseRepo:     phaseRepo,
		stepRepo:      stepRepo,
		statusRepo:    statusRepo,
		hierarchyRepo: hierarchyRepo,
		logWriter:     logWriter,
		logger:        logging.OrNop(logger),
	}
}

// ListPlans lists plan instances under the given ancestors.
func (s *InstanceServiceImpl) ListPlans(ctx context.Context, filters primary.PlanInstanceFilters) ([]*primary.PlanInstance, error) {
	records, err := s.planRepo.ListInstances(ctx, secondary.PlanInstanceFilters{
		MigrationID:    filters.MigrationID,
		IterationID:    filters.IterationID,
		PlanMasterID:   filters.PlanMasterID,
		StatusName:     filters.Status,
		IncludeDeleted: filters.IncludeDeleted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	plans := make([]*primary.PlanInstance, len(records))
	for i, r := range records {
		plans[i] = &primary.PlanInstance{
			ID:            r.ID,
			PlanMasterID:  r.PlanMasterID,
			IterationID:   r.IterationID,
			IterationName: r.IterationName,
			Name:          r.Name,
			Description:   r.Description,
			Status:        recordToStatus(r.Status),
			DeletedAt:     r.DeletedAt,
			CreatedBy:     r.CreatedBy,
			CreatedAt:     r.CreatedAt,
		}
	}
	return plans, nil
}

// ListSequences lists the sequences of a plan instance in order.
func (s *InstanceServiceImpl) ListSequences(ctx context.Context, planInstanceID string, includeDeleted bool) ([]*primary.SequenceInstance, error) {
	if planInstanceID == "" {
		return nil, dberr.Validation("plan instance id is required")
	}
	records, err := s.sequenceRepo.ListInstances(ctx, planInstanceID, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list sequences: %w", err)
	}

	sequences := make([]*primary.SequenceInstance, len(records))
	for i, r := range records {
		sequences[i] = &primary.SequenceInstance{
			ID:               r.ID,
			SequenceMasterID: r.SequenceMasterID,
			PlanInstanceID:   r.PlanInstanceID,
			Name:             r.Name,
			Order:            r.Order,
			Status:           recordToStatus(r.Status),
			DeletedAt:        r.DeletedAt,
		}
	}
	return sequences, nil
}

// ListPhases lists the phases of a sequence instance in order.
func (s *InstanceServiceImpl) ListPhases(ctx context.Context, sequenceInstanceID string, includeDeleted bool) ([]*primary.PhaseInstance, error) {
	if sequenceInstanceID == "" {
		return nil, dberr.Validation("sequence instance id is required")
	}
	records, err := s.phaseRepo.ListInstances(ctx, sequenceInstanceID, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}

	phases := make([]*primary.PhaseInstance, len(records))
	for i, r := range records {
		phases[i] = &primary.PhaseInstance{
			ID:                 r.ID,
			PhaseMasterID:      r.PhaseMasterID,
			SequenceInstanceID: r.SequenceInstanceID,
			Name:               r.Name,
			Order:              r.Order,
			Status:             recordToStatus(r.Status),
			DeletedAt:          r.DeletedAt,
		}
	}
	return phases, nil
}

// ListSteps lists step instances under any ancestor.
func (s *InstanceServiceImpl) ListSteps(ctx context.Context, filters primary.StepFilters) ([]*primary.StepInstance, error) {
	records, err := s.stepRepo.ListInstances(ctx, secondary.StepInstanceFilters{
		MigrationID:        filters.MigrationID,
		IterationID:        filters.IterationID,
		PlanInstanceID:     filters.PlanInstanceID,
		SequenceInstanceID: filters.SequenceInstanceID,
		PhaseInstanceID:    filters.PhaseInstanceID,
		TeamID:             filters.TeamID,
		StatusName:         filters.Status,
		IncludeDeleted:     filters.IncludeDeleted,
		Limit:              filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}

	steps := make([]*primary.StepInstance, len(records))
	for i, r := range records {
		steps[i] = recordToStepInstance(r)
	}
	return steps, nil
}

// UpdateStatus sets the status of one row after checking the status belongs to its level.
func (s *InstanceServiceImpl) UpdateStatus(ctx context.Context, req primary.UpdateStatusRequest) error {
	level, err := hierarchy.ParseLevel(req.Level)
	if err != nil {
		return dberr.Validation("%v", err)
	}
	if req.ID == "" {
		return dberr.Validation("%s id is required", level)
	}

	status, err := resolveStatus(ctx, s.statusRepo, level, req.Status)
	if err != nil {
		return err
	}
	state, err := s.hierarchyRepo.State(ctx, string(level), req.ID)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", level, err)
	}

	result := hierarchy.CanAssignStatus(hierarchy.AssignStatusContext{
		Level:            level,
		TargetID:         req.ID,
		TargetExists:     state.Exists,
		TargetDeleted:    state.Deleted,
		StatusID:         status.ID,
		StatusExists:     true,
		StatusEntityType: status.EntityType,
	})
	if !result.Allowed {
		return result.Error()
	}

	if err := s.hierarchyRepo.UpdateStatus(ctx, string(level), req.ID, status.ID, ctxutil.ActorOrSystem(ctx)); err != nil {
		return err
	}
	s.logStatusChange(ctx, level, req.ID, state.StatusID, status.Name)
	return nil
}

// BulkUpdateStatus sets the status of many rows of one level in a single transaction.
// With ContinueOnError failing rows are reported and the rest commit; otherwise
// the first failure rolls back every row.
func (s *InstanceServiceImpl) BulkUpdateStatus(ctx context.Context, req primary.BulkStatusRequest) (*primary.BulkStatusResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "instance.bulk_update_status")
	defer span.End()

	level, err := hierarchy.ParseLevel(req.Level)
	if err != nil {
		return nil, dberr.Validation("%v", err)
	}
	if len(req.IDs) == 0 {
		return nil, dberr.Validation("at least one id is required")
	}
	span.SetAttributes(
		attribute.String("umig.level", string(level)),
		attribute.Int("umig.rows", len(req.IDs)),
		attribute.Bool("umig.continue_on_error", req.ContinueOnError),
	)

	status, err := resolveStatus(ctx, s.statusRepo, level, req.Status)
	if err != nil {
		return nil, err
	}

	result, err := s.hierarchyRepo.BulkUpdateStatus(ctx, string(level), req.IDs, status.ID,
		ctxutil.ActorOrSystem(ctx), req.ContinueOnError)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resp := &primary.BulkStatusResponse{
		Updated: result.Updated,
		Failed:  make([]primary.BulkStatusFailure, len(result.Failed)),
	}
	if resp.Updated == nil {
		resp.Updated = []string{}
	}
	for i, f := range result.Failed {
		resp.Failed[i] = primary.BulkStatusFailure{
			ID:       f.ID,
			Error:    f.Err.Error(),
			SQLState: dberr.SQLState(f.Err),
		}
	}
	for _, id := range result.Updated {
		s.logStatusChange(ctx, level, id, result.Previous[id], status.Name)
	}

	span.SetAttributes(attribute.Int("umig.rows_failed", len(resp.Failed)))
	if len(resp.Failed) > 0 {
		s.logger.Warn("bulk status update had failures",
			zap.String("level", string(level)),
			zap.Int("updated", len(resp.Updated)),
			zap.Int("failed", len(resp.Failed)),
		)
	}
	return resp, nil
}

// Delete soft-deletes a row, or removes it when Hard is set.
func (s *InstanceServiceImpl) Delete(ctx context.Context, level string, req primary.DeleteRequest) error {
	l, err := hierarchy.ParseLevel(level)
	if err != nil {
		return dberr.Validation("%v", err)
	}
	return deleteNode(ctx, s.hierarchyRepo, s.logWriter, l, req)
}

// Restore undoes a soft delete.
func (s *InstanceServiceImpl) Restore(ctx context.Context, level, id string) error {
	l, err := hierarchy.ParseLevel(level)
	if err != nil {
		return dberr.Validation("%v", err)
	}
	if id == "" {
		return dberr.Validation("%s id is required", l)
	}
	if err := s.hierarchyRepo.Restore(ctx, string(l), id, ctxutil.ActorOrSystem(ctx)); err != nil {
		return err
	}
	if s.logWriter != nil {
		_ = s.logWriter.LogUpdate(ctx, string(l), id, "deleted_at", "set", "")
	}
	return nil
}

// logStatusChange records the old and new status name in the audit trail.
func (s *InstanceServiceImpl) logStatusChange(ctx context.Context, level hierarchy.Level, id string, oldStatusID int, newStatus string) {
	if s.logWriter == nil {
		return
	}
	oldStatus := ""
	if oldStatusID != 0 {
		if old, err := s.statusRepo.GetByID(ctx, oldStatusID); err == nil {
			oldStatus = old.Name
		}
	}
	_ = s.logWriter.LogUpdate(ctx, string(level), id, "status", oldStatus, newStatus)
}

func recordToStepInstance(r *secondary.StepInstanceRecord) *primary.StepInstance {
	return &primary.StepInstance{
		ID:              r.ID,
		StepMasterID:    r.StepMasterID,
		PhaseInstanceID: r.PhaseInstanceID,
		Code:            notification.StepCode(r.TypeCode, r.Number),
		Name:            r.Name,
		Status:          recordToStatus(r.Status),
		TeamID:          r.TeamID,
		TeamName:        r.TeamName,
		StartedAt:       r.StartedAt,
		CompletedAt:     r.CompletedAt,
		DeletedAt:       r.DeletedAt,
		UpdatedBy:       r.UpdatedBy,
		UpdatedAt:       r.UpdatedAt,
		PhaseName:       r.PhaseName,
		SequenceName:    r.SequenceName,
		PlanName:        r.PlanName,
		IterationID:     r.IterationID,
		IterationName:   r.IterationName,
		MigrationID:     r.MigrationID,
		MigrationName:   r.MigrationName,
	}
}

// Ensure InstanceServiceImpl implements the interface
var _ primary.InstanceService = (*InstanceServiceImpl)(nil)
