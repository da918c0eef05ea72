package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/umig/internal/core/hierarchy"
	"github.com/example/umig/internal/core/notification"
	"github.com/example/umig/internal/ctxutil"
	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/logging"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/ports/secondary"
)

// Step status names driving the open transition.
const (
	stepStatusPending = "PENDING"
	stepStatusTodo    = "TODO"
)

// StepServiceImpl implements the StepService interface.
type StepServiceImpl struct {
	stepRepo        secondary.StepRepository
	instructionRepo secondary.InstructionRepository
	commentRepo     secondary.CommentRepository
	statusRepo      secondary.StatusRepository
	hierarchyRepo   secondary.HierarchyRepository
	notifier        primary.NotificationService
	logWriter       secondary.LogWriter
	logger          *zap.Logger
	now             func() time.Time
}

// NewStepService creates a new StepService with injected dependencies.
// notifier may be nil, in which case no notifications are sent.
func NewStepService(
	stepRepo secondary.StepRepository,
	instructionRepo secondary.InstructionRepository,
	commentRepo secondary.CommentRepository,
	statusRepo secondary.StatusRepository,
	hierarchyRepo secondary.HierarchyRepository,
	notifier primary.NotificationService,
	logWriter secondary.LogWriter,
	logger *zap.Logger,
) *StepServiceImpl {
	return &StepServiceImpl{
		stepRepo:        stepRepo,
		instructionRepo: instructionRepo,
		commentRepo:     commentRepo,
		statusRepo:      statusRepo,
		hierarchyRepo:   hierarchyRepo,
		notifier:        notifier,
		logWriter:       logWriter,
		logger:          logging.OrNop(logger),
		now:             time.Now,
	}
}

// GetStepDetails retrieves a step with instructions and recent comments.
func (s *StepServiceImpl) GetStepDetails(ctx context.Context, stepID string) (*primary.StepDetails, error) {
	if stepID == "" {
		return nil, dberr.Validation("step id is required")
	}
	record, err := s.stepRepo.GetDetails(ctx, stepID, notification.DefaultMaxComments)
	if err != nil {
		return nil, err
	}

	details := &primary.StepDetails{
		Step:           recordToStepInstance(record.Step),
		TeamEmail:      record.Step.TeamEmail,
		Instructions:   make([]*primary.Instruction, len(record.Instructions)),
		RecentComments: make([]*primary.Comment, len(record.RecentComments)),
	}
	for i, in := range record.Instructions {
		details.Instructions[i] = &primary.Instruction{
			ID:          in.ID,
			Order:       in.Order,
			Body:        in.Body,
			IsCompleted: in.IsCompleted,
			CompletedBy: in.CompletedBy,
			CompletedAt: in.CompletedAt,
		}
	}
	for i, c := range record.RecentComments {
		details.RecentComments[i] = recordToComment(c)
	}
	return details, nil
}

// OpenStep moves a PENDING step to TODO and notifies the owning team.
func (s *StepServiceImpl) OpenStep(ctx context.Context, stepID string) error {
	step, err := s.liveStep(ctx, stepID)
	if err != nil {
		return err
	}
	current := statusName(step.Status)
	if current != stepStatusPending {
		return dberr.Validation("step %s is %s, only %s steps can be opened", stepID, current, stepStatusPending)
	}

	if err := s.setStatus(ctx, step, stepStatusTodo); err != nil {
		return err
	}
	s.notify(ctx, primary.NotifyRequest{StepID: stepID, Type: string(notification.TypeOpened)})
	return nil
}

// ChangeStatus sets the step status by name and notifies the owning team.
// Setting the current status again is a no-op.
func (s *StepServiceImpl) ChangeStatus(ctx context.Context, req primary.ChangeStepStatusRequest) error {
	step, err := s.liveStep(ctx, req.StepID)
	if err != nil {
		return err
	}
	previous := statusName(step.Status)
	if previous == req.Status {
		return nil
	}

	if err := s.setStatus(ctx, step, req.Status); err != nil {
		return err
	}
	s.notify(ctx, primary.NotifyRequest{
		StepID:         req.StepID,
		Type:           string(notification.TypeStatusChanged),
		PreviousStatus: previous,
		NewStatus:      req.Status,
	})
	return nil
}

// AssignTeam overrides the owning team of a step.
func (s *StepServiceImpl) AssignTeam(ctx context.Context, stepID, teamID string) error {
	if stepID == "" || teamID == "" {
		return dberr.Validation("step id and team id are required")
	}
	return s.stepRepo.AssignTeam(ctx, stepID, teamID, ctxutil.ActorOrSystem(ctx))
}

// AddComment adds a comment to a live step.
func (s *StepServiceImpl) AddComment(ctx context.Context, req primary.AddCommentRequest) (*primary.Comment, error) {
	if req.Body == "" {
		return nil, dberr.Validation("comment body is required")
	}
	guardCtx := hierarchy.CreateChildContext{
		ChildLevel:  "comment",
		ParentLevel: hierarchy.LevelStep,
		ParentID:    req.StepID,
	}
	if req.StepID != "" {
		state, err := s.hierarchyRepo.State(ctx, string(hierarchy.LevelStep), req.StepID)
		if err != nil {
			return nil, fmt.Errorf("failed to read step: %w", err)
		}
		guardCtx.ParentExists = state.Exists
		guardCtx.ParentDeleted = state.Deleted
	}
	if result := hierarchy.CanCreateChild(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	record := &secondary.CommentRecord{
		StepInstanceID: req.StepID,
		Body:           req.Body,
		Author:         ctxutil.ActorOrSystem(ctx),
	}
	if err := s.commentRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	created, err := s.commentRepo.GetByID(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created comment: %w", err)
	}
	return recordToComment(created), nil
}

// UpdateComment replaces the body of a comment.
func (s *StepServiceImpl) UpdateComment(ctx context.Context, commentID int64, body string) error {
	if body == "" {
		return dberr.Validation("comment body is required")
	}
	return s.commentRepo.Update(ctx, commentID, body)
}

// DeleteComment removes a comment.
func (s *StepServiceImpl) DeleteComment(ctx context.Context, commentID int64) error {
	return s.commentRepo.Delete(ctx, commentID)
}

// CompleteInstruction marks an instruction done and notifies the owning team.
func (s *StepServiceImpl) CompleteInstruction(ctx context.Context, instructionID string) error {
	instruction, err := s.checkInstruction(ctx, instructionID, true)
	if err != nil {
		return err
	}

	actor := ctxutil.ActorOrSystem(ctx)
	if err := s.instructionRepo.SetCompleted(ctx, instructionID, true, actor); err != nil {
		return err
	}
	s.notify(ctx, primary.NotifyRequest{
		StepID:      instruction.StepInstanceID,
		Type:        string(notification.TypeInstructionCompleted),
		CompletedBy: actor,
		CompletedAt: s.now().UTC().Format(time.RFC3339),
		Instruction: instruction.Body,
	})
	return nil
}

// UncompleteInstruction reopens a completed instruction.
func (s *StepServiceImpl) UncompleteInstruction(ctx context.Context, instructionID string) error {
	if _, err := s.checkInstruction(ctx, instructionID, false); err != nil {
		return err
	}
	return s.instructionRepo.SetCompleted(ctx, instructionID, false, ctxutil.ActorOrSystem(ctx))
}

// Helper methods

// liveStep loads a step and rejects soft-deleted ones.
func (s *StepServiceImpl) liveStep(ctx context.Context, stepID string) (*secondary.StepInstanceRecord, error) {
	if stepID == "" {
		return nil, dberr.Validation("step id is required")
	}
	step, err := s.stepRepo.GetInstance(ctx, stepID)
	if err != nil {
		return nil, err
	}
	if step.DeletedAt != "" {
		return nil, dberr.Validation("step %s is deleted", stepID)
	}
	return step, nil
}

// setStatus applies the status guard, updates the row and audits the change.
func (s *StepServiceImpl) setStatus(ctx context.Context, step *secondary.StepInstanceRecord, name string) error {
	status, err := resolveStatus(ctx, s.statusRepo, hierarchy.LevelStep, name)
	if err != nil {
		return err
	}
	result := hierarchy.CanAssignStatus(hierarchy.AssignStatusContext{
		Level:            hierarchy.LevelStep,
		TargetID:         step.ID,
		TargetExists:     true,
		TargetDeleted:    step.DeletedAt != "",
		StatusID:         status.ID,
		StatusExists:     true,
		StatusEntityType: status.EntityType,
	})
	if !result.Allowed {
		return result.Error()
	}

	if err := s.hierarchyRepo.UpdateStatus(ctx, string(hierarchy.LevelStep), step.ID, status.ID, ctxutil.ActorOrSystem(ctx)); err != nil {
		return err
	}
	if s.logWriter != nil {
		_ = s.logWriter.LogUpdate(ctx, string(hierarchy.LevelStep), step.ID, "status", statusName(step.Status), status.Name)
	}
	return nil
}

// checkInstruction evaluates the completion guard for an instruction.
func (s *StepServiceImpl) checkInstruction(ctx context.Context, instructionID string, complete bool) (*secondary.InstructionInstanceRecord, error) {
	if instructionID == "" {
		return nil, dberr.Validation("instruction id is required")
	}
	guardCtx := hierarchy.CompleteInstructionContext{
		InstructionID: instructionID,
		Complete:      complete,
	}

	instruction, err := s.instructionRepo.GetInstance(ctx, instructionID)
	if err != nil && !dberr.IsNotFound(err) {
		return nil, err
	}
	if instruction != nil {
		guardCtx.Exists = true
		guardCtx.Deleted = instruction.DeletedAt != ""
		guardCtx.IsCompleted = instruction.IsCompleted

		step, err := s.stepRepo.GetInstance(ctx, instruction.StepInstanceID)
		if err != nil {
			return nil, fmt.Errorf("failed to read owning step: %w", err)
		}
		guardCtx.StepStatus = statusName(step.Status)
	}

	if result := hierarchy.CanCompleteInstruction(guardCtx); !result.Allowed {
		return nil, result.Error()
	}
	return instruction, nil
}

// notify enqueues a notification. Failures are logged and never fail the caller.
func (s *StepServiceImpl) notify(ctx context.Context, req primary.NotifyRequest) {
	if s.notifier == nil {
		return
	}
	resp, err := s.notifier.Notify(ctx, req)
	if err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("step_id", req.StepID),
			zap.String("type", req.Type),
			zap.Error(err),
		)
		return
	}
	if resp.Skipped {
		s.logger.Debug("notification skipped", zap.String("step_id", req.StepID), zap.Strings("warnings", resp.Warnings))
	}
}

func recordToComment(r *secondary.CommentRecord) *primary.Comment {
	return &primary.Comment{
		ID:        r.ID,
		StepID:    r.StepInstanceID,
		Body:      r.Body,
		Author:    r.Author,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Ensure StepServiceImpl implements the interface
var _ primary.StepService = (*StepServiceImpl)(nil)
