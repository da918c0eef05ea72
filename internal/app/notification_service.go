package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/umig/internal/core/notification"
	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/logging"
	"github.com/example/umig/internal/metrics"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/ports/secondary"
	"github.com/example/umig/internal/telemetry"
	"github.com/example/umig/internal/templates"
)

// NotificationSettings tunes URL construction and outbox dispatch.
type NotificationSettings struct {
	BaseURL     string
	From        string
	Concurrency int
	MaxAttempts int
	BatchSize   int
}

const (
	defaultDispatchConcurrency = 4
	defaultMaxAttempts         = 3
	defaultDispatchBatch       = 100
)

// NotificationServiceImpl implements the NotificationService interface.
type NotificationServiceImpl struct {
	stepRepo     secondary.StepRepository
	templateRepo secondary.EmailTemplateRepository
	outboxRepo   secondary.EmailOutboxRepository
	sender       secondary.EmailSender
	settings     NotificationSettings
	logger       *zap.Logger
	now          func() time.Time
}

// NewNotificationService creates a new NotificationService with injected dependencies.
func NewNotificationService(
	stepRepo secondary.StepRepository,
	templateRepo secondary.EmailTemplateRepository,
	outboxRepo secondary.EmailOutboxRepository,
	sender secondary.EmailSender,
	settings NotificationSettings,
	logger *zap.Logger,
) *NotificationServiceImpl {
	if settings.Concurrency <= 0 {
		settings.Concurrency = defaultDispatchConcurrency
	}
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = defaultMaxAttempts
	}
	if settings.BatchSize <= 0 {
		settings.BatchSize = defaultDispatchBatch
	}
	return &NotificationServiceImpl{
		stepRepo:     stepRepo,
		templateRepo: templateRepo,
		outboxRepo:   outboxRepo,
		sender:       sender,
		settings:     settings,
		logger:       logging.OrNop(logger),
		now:          time.Now,
	}
}

// Notify renders the notification for a step and enqueues it in the outbox.
// A step whose team has no e-mail address, or a type without an active
// template, is skipped with a warning rather than failing.
func (s *NotificationServiceImpl) Notify(ctx context.Context, req primary.NotifyRequest) (*primary.NotifyResponse, error) {
	details, result, err := s.buildVariables(ctx, req)
	if err != nil {
		return nil, err
	}
	resp := &primary.NotifyResponse{Warnings: result.Warnings, Recipients: []string{}}

	if details.Step.TeamEmail == "" {
		resp.Skipped = true
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("step %s has no team e-mail address", req.StepID))
		s.logger.Warn("notification skipped: no recipient", zap.String("step_id", req.StepID), zap.String("type", req.Type))
		return resp, nil
	}
	resp.Recipients = []string{details.Step.TeamEmail}

	tmpl, err := s.templateRepo.GetActive(ctx, req.Type)
	if err != nil {
		if dberr.IsNotFound(err) {
			resp.Skipped = true
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("no active template for %s", req.Type))
			s.logger.Warn("notification skipped: no template", zap.String("step_id", req.StepID), zap.String("type", req.Type))
			return resp, nil
		}
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	rendered, err := notification.Render(tmpl.Subject, tmpl.BodyHTML, result.Variables)
	if err != nil {
		return nil, err
	}
	variables, err := json.Marshal(result.Variables)
	if err != nil {
		return nil, fmt.Errorf("failed to encode variables: %w", err)
	}

	entry := &secondary.OutboxRecord{
		ID:               uuid.NewString(),
		NotificationType: req.Type,
		EntityType:       "step",
		EntityID:         req.StepID,
		Recipients:       resp.Recipients,
		Subject:          rendered.Subject,
		BodyHTML:         rendered.BodyHTML,
		Variables:        string(variables),
		Status:           secondary.OutboxPending,
	}
	if err := s.outboxRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	metrics.NotificationsEnqueued.WithLabelValues(req.Type).Inc()
	s.logger.Debug("notification enqueued",
		zap.String("outbox_id", entry.ID),
		zap.String("step_id", req.StepID),
		zap.String("type", req.Type),
	)
	resp.OutboxID = entry.ID
	return resp, nil
}

// PreviewVariables builds the template variables without enqueuing anything.
func (s *NotificationServiceImpl) PreviewVariables(ctx context.Context, req primary.NotifyRequest) (*primary.VariablesPreview, error) {
	_, result, err := s.buildVariables(ctx, req)
	if err != nil {
		return nil, err
	}
	return &primary.VariablesPreview{Variables: result.Variables, Warnings: result.Warnings}, nil
}

// buildVariables loads the step and aggregates the variable bag.
// Parameters are validated before the step is read.
func (s *NotificationServiceImpl) buildVariables(ctx context.Context, req primary.NotifyRequest) (*secondary.StepDetailsRecord, *notification.Result, error) {
	if req.StepID == "" {
		return nil, nil, dberr.Validation("step id is required")
	}
	if req.Type == "" {
		return nil, nil, dberr.Validation("notification type is required")
	}

	details, err := s.stepRepo.GetDetails(ctx, req.StepID, notification.DefaultMaxComments)
	if err != nil {
		return nil, nil, err
	}

	result, err := notification.BuildVariables(detailsToSnapshot(details), notification.Type(req.Type), notification.Extra{
		PreviousStatus: req.PreviousStatus,
		NewStatus:      req.NewStatus,
		CompletedBy:    req.CompletedBy,
		CompletedAt:    req.CompletedAt,
		Instruction:    req.Instruction,
	}, notification.Options{
		BaseURL: s.settings.BaseURL,
		Now:     s.now(),
	})
	if err != nil {
		return nil, nil, err
	}
	for _, w := range result.Warnings {
		s.logger.Warn("notification variables", zap.String("step_id", req.StepID), zap.String("warning", w))
	}
	return details, result, nil
}

// DispatchPending delivers deliverable outbox rows with bounded concurrency.
// Delivery failures are recorded on the row; only a cancelled context or a
// store failure aborts the run.
func (s *NotificationServiceImpl) DispatchPending(ctx context.Context) (*primary.DispatchResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "notification.dispatch")
	defer span.End()

	entries, err := s.outboxRepo.ListDeliverable(ctx, s.settings.MaxAttempts, s.settings.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox: %w", err)
	}
	span.SetAttributes(attribute.Int("umig.outbox_rows", len(entries)))

	var sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.Concurrency)
	for _, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sendErr := s.sender.Send(gctx, secondary.EmailMessage{
				From:     s.settings.From,
				To:       entry.Recipients,
				Subject:  entry.Subject,
				BodyHTML: entry.BodyHTML,
			})
			if sendErr != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				metrics.OutboxDispatched.WithLabelValues(metrics.ResultFailed).Inc()
				s.logger.Warn("e-mail delivery failed",
					zap.String("outbox_id", entry.ID),
					zap.Int("attempt", entry.Attempts+1),
					zap.Error(sendErr),
				)
				return s.outboxRepo.MarkFailed(gctx, entry.ID, sendErr.Error())
			}
			sent.Add(1)
			metrics.OutboxDispatched.WithLabelValues(metrics.ResultSent).Inc()
			return s.outboxRepo.MarkSent(gctx, entry.ID)
		})
	}
	waitErr := g.Wait()

	result := &primary.DispatchResult{
		Attempted: int(sent.Load() + failed.Load()),
		Sent:      int(sent.Load()),
		Failed:    int(failed.Load()),
	}
	span.SetAttributes(attribute.Int("umig.sent", result.Sent), attribute.Int("umig.failed", result.Failed))
	if waitErr != nil {
		span.RecordError(waitErr)
		return result, fmt.Errorf("dispatch interrupted: %w", waitErr)
	}
	if result.Attempted > 0 {
		s.logger.Info("outbox dispatched", zap.Int("sent", result.Sent), zap.Int("failed", result.Failed))
	}
	return result, nil
}

// EnsureDefaultTemplates installs the built-in template for every type without an active one.
func (s *NotificationServiceImpl) EnsureDefaultTemplates(ctx context.Context) (int, error) {
	defaults, err := templates.DefaultEmailTemplates()
	if err != nil {
		return 0, err
	}

	installed := 0
	for _, d := range defaults {
		_, err := s.templateRepo.GetActive(ctx, d.NotificationType)
		if err == nil {
			continue
		}
		if !dberr.IsNotFound(err) {
			return installed, fmt.Errorf("failed to check template %s: %w", d.NotificationType, err)
		}
		if err := s.templateRepo.Upsert(ctx, &secondary.EmailTemplateRecord{
			ID:               uuid.NewString(),
			NotificationType: d.NotificationType,
			Name:             d.Name,
			Subject:          d.Subject,
			BodyHTML:         d.BodyHTML,
			IsActive:         true,
		}); err != nil {
			return installed, err
		}
		installed++
	}
	return installed, nil
}

// ListOutbox lists outbox rows.
func (s *NotificationServiceImpl) ListOutbox(ctx context.Context, filters primary.OutboxFilters) ([]*primary.OutboxEntry, error) {
	records, err := s.outboxRepo.List(ctx, secondary.OutboxFilters{
		Status:           filters.Status,
		NotificationType: filters.NotificationType,
		EntityID:         filters.EntityID,
		Limit:            filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox: %w", err)
	}
	entries := make([]*primary.OutboxEntry, len(records))
	for i, r := range records {
		entries[i] = recordToOutboxEntry(r)
	}
	return entries, nil
}

// detailsToSnapshot flattens the enriched step into the notification input.
func detailsToSnapshot(d *secondary.StepDetailsRecord) *notification.StepSnapshot {
	step := d.Step
	snapshot := &notification.StepSnapshot{
		ID:          step.ID,
		Code:        notification.StepCode(step.TypeCode, step.Number),
		Name:        step.Name,
		Team:        step.TeamName,
		MigrationID: step.MigrationID,
		Migration:   step.MigrationName,
		IterationID: step.IterationID,
		Iteration:   step.IterationName,
	}
	if step.Status != nil {
		snapshot.Status = step.Status.Name
		snapshot.StatusColor = step.Status.Color
	}
	for _, in := range d.Instructions {
		snapshot.Instructions = append(snapshot.Instructions, notification.InstructionSummary{
			ID:        in.ID,
			Order:     in.Order,
			Body:      in.Body,
			Completed: in.IsCompleted,
		})
	}
	for _, c := range d.RecentComments {
		snapshot.Comments = append(snapshot.Comments, notification.CommentSummary{
			Author:    c.Author,
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
		})
	}
	return snapshot
}

func recordToOutboxEntry(r *secondary.OutboxRecord) *primary.OutboxEntry {
	recipients := r.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	return &primary.OutboxEntry{
		ID:               r.ID,
		NotificationType: r.NotificationType,
		EntityType:       r.EntityType,
		EntityID:         r.EntityID,
		Recipients:       recipients,
		Subject:          r.Subject,
		BodyHTML:         r.BodyHTML,
		Status:           r.Status,
		Attempts:         r.Attempts,
		LastError:        r.LastError,
		CreatedAt:        r.CreatedAt,
		SentAt:           r.SentAt,
	}
}

// Ensure NotificationServiceImpl implements the interface
var _ primary.NotificationService = (*NotificationServiceImpl)(nil)
