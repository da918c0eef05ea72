package primary

import "context"

// StepService defines the primary port for working a single step instance.
// Every state change is audited and triggers the matching notification.
type StepService interface {
	// GetStepDetails retrieves a step with instructions and recent comments.
	GetStepDetails(ctx context.Context, stepID string) (*StepDetails, error)

	// OpenStep moves a PENDING step to TODO and notifies the owning team.
	OpenStep(ctx context.Context, stepID string) error

	// ChangeStatus sets the step status by name and notifies the owning team.
	ChangeStatus(ctx context.Context, req ChangeStepStatusRequest) error

	// AssignTeam overrides the owning team of a step.
	AssignTeam(ctx context.Context, stepID, teamID string) error

	// AddComment adds a comment to a step.
	AddComment(ctx context.Context, req AddCommentRequest) (*Comment, error)

	// UpdateComment replaces the body of a comment.
	UpdateComment(ctx context.Context, commentID int64, body string) error

	// DeleteComment removes a comment.
	DeleteComment(ctx context.Context, commentID int64) error

	// CompleteInstruction marks an instruction done and notifies the owning team.
	CompleteInstruction(ctx context.Context, instructionID string) error

	// UncompleteInstruction reopens a completed instruction.
	UncompleteInstruction(ctx context.Context, instructionID string) error
}

// ChangeStepStatusRequest contains parameters for a step status change.
type ChangeStepStatusRequest struct {
	StepID string `json:"-"`
	Status string `json:"status" binding:"required"`
}

// AddCommentRequest contains parameters for adding a comment.
type AddCommentRequest struct {
	StepID string `json:"-"`
	Body   string `json:"body" binding:"required"`
}

// Comment represents a step comment at the port boundary.
type Comment struct {
	ID        int64  `json:"id"`
	StepID    string `json:"stepId"`
	Body      string `json:"body"`
	Author    string `json:"author"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Instruction represents an instruction instance at the port boundary.
type Instruction struct {
	ID          string `json:"id"`
	Order       int    `json:"order"`
	Body        string `json:"body"`
	IsCompleted bool   `json:"isCompleted"`
	CompletedBy string `json:"completedBy,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
}

// StepDetails is a step enriched with its children.
type StepDetails struct {
	Step           *StepInstance  `json:"step"`
	TeamEmail      string         `json:"teamEmail,omitempty"`
	Instructions   []*Instruction `json:"instructions"`
	RecentComments []*Comment     `json:"recentComments"`
}
