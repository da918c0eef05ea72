package primary

import "context"

// InstanceService defines the primary port for the running hierarchy:
// listing instances level by level and changing their status in bulk.
type InstanceService interface {
	// ListPlans lists plan instances under the given ancestors.
	ListPlans(ctx context.Context, filters PlanInstanceFilters) ([]*PlanInstance, error)

	// ListSequences lists the sequences of a plan instance in order.
	ListSequences(ctx context.Context, planInstanceID string, includeDeleted bool) ([]*SequenceInstance, error)

	// ListPhases lists the phases of a sequence instance in order.
	ListPhases(ctx context.Context, sequenceInstanceID string, includeDeleted bool) ([]*PhaseInstance, error)

	// ListSteps lists step instances under any ancestor.
	ListSteps(ctx context.Context, filters StepFilters) ([]*StepInstance, error)

	// UpdateStatus sets the status of one row.
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) error

	// BulkUpdateStatus sets the status of many rows of one level in a single transaction.
	BulkUpdateStatus(ctx context.Context, req BulkStatusRequest) (*BulkStatusResponse, error)

	// Delete soft-deletes a row, or removes it when Hard is set.
	Delete(ctx context.Context, level string, req DeleteRequest) error

	// Restore undoes a soft delete.
	Restore(ctx context.Context, level, id string) error
}

// PlanInstanceFilters contains filter options for listing plan instances.
type PlanInstanceFilters struct {
	MigrationID    string `form:"migrationId" validate:"omitempty,max=64"`
	IterationID    string `form:"iterationId" validate:"omitempty,max=64"`
	PlanMasterID   string `form:"planMasterId" validate:"omitempty,max=64"`
	Status         string `form:"status" validate:"omitempty,alpha_underscore"`
	IncludeDeleted bool   `form:"includeDeleted"`
}

// PlanInstance represents a plan applied to an iteration.
type PlanInstance struct {
	ID            string  `json:"id"`
	PlanMasterID  string  `json:"planMasterId"`
	IterationID   string  `json:"iterationId"`
	IterationName string  `json:"iterationName,omitempty"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Status        *Status `json:"status,omitempty"`
	DeletedAt     string  `json:"deletedAt,omitempty"`
	CreatedBy     string  `json:"createdBy,omitempty"`
	CreatedAt     string  `json:"createdAt,omitempty"`
}

// SequenceInstance represents a sequence within a plan instance.
type SequenceInstance struct {
	ID               string  `json:"id"`
	SequenceMasterID string  `json:"sequenceMasterId"`
	PlanInstanceID   string  `json:"planInstanceId"`
	Name             string  `json:"name"`
	Order            int     `json:"order"`
	Status           *Status `json:"status,omitempty"`
	DeletedAt        string  `json:"deletedAt,omitempty"`
}

// PhaseInstance represents a phase within a sequence instance.
type PhaseInstance struct {
	ID                 string  `json:"id"`
	PhaseMasterID      string  `json:"phaseMasterId"`
	SequenceInstanceID string  `json:"sequenceInstanceId"`
	Name               string  `json:"name"`
	Order              int     `json:"order"`
	Status             *Status `json:"status,omitempty"`
	DeletedAt          string  `json:"deletedAt,omitempty"`
}

// StepFilters narrows step instances by any ancestor.
type StepFilters struct {
	MigrationID        string `form:"migrationId" validate:"omitempty,max=64"`
	IterationID        string `form:"iterationId" validate:"omitempty,max=64"`
	PlanInstanceID     string `form:"planInstanceId" validate:"omitempty,max=64"`
	SequenceInstanceID string `form:"sequenceInstanceId" validate:"omitempty,max=64"`
	PhaseInstanceID    string `form:"phaseInstanceId" validate:"omitempty,max=64"`
	TeamID             string `form:"teamId" validate:"omitempty,max=64"`
	Status             string `form:"status" validate:"omitempty,alpha_underscore"`
	IncludeDeleted     bool   `form:"includeDeleted"`
	Limit              int    `form:"limit" validate:"gte=0,lte=1000"`
}

// StepInstance is a step with its ancestor names. Ancestors are empty
// when the chain is broken.
type StepInstance struct {
	ID              string  `json:"id"`
	StepMasterID    string  `json:"stepMasterId"`
	PhaseInstanceID string  `json:"phaseInstanceId"`
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Status          *Status `json:"status,omitempty"`
	TeamID          string  `json:"teamId,omitempty"`
	TeamName        string  `json:"teamName,omitempty"`
	StartedAt       string  `json:"startedAt,omitempty"`
	CompletedAt     string  `json:"completedAt,omitempty"`
	DeletedAt       string  `json:"deletedAt,omitempty"`
	UpdatedBy       string  `json:"updatedBy,omitempty"`
	UpdatedAt       string  `json:"updatedAt,omitempty"`

	PhaseName     string `json:"phaseName"`
	SequenceName  string `json:"sequenceName"`
	PlanName      string `json:"planName"`
	IterationID   string `json:"iterationId,omitempty"`
	IterationName string `json:"iterationName"`
	MigrationID   string `json:"migrationId,omitempty"`
	MigrationName string `json:"migrationName"`
}

// UpdateStatusRequest sets one row's status by status name.
type UpdateStatusRequest struct {
	Level  string `json:"-"`
	ID     string `json:"-"`
	Status string `json:"status" binding:"required"`
}

// BulkStatusRequest sets the status of many rows of one level.
type BulkStatusRequest struct {
	Level           string   `json:"level" binding:"required"`
	IDs             []string `json:"ids" binding:"required,min=1"`
	Status          string   `json:"status" binding:"required"`
	ContinueOnError bool     `json:"continueOnError"`
}

// BulkStatusFailure is one row that could not be updated.
type BulkStatusFailure struct {
	ID       string `json:"id"`
	Error    string `json:"error"`
	SQLState string `json:"sqlState,omitempty"`
}

// BulkStatusResponse reports the outcome of a bulk status update.
type BulkStatusResponse struct {
	Updated []string            `json:"updated"`
	Failed  []BulkStatusFailure `json:"failed"`
}
