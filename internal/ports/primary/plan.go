package primary

import "context"

// PlanService defines the primary port for plan templates and their instantiation.
type PlanService interface {
	// CreatePlanMaster creates a plan template.
	CreatePlanMaster(ctx context.Context, req CreatePlanMasterRequest) (*PlanMaster, error)

	// GetPlanMaster retrieves a plan template by ID.
	GetPlanMaster(ctx context.Context, id string) (*PlanMaster, error)

	// ListPlanMasters lists plan templates.
	ListPlanMasters(ctx context.Context, includeDeleted bool) ([]*PlanMaster, error)

	// UpdatePlanMaster updates a plan template. Empty fields are left unchanged.
	UpdatePlanMaster(ctx context.Context, req UpdatePlanMasterRequest) error

	// DeletePlanMaster soft-deletes a plan template, or removes it when Hard is set.
	DeletePlanMaster(ctx context.Context, req DeleteRequest) error

	// GetPlanTemplate returns the live master tree of a plan template.
	GetPlanTemplate(ctx context.Context, planMasterID string) (*PlanTemplate, error)

	// AddSequence appends a sequence template to a plan template.
	AddSequence(ctx context.Context, req AddSequenceRequest) (*SequenceMaster, error)

	// AddPhase appends a phase template to a sequence template.
	AddPhase(ctx context.Context, req AddPhaseRequest) (*PhaseMaster, error)

	// AddStep adds a step template to a phase template.
	AddStep(ctx context.Context, req AddStepRequest) (*StepMaster, error)

	// AddInstruction appends an instruction template to a step template.
	AddInstruction(ctx context.Context, req AddInstructionRequest) (*InstructionMaster, error)

	// InstantiatePlan copies a plan template into an iteration.
	InstantiatePlan(ctx context.Context, req InstantiatePlanRequest) (*InstantiatePlanResponse, error)
}

// CreatePlanMasterRequest contains parameters for creating a plan template.
type CreatePlanMasterRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	TeamID      string `json:"teamId"`
}

// UpdatePlanMasterRequest contains parameters for updating a plan template.
type UpdatePlanMasterRequest struct {
	ID          string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TeamID      string `json:"teamId"`
}

// PlanMaster represents a plan template at the port boundary.
type PlanMaster struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	TeamID      string  `json:"teamId,omitempty"`
	Status      *Status `json:"status,omitempty"`
	DeletedAt   string  `json:"deletedAt,omitempty"`
	CreatedBy   string  `json:"createdBy,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
	UpdatedAt   string  `json:"updatedAt,omitempty"`
}

// AddSequenceRequest contains parameters for adding a sequence template.
// Order 0 appends after the last sequence.
type AddSequenceRequest struct {
	PlanMasterID  string `json:"planMasterId" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	Order         int    `json:"order"`
	PredecessorID string `json:"predecessorId"`
}

// SequenceMaster represents a sequence template.
type SequenceMaster struct {
	ID            string         `json:"id"`
	PlanMasterID  string         `json:"planMasterId"`
	Order         int            `json:"order"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	PredecessorID string         `json:"predecessorId,omitempty"`
	Phases        []*PhaseMaster `json:"phases,omitempty"`
}

// AddPhaseRequest contains parameters for adding a phase template.
type AddPhaseRequest struct {
	SequenceMasterID string `json:"sequenceMasterId" binding:"required"`
	Name             string `json:"name" binding:"required"`
	Description      string `json:"description"`
	Order            int    `json:"order"`
	PredecessorID    string `json:"predecessorId"`
}

// PhaseMaster represents a phase template.
type PhaseMaster struct {
	ID               string        `json:"id"`
	SequenceMasterID string        `json:"sequenceMasterId"`
	Order            int           `json:"order"`
	Name             string        `json:"name"`
	Description      string        `json:"description,omitempty"`
	PredecessorID    string        `json:"predecessorId,omitempty"`
	Steps            []*StepMaster `json:"steps,omitempty"`
}

// AddStepRequest contains parameters for adding a step template.
// Number 0 takes the next free number for the type code.
type AddStepRequest struct {
	PhaseMasterID   string `json:"phaseMasterId" binding:"required"`
	TeamID          string `json:"teamId"`
	TypeCode        string `json:"typeCode" binding:"required"`
	Number          int    `json:"number"`
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"durationMinutes"`
}

// StepMaster represents a step template.
type StepMaster struct {
	ID              string               `json:"id"`
	PhaseMasterID   string               `json:"phaseMasterId"`
	TeamID          string               `json:"teamId,omitempty"`
	Code            string               `json:"code"`
	TypeCode        string               `json:"typeCode"`
	Number          int                  `json:"number"`
	Name            string               `json:"name"`
	Description     string               `json:"description,omitempty"`
	DurationMinutes int                  `json:"durationMinutes,omitempty"`
	Instructions    []*InstructionMaster `json:"instructions,omitempty"`
}

// AddInstructionRequest contains parameters for adding an instruction template.
type AddInstructionRequest struct {
	StepMasterID    string `json:"stepMasterId" binding:"required"`
	Body            string `json:"body" binding:"required"`
	TeamID          string `json:"teamId"`
	Order           int    `json:"order"`
	DurationMinutes int    `json:"durationMinutes"`
}

// InstructionMaster represents an instruction template.
type InstructionMaster struct {
	ID              string `json:"id"`
	StepMasterID    string `json:"stepMasterId"`
	Order           int    `json:"order"`
	Body            string `json:"body"`
	TeamID          string `json:"teamId,omitempty"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
}

// PlanTemplate is a plan template with its live master tree.
type PlanTemplate struct {
	Plan      *PlanMaster       `json:"plan"`
	Sequences []*SequenceMaster `json:"sequences"`
}

// InstantiatePlanRequest contains parameters for instantiating a plan.
type InstantiatePlanRequest struct {
	PlanMasterID string `json:"-"`
	IterationID  string `json:"iterationId" binding:"required"`
	Name         string `json:"name"`
}

// InstantiatePlanResponse reports what an instantiation created.
type InstantiatePlanResponse struct {
	PlanInstanceID string `json:"planInstanceId"`
	Sequences      int    `json:"sequences"`
	Phases         int    `json:"phases"`
	Steps          int    `json:"steps"`
	Instructions   int    `json:"instructions"`
}
