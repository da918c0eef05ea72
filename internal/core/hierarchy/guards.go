package hierarchy

import (
	"fmt"

	"github.com/example/umig/internal/dberr"
)

// GuardResult represents the outcome of a guard evaluation.
// Reason is the display text of a refusal and is always set when Allowed is
// false. Callers that propagate the refusal use Error(), never Err directly.
type GuardResult struct {
	Allowed bool
	Reason  string
	Err     error // classified cause (not found, foreign key); nil means validation
}

// Error converts the guard result to an error if not allowed: Err when
// set, otherwise a validation error carrying Reason.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	return dberr.Validation("%s", r.Reason)
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(format string, args ...any) GuardResult {
	return GuardResult{Reason: fmt.Sprintf(format, args...)}
}

func denyWith(err error) GuardResult {
	return GuardResult{Reason: err.Error(), Err: err}
}

// InstantiatePlanContext provides context for plan instantiation guards.
type InstantiatePlanContext struct {
	PlanMasterID     string
	MasterExists     bool
	MasterDeleted    bool
	IterationID      string
	IterationExists  bool
	IterationDeleted bool
}

// CanInstantiatePlan evaluates whether a plan master can be copied into an iteration.
// Rules:
// - Plan master must exist and not be soft-deleted
// - Iteration must exist (a missing iteration is a referential violation) and not be soft-deleted
func CanInstantiatePlan(ctx InstantiatePlanContext) GuardResult {
	if ctx.PlanMasterID == "" || ctx.IterationID == "" {
		return deny("plan master and iteration are required")
	}
	if !ctx.MasterExists {
		return denyWith(dberr.NotFound("plan master", ctx.PlanMasterID))
	}
	if ctx.MasterDeleted {
		return deny("plan master %s is deleted and cannot be instantiated", ctx.PlanMasterID)
	}
	if !ctx.IterationExists {
		return denyWith(dberr.ForeignKeyViolation("plan instance", dberr.OpCreate,
			fmt.Sprintf("iteration %s does not exist", ctx.IterationID)))
	}
	if ctx.IterationDeleted {
		return deny("iteration %s is deleted", ctx.IterationID)
	}
	return allow()
}

// CreateChildContext provides context for creating a row under a parent.
type CreateChildContext struct {
	ChildLevel    Level
	ParentLevel   Level
	ParentID      string
	ParentExists  bool
	ParentDeleted bool
}

// CanCreateChild evaluates whether a child row can be attached to its parent.
// Rules:
// - Parent must exist (referential violation otherwise)
// - Parent must not be soft-deleted
func CanCreateChild(ctx CreateChildContext) GuardResult {
	if ctx.ParentLevel == "" {
		return allow()
	}
	if ctx.ParentID == "" {
		return deny("%s requires a %s", ctx.ChildLevel, ctx.ParentLevel)
	}
	if !ctx.ParentExists {
		return denyWith(dberr.ForeignKeyViolation(string(ctx.ChildLevel), dberr.OpCreate,
			fmt.Sprintf("%s %s does not exist", ctx.ParentLevel, ctx.ParentID)))
	}
	if ctx.ParentDeleted {
		return deny("cannot add %s to deleted %s %s", ctx.ChildLevel, ctx.ParentLevel, ctx.ParentID)
	}
	return allow()
}

// AssignStatusContext provides context for status assignment guards.
type AssignStatusContext struct {
	Level            Level
	TargetID         string
	TargetExists     bool
	TargetDeleted    bool
	StatusID         int
	StatusExists     bool
	StatusEntityType string
}

// CanAssignStatus evaluates whether a status can be set on a row.
// Rules:
// - Level must carry a status
// - Target must exist and not be soft-deleted
// - Status must exist and belong to the level's entity type
func CanAssignStatus(ctx AssignStatusContext) GuardResult {
	want := ctx.Level.StatusEntityType()
	if want == "" {
		return deny("%s has no status", ctx.Level)
	}
	if !ctx.TargetExists {
		return denyWith(dberr.NotFound(string(ctx.Level), ctx.TargetID))
	}
	if ctx.TargetDeleted {
		return deny("%s %s is deleted", ctx.Level, ctx.TargetID)
	}
	if !ctx.StatusExists {
		return denyWith(dberr.ForeignKeyViolation(string(ctx.Level), dberr.OpUpdate,
			fmt.Sprintf("status %d does not exist", ctx.StatusID)))
	}
	if ctx.StatusEntityType != want {
		return deny("status %d belongs to %s, not %s", ctx.StatusID, ctx.StatusEntityType, want)
	}
	return allow()
}

// HardDeleteContext provides context for hard delete guards.
type HardDeleteContext struct {
	Level    Level
	ID       string
	Exists   bool
	Children int
}

// CanHardDelete evaluates whether a row can be removed for good.
// Rules:
// - Row must exist
// - Row must have no children, soft-deleted ones included
func CanHardDelete(ctx HardDeleteContext) GuardResult {
	if !ctx.Exists {
		return denyWith(dberr.NotFound(string(ctx.Level), ctx.ID))
	}
	if ctx.Children > 0 {
		return denyWith(dberr.ForeignKeyViolation(string(ctx.Level), dberr.OpDelete,
			fmt.Sprintf("%s %s is still referenced by %d row(s)", ctx.Level, ctx.ID, ctx.Children)))
	}
	return allow()
}

// SoftDeleteContext provides context for soft delete guards.
type SoftDeleteContext struct {
	Level   Level
	ID      string
	Exists  bool
	Deleted bool
}

// CanSoftDelete evaluates whether a row can be soft-deleted.
// Rules:
// - Row must exist
// - Row must not already be deleted
func CanSoftDelete(ctx SoftDeleteContext) GuardResult {
	if !ctx.Exists {
		return denyWith(dberr.NotFound(string(ctx.Level), ctx.ID))
	}
	if ctx.Deleted {
		return deny("%s %s is already deleted", ctx.Level, ctx.ID)
	}
	return allow()
}

// CompleteInstructionContext provides context for instruction completion guards.
type CompleteInstructionContext struct {
	InstructionID string
	Exists        bool
	Deleted       bool
	IsCompleted   bool
	Complete      bool   // true to complete, false to uncomplete
	StepStatus    string // status name of the owning step
}

// Step statuses that freeze their instructions.
var frozenStepStatuses = map[string]bool{
	"COMPLETED": true,
	"CANCELLED": true,
}

// CanCompleteInstruction evaluates whether an instruction can be completed or reopened.
// Rules:
// - Instruction must exist and not be soft-deleted
// - Completing requires it to be open; uncompleting requires it to be completed
// - The owning step must not be COMPLETED or CANCELLED
func CanCompleteInstruction(ctx CompleteInstructionContext) GuardResult {
	if !ctx.Exists {
		return denyWith(dberr.NotFound("instruction", ctx.InstructionID))
	}
	if ctx.Deleted {
		return deny("instruction %s is deleted", ctx.InstructionID)
	}
	if frozenStepStatuses[ctx.StepStatus] {
		return deny("cannot change instructions of a %s step", ctx.StepStatus)
	}
	if ctx.Complete && ctx.IsCompleted {
		return deny("instruction %s is already completed", ctx.InstructionID)
	}
	if !ctx.Complete && !ctx.IsCompleted {
		return deny("instruction %s is not completed", ctx.InstructionID)
	}
	return allow()
}
