package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/umig/internal/ports/primary"
)

// StepAdapter translates CLI operations to StepService and InstanceService calls.
type StepAdapter struct {
	steps     primary.StepService
	instances primary.InstanceService
	out       io.Writer
}

// NewStepAdapter creates a new StepAdapter.
func NewStepAdapter(steps primary.StepService, instances primary.InstanceService, out io.Writer) *StepAdapter {
	return &StepAdapter{
		steps:     steps,
		instances: instances,
		out:       out,
	}
}

// List lists step instances matching filters.
func (a *StepAdapter) List(ctx context.Context, filters primary.StepFilters) error {
	steps, err := a.instances.ListSteps(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list steps: %w", err)
	}

	if len(steps) == 0 {
		fmt.Fprintln(a.out, "No steps found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-36s  %-8s %-12s %-12s %s\n", "ID", "CODE", "STATUS", "TEAM", "NAME")
	fmt.Fprintln(a.out, rule)
	for _, s := range steps {
		fmt.Fprintf(a.out, "%-36s  %-8s %-12s %-12s %s%s\n", s.ID, s.Code, statusLabel(s.Status), s.TeamName, s.Name, deletedMarker(s.DeletedAt))
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show displays a step with its ancestry, instructions and latest comments.
func (a *StepAdapter) Show(ctx context.Context, stepID string) error {
	details, err := a.steps.GetStepDetails(ctx, stepID)
	if err != nil {
		return fmt.Errorf("failed to get step: %w", err)
	}
	step := details.Step

	fmt.Fprintf(a.out, "\nStep %s: %s%s\n", step.Code, step.Name, deletedMarker(step.DeletedAt))
	fmt.Fprintf(a.out, "ID:        %s\n", step.ID)
	fmt.Fprintf(a.out, "Status:    %s\n", statusLabel(step.Status))
	if step.TeamName != "" {
		fmt.Fprintf(a.out, "Team:      %s", step.TeamName)
		if details.TeamEmail != "" {
			fmt.Fprintf(a.out, " <%s>", details.TeamEmail)
		}
		fmt.Fprintln(a.out)
	}
	fmt.Fprintf(a.out, "Path:      %s › %s › %s › %s › %s\n",
		orDash(step.MigrationName), orDash(step.IterationName), orDash(step.PlanName), orDash(step.SequenceName), orDash(step.PhaseName))

	if len(details.Instructions) > 0 {
		fmt.Fprintln(a.out, "\nInstructions:")
		for _, in := range details.Instructions {
			mark := "[ ]"
			if in.IsCompleted {
				mark = color.New(color.FgHiGreen).Sprint("[✓]")
			}
			fmt.Fprintf(a.out, "  %s %d. %s", mark, in.Order, in.Body)
			if in.IsCompleted && in.CompletedBy != "" {
				fmt.Fprintf(a.out, " (%s)", in.CompletedBy)
			}
			fmt.Fprintf(a.out, "  %s\n", color.New(color.FgHiBlack).Sprint(in.ID))
		}
	}

	if len(details.RecentComments) > 0 {
		fmt.Fprintln(a.out, "\nRecent comments:")
		for _, c := range details.RecentComments {
			fmt.Fprintf(a.out, "  #%d %s %s: %s\n", c.ID, c.CreatedAt, c.Author, c.Body)
		}
	}
	fmt.Fprintln(a.out)

	return nil
}

// Open moves a PENDING step to TODO.
func (a *StepAdapter) Open(ctx context.Context, stepID string) error {
	if err := a.steps.OpenStep(ctx, stepID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Opened step %s\n", stepID)
	return nil
}

// SetStatus changes the status of a step by name.
func (a *StepAdapter) SetStatus(ctx context.Context, stepID, status string) error {
	if err := a.steps.ChangeStatus(ctx, primary.ChangeStepStatusRequest{StepID: stepID, Status: status}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Step %s is now %s\n", stepID, status)
	return nil
}

// AssignTeam overrides the owning team of a step.
func (a *StepAdapter) AssignTeam(ctx context.Context, stepID, teamID string) error {
	if err := a.steps.AssignTeam(ctx, stepID, teamID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Step %s assigned to team %s\n", stepID, teamID)
	return nil
}

// Comment adds a comment to a step.
func (a *StepAdapter) Comment(ctx context.Context, stepID, body string) error {
	comment, err := a.steps.AddComment(ctx, primary.AddCommentRequest{StepID: stepID, Body: body})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Added comment #%d to step %s\n", comment.ID, stepID)
	return nil
}

// CompleteInstruction marks an instruction done, or reopens it when undo is set.
func (a *StepAdapter) CompleteInstruction(ctx context.Context, instructionID string, undo bool) error {
	if undo {
		if err := a.steps.UncompleteInstruction(ctx, instructionID); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "✓ Reopened instruction %s\n", instructionID)
		return nil
	}
	if err := a.steps.CompleteInstruction(ctx, instructionID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Completed instruction %s\n", instructionID)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
