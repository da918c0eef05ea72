package cli

import (
	"os"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/umig/internal/adapters/cli"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/wire"
)

func stepAdapter() *cliadapter.StepAdapter {
	return cliadapter.NewStepAdapter(wire.StepService(), wire.InstanceService(), os.Stdout)
}

// StepCmd returns the step command with all subcommands attached.
func StepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Work step instances",
		Long:  "List, inspect and progress step instances. State changes notify the owning team.",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List step instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f primary.StepFilters
			f.MigrationID, _ = cmd.Flags().GetString("migration")
			f.IterationID, _ = cmd.Flags().GetString("iteration")
			f.PlanInstanceID, _ = cmd.Flags().GetString("plan")
			f.SequenceInstanceID, _ = cmd.Flags().GetString("sequence")
			f.PhaseInstanceID, _ = cmd.Flags().GetString("phase")
			f.TeamID, _ = cmd.Flags().GetString("team")
			f.Status, _ = cmd.Flags().GetString("status")
			f.IncludeDeleted, _ = cmd.Flags().GetBool("all")
			f.Limit, _ = cmd.Flags().GetInt("limit")
			return stepAdapter().List(NewContext(), f)
		},
	}
	listCmd.Flags().StringP("migration", "m", "", "Filter by migration ID")
	listCmd.Flags().StringP("iteration", "i", "", "Filter by iteration ID")
	listCmd.Flags().String("plan", "", "Filter by plan instance ID")
	listCmd.Flags().String("sequence", "", "Filter by sequence instance ID")
	listCmd.Flags().String("phase", "", "Filter by phase instance ID")
	listCmd.Flags().String("team", "", "Filter by team ID")
	listCmd.Flags().StringP("status", "s", "", "Filter by status name")
	listCmd.Flags().BoolP("all", "a", false, "Include soft-deleted steps")
	listCmd.Flags().IntP("limit", "n", 0, "Maximum rows (0 = no limit)")

	showCmd := &cobra.Command{
		Use:   "show [step-id]",
		Short: "Show a step with instructions and recent comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return stepAdapter().Show(NewContext(), args[0])
		},
	}

	openCmd := &cobra.Command{
		Use:   "open [step-id]",
		Short: "Open a PENDING step (moves it to TODO)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return stepAdapter().Open(NewContext(), args[0])
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status [step-id] [status]",
		Short: "Change the status of a step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return stepAdapter().SetStatus(NewContext(), args[0], args[1])
		},
	}

	assignCmd := &cobra.Command{
		Use:   "assign [step-id] [team-id]",
		Short: "Assign a step to a team",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return stepAdapter().AssignTeam(NewContext(), args[0], args[1])
		},
	}

	commentCmd := &cobra.Command{
		Use:   "comment [step-id] [text]",
		Short: "Comment on a step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return stepAdapter().Comment(NewContext(), args[0], args[1])
		},
	}

	cmd.AddCommand(listCmd, showCmd, openCmd, statusCmd, assignCmd, commentCmd)
	return cmd
}

// InstructionCmd returns the instruction command.
func InstructionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instruction",
		Short: "Complete or reopen instructions",
	}

	completeCmd := &cobra.Command{
		Use:   "complete [instruction-id]",
		Short: "Mark an instruction completed",
		Long: `Mark an instruction completed by the current user. Instructions of
COMPLETED or CANCELLED steps cannot change.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			undo, _ := cmd.Flags().GetBool("undo")
			return stepAdapter().CompleteInstruction(NewContext(), args[0], undo)
		},
	}
	completeCmd.Flags().Bool("undo", false, "Reopen a completed instruction")

	cmd.AddCommand(completeCmd)
	return cmd
}
