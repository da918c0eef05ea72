package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/wire"
)

// PlanCmd returns the plan command: template authoring and instantiation.
func PlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Author plan templates and instantiate them",
		Long: `Plan templates (masters) hold the canonical sequence → phase → step →
instruction tree. Instantiating a template copies the tree into an iteration.`,
	}

	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a plan template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			team, _ := cmd.Flags().GetString("team")
			plan, err := wire.PlanService().CreatePlanMaster(NewContext(), primary.CreatePlanMasterRequest{
				Name:        args[0],
				Description: description,
				TeamID:      team,
			})
			if err != nil {
				return err
			}
			fmt.Printf("✓ Created plan template %s: %s\n", plan.ID, plan.Name)
			return nil
		},
	}
	createCmd.Flags().StringP("description", "d", "", "Plan description")
	createCmd.Flags().String("team", "", "Owning team ID")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List plan templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			plans, err := wire.PlanService().ListPlanMasters(NewContext(), all)
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}
			if len(plans) == 0 {
				fmt.Println("No plan templates found")
				return nil
			}
			fmt.Printf("\n%-36s  %s\n", "ID", "NAME")
			fmt.Println("────────────────────────────────────────────────────────────────")
			for _, p := range plans {
				fmt.Printf("%-36s  %s\n", p.ID, p.Name)
			}
			fmt.Println()
			return nil
		},
	}
	listCmd.Flags().BoolP("all", "a", false, "Include soft-deleted templates")

	showCmd := &cobra.Command{
		Use:   "show [plan-id]",
		Short: "Show the template tree of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := wire.PlanService().GetPlanTemplate(NewContext(), args[0])
			if err != nil {
				return err
			}
			printPlanTemplate(tree)
			return nil
		},
	}

	addSequenceCmd := &cobra.Command{
		Use:   "add-sequence [plan-id] [name]",
		Short: "Append a sequence to a plan template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, _ := cmd.Flags().GetInt("order")
			seq, err := wire.PlanService().AddSequence(NewContext(), primary.AddSequenceRequest{
				PlanMasterID: args[0],
				Name:         args[1],
				Order:        order,
			})
			if err != nil {
				return err
			}
			fmt.Printf("✓ Added sequence %d %s (%s)\n", seq.Order, seq.Name, seq.ID)
			return nil
		},
	}
	addSequenceCmd.Flags().Int("order", 0, "Explicit order (default: after the last sequence)")

	addPhaseCmd := &cobra.Command{
		Use:   "add-phase [sequence-id] [name]",
		Short: "Append a phase to a sequence template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, _ := cmd.Flags().GetInt("order")
			phase, err := wire.PlanService().AddPhase(NewContext(), primary.AddPhaseRequest{
				SequenceMasterID: args[0],
				Name:             args[1],
				Order:            order,
			})
			if err != nil {
				return err
			}
			fmt.Printf("✓ Added phase %d %s (%s)\n", phase.Order, phase.Name, phase.ID)
			return nil
		},
	}
	addPhaseCmd.Flags().Int("order", 0, "Explicit order (default: after the last phase)")

	addStepCmd := &cobra.Command{
		Use:   "add-step [phase-id] [name]",
		Short: "Add a step to a phase template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeCode, _ := cmd.Flags().GetString("type")
			number, _ := cmd.Flags().GetInt("number")
			team, _ := cmd.Flags().GetString("team")
			duration, _ := cmd.Flags().GetInt("duration")
			step, err := wire.PlanService().AddStep(NewContext(), primary.AddStepRequest{
				PhaseMasterID:   args[0],
				Name:            args[1],
				TypeCode:        typeCode,
				Number:          number,
				TeamID:          team,
				DurationMinutes: duration,
			})
			if err != nil {
				return err
			}
			fmt.Printf("✓ Added step %s %s (%s)\n", step.Code, step.Name, step.ID)
			return nil
		},
	}
	addStepCmd.Flags().String("type", "", "Step type code, e.g. APP")
	addStepCmd.Flags().Int("number", 0, "Explicit step number (default: next free for the type)")
	addStepCmd.Flags().String("team", "", "Owning team ID")
	addStepCmd.Flags().Int("duration", 0, "Estimated duration in minutes")
	_ = addStepCmd.MarkFlagRequired("type")

	addInstructionCmd := &cobra.Command{
		Use:   "add-instruction [step-id] [body]",
		Short: "Add an instruction to a step template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, _ := cmd.Flags().GetInt("order")
			in, err := wire.PlanService().AddInstruction(NewContext(), primary.AddInstructionRequest{
				StepMasterID: args[0],
				Body:         args[1],
				Order:        order,
			})
			if err != nil {
				return err
			}
			fmt.Printf("✓ Added instruction %d (%s)\n", in.Order, in.ID)
			return nil
		},
	}
	addInstructionCmd.Flags().Int("order", 0, "Explicit order (default: after the last instruction)")

	instantiateCmd := &cobra.Command{
		Use:   "instantiate [plan-id]",
		Short: "Copy a plan template into an iteration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iteration, _ := cmd.Flags().GetString("iteration")
			name, _ := cmd.Flags().GetString("name")
			resp, err := wire.PlanService().InstantiatePlan(NewContext(), primary.InstantiatePlanRequest{
				PlanMasterID: args[0],
				IterationID:  iteration,
				Name:         name,
			})
			if err != nil {
				return err
			}
			fmt.Printf("✓ Instantiated plan %s: %d sequence(s), %d phase(s), %d step(s), %d instruction(s)\n",
				resp.PlanInstanceID, resp.Sequences, resp.Phases, resp.Steps, resp.Instructions)
			return nil
		},
	}
	instantiateCmd.Flags().StringP("iteration", "i", "", "Target iteration ID")
	instantiateCmd.Flags().String("name", "", "Instance name (default: template name)")
	_ = instantiateCmd.MarkFlagRequired("iteration")

	instancesCmd := &cobra.Command{
		Use:   "instances",
		Short: "List plan instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			iteration, _ := cmd.Flags().GetString("iteration")
			migration, _ := cmd.Flags().GetString("migration")
			all, _ := cmd.Flags().GetBool("all")
			plans, err := wire.InstanceService().ListPlans(NewContext(), primary.PlanInstanceFilters{
				IterationID:    iteration,
				MigrationID:    migration,
				IncludeDeleted: all,
			})
			if err != nil {
				return fmt.Errorf("failed to list plan instances: %w", err)
			}
			if len(plans) == 0 {
				fmt.Println("No plan instances found")
				return nil
			}
			fmt.Printf("\n%-36s  %-12s %-20s %s\n", "ID", "STATUS", "ITERATION", "NAME")
			fmt.Println("────────────────────────────────────────────────────────────────")
			for _, p := range plans {
				status := "-"
				if p.Status != nil {
					status = p.Status.Name
				}
				fmt.Printf("%-36s  %-12s %-20s %s\n", p.ID, status, p.IterationName, p.Name)
			}
			fmt.Println()
			return nil
		},
	}
	instancesCmd.Flags().StringP("iteration", "i", "", "Filter by iteration ID")
	instancesCmd.Flags().StringP("migration", "m", "", "Filter by migration ID")
	instancesCmd.Flags().BoolP("all", "a", false, "Include soft-deleted instances")

	deleteCmd := &cobra.Command{
		Use:   "delete [plan-id]",
		Short: "Delete a plan template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hard, _ := cmd.Flags().GetBool("hard")
			if err := wire.PlanService().DeletePlanMaster(NewContext(), primary.DeleteRequest{ID: args[0], Hard: hard}); err != nil {
				return err
			}
			fmt.Printf("✓ Deleted plan template %s\n", args[0])
			return nil
		},
	}
	deleteCmd.Flags().Bool("hard", false, "Remove the row instead of soft-deleting it")

	cmd.AddCommand(createCmd, listCmd, showCmd, addSequenceCmd, addPhaseCmd, addStepCmd,
		addInstructionCmd, instantiateCmd, instancesCmd, deleteCmd)
	return cmd
}

func printPlanTemplate(tree *primary.PlanTemplate) {
	dim := color.New(color.FgHiBlack)
	fmt.Printf("\n%s %s\n", color.New(color.Bold).Sprint(tree.Plan.Name), dim.Sprint(tree.Plan.ID))
	for _, seq := range tree.Sequences {
		fmt.Printf("  %d. %s %s\n", seq.Order, seq.Name, dim.Sprint(seq.ID))
		for _, phase := range seq.Phases {
			fmt.Printf("     %d. %s %s\n", phase.Order, phase.Name, dim.Sprint(phase.ID))
			for _, step := range phase.Steps {
				fmt.Printf("        %s %s %s\n", color.New(color.FgCyan).Sprint(step.Code), step.Name, dim.Sprint(step.ID))
				for _, in := range step.Instructions {
					fmt.Printf("           %d) %s\n", in.Order, in.Body)
				}
			}
		}
	}
	fmt.Println()
}
