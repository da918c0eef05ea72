package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/wire"
)

// StatusCmd returns the status command: lookup and status changes at any level.
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List statuses and change them at any level",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List statuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, _ := cmd.Flags().GetString("entity")
			statuses, err := wire.StatusService().ListStatuses(NewContext(), entity)
			if err != nil {
				return err
			}
			fmt.Printf("\n%-4s %-12s %-14s %s\n", "ID", "ENTITY", "NAME", "COLOR")
			fmt.Println("──────────────────────────────────────────")
			for _, s := range statuses {
				fmt.Printf("%-4d %-12s %-14s %s\n", s.ID, s.EntityType, s.Name, s.Color)
			}
			fmt.Println()
			return nil
		},
	}
	listCmd.Flags().StringP("entity", "e", "", "Only statuses of one entity type (migration, step, ...)")

	setCmd := &cobra.Command{
		Use:   "set [level] [id] [status]",
		Short: "Set the status of one row",
		Long: `Set the status of one row by status name. Level is any of migration,
iteration, plan, sequence, phase, step (plural forms accepted).`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := wire.InstanceService().UpdateStatus(NewContext(), primary.UpdateStatusRequest{
				Level:  args[0],
				ID:     args[1],
				Status: args[2],
			})
			if err != nil {
				return err
			}
			fmt.Printf("✓ %s %s is now %s\n", args[0], args[1], args[2])
			return nil
		},
	}

	bulkCmd := &cobra.Command{
		Use:   "bulk [level] [status] [id...]",
		Short: "Set the status of many rows of one level",
		Long: `Set the status of many rows in one transaction. By default the first
failure rolls the batch back; with --continue-on-error failing rows are
reported and the rest are kept.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			keepGoing, _ := cmd.Flags().GetBool("continue-on-error")
			resp, err := wire.InstanceService().BulkUpdateStatus(NewContext(), primary.BulkStatusRequest{
				Level:           args[0],
				Status:          args[1],
				IDs:             args[2:],
				ContinueOnError: keepGoing,
			})
			if err != nil {
				return err
			}
			printBulkResult(resp)
			if len(resp.Failed) > 0 {
				return fmt.Errorf("%d of %d row(s) failed", len(resp.Failed), len(args[2:]))
			}
			return nil
		},
	}
	bulkCmd.Flags().Bool("continue-on-error", false, "Keep successful rows when some fail")

	cmd.AddCommand(listCmd, setCmd, bulkCmd)
	return cmd
}

// InstanceCmd returns the instance command: soft delete and restore at any level.
func InstanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: "Delete or restore plan, sequence, phase and step instances",
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [level] [id]",
		Short: "Delete a row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hard, _ := cmd.Flags().GetBool("hard")
			if err := wire.InstanceService().Delete(NewContext(), args[0], primary.DeleteRequest{ID: args[1], Hard: hard}); err != nil {
				return err
			}
			fmt.Printf("✓ Deleted %s %s\n", args[0], args[1])
			return nil
		},
	}
	deleteCmd.Flags().Bool("hard", false, "Remove the row instead of soft-deleting it")

	restoreCmd := &cobra.Command{
		Use:   "restore [level] [id]",
		Short: "Restore a soft-deleted row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.InstanceService().Restore(NewContext(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("✓ Restored %s %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(deleteCmd, restoreCmd)
	return cmd
}

func printBulkResult(resp *primary.BulkStatusResponse) {
	for _, id := range resp.Updated {
		fmt.Printf("%s %s\n", color.New(color.FgGreen).Sprint("✓"), id)
	}
	for _, f := range resp.Failed {
		state := ""
		if f.SQLState != "" {
			state = fmt.Sprintf(" [SQLSTATE %s]", f.SQLState)
		}
		fmt.Printf("%s %s: %s%s\n", color.New(color.FgRed).Sprint("✗"), f.ID, f.Error, state)
	}
}
