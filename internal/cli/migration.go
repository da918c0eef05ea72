package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/umig/internal/adapters/cli"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/wire"
)

func migrationAdapter() *cliadapter.MigrationAdapter {
	return cliadapter.NewMigrationAdapter(wire.MigrationService(), os.Stdout)
}

// MigrationCmd returns the migration command with all subcommands attached.
func MigrationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migration",
		Short: "Manage migrations",
		Long:  "Create, list, show and delete migrations in the UMIG ledger",
	}

	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			typ, _ := cmd.Flags().GetString("type")
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			return migrationAdapter().Create(NewContext(), primary.CreateMigrationRequest{
				Name:        args[0],
				Description: description,
				Type:        typ,
				StartDate:   start,
				EndDate:     end,
			})
		},
	}
	createCmd.Flags().StringP("description", "d", "", "Migration description")
	createCmd.Flags().String("type", "", "Migration type")
	createCmd.Flags().String("start", "", "Start date (YYYY-MM-DD)")
	createCmd.Flags().String("end", "", "End date (YYYY-MM-DD)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			all, _ := cmd.Flags().GetBool("all")
			return migrationAdapter().List(NewContext(), primary.MigrationFilters{Status: status, IncludeDeleted: all})
		},
	}
	listCmd.Flags().StringP("status", "s", "", "Filter by status name")
	listCmd.Flags().BoolP("all", "a", false, "Include soft-deleted migrations")

	showCmd := &cobra.Command{
		Use:   "show [migration-id]",
		Short: "Show migration details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrationAdapter().Show(NewContext(), args[0])
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [migration-id]",
		Short: "Delete a migration",
		Long: `Soft-delete a migration. With --hard the row is removed, which fails
while iterations still reference it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hard, _ := cmd.Flags().GetBool("hard")
			return migrationAdapter().Delete(NewContext(), args[0], hard)
		},
	}
	deleteCmd.Flags().Bool("hard", false, "Remove the row instead of soft-deleting it")

	cmd.AddCommand(createCmd, listCmd, showCmd, deleteCmd)
	return cmd
}

// IterationCmd returns the iteration command with all subcommands attached.
func IterationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iteration",
		Short: "Manage iterations of a migration",
	}

	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create an iteration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			migrationID, _ := cmd.Flags().GetString("migration")
			typ, _ := cmd.Flags().GetString("type")
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			return migrationAdapter().CreateIteration(NewContext(), primary.CreateIterationRequest{
				MigrationID: migrationID,
				Name:        args[0],
				Type:        typ,
				StartDate:   start,
				EndDate:     end,
			})
		},
	}
	createCmd.Flags().StringP("migration", "m", "", "Owning migration ID")
	createCmd.Flags().String("type", "", "Iteration type")
	createCmd.Flags().String("start", "", "Start date (YYYY-MM-DD)")
	createCmd.Flags().String("end", "", "End date (YYYY-MM-DD)")
	_ = createCmd.MarkFlagRequired("migration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List iterations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrationID, _ := cmd.Flags().GetString("migration")
			status, _ := cmd.Flags().GetString("status")
			all, _ := cmd.Flags().GetBool("all")
			return migrationAdapter().ListIterations(NewContext(), primary.IterationFilters{
				MigrationID:    migrationID,
				Status:         status,
				IncludeDeleted: all,
			})
		},
	}
	listCmd.Flags().StringP("migration", "m", "", "Filter by migration ID")
	listCmd.Flags().StringP("status", "s", "", "Filter by status name")
	listCmd.Flags().BoolP("all", "a", false, "Include soft-deleted iterations")

	deleteCmd := &cobra.Command{
		Use:   "delete [iteration-id]",
		Short: "Delete an iteration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hard, _ := cmd.Flags().GetBool("hard")
			if err := wire.MigrationService().DeleteIteration(NewContext(), primary.DeleteRequest{ID: args[0], Hard: hard}); err != nil {
				return err
			}
			fmt.Printf("✓ Deleted iteration %s\n", args[0])
			return nil
		},
	}
	deleteCmd.Flags().Bool("hard", false, "Remove the row instead of soft-deleting it")

	cmd.AddCommand(createCmd, listCmd, deleteCmd)
	return cmd
}
