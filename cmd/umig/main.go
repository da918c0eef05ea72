package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/umig/internal/cli"
	"github.com/example/umig/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "umig",
		Short:   "UMIG - Unified Migration Implementation Guide",
		Version: version.String(),
		Long: `UMIG manages data-center migration runbooks: migrations and iterations,
reusable plan templates, their live instances, step execution and
step-status e-mail notifications.`,
		PersistentPreRunE: cli.Bootstrap,
		SilenceUsage:      true,
	}
	rootCmd.PersistentFlags().String("user", "", "Acting user code (default $UMIG_USER)")

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.ServeCmd())

	// Migration structure
	rootCmd.AddCommand(cli.MigrationCmd())
	rootCmd.AddCommand(cli.IterationCmd())
	rootCmd.AddCommand(cli.PlanCmd())

	// Execution
	rootCmd.AddCommand(cli.StepCmd())
	rootCmd.AddCommand(cli.InstructionCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.InstanceCmd())

	// Notifications and lookups
	rootCmd.AddCommand(cli.NotifyCmd())
	rootCmd.AddCommand(cli.DebugCmd())
	rootCmd.AddCommand(cli.TeamCmd())
	rootCmd.AddCommand(cli.LogCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
