package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/umig/internal/config"
	"github.com/example/umig/internal/db"
	"github.com/example/umig/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the UMIG database",
		Long: `Initialize the UMIG database with the required schema, write a default
config.yaml if none exists and install the built-in e-mail templates.

Examples:
  umig init           # Schema, statuses and templates
  umig init --seed    # Also load development fixtures`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := wire.Config()

			home, err := config.HomeDir()
			if err != nil {
				return err
			}
			if _, err := os.Stat(filepath.Join(home, "config.yaml")); errors.Is(err, os.ErrNotExist) {
				if err := config.SaveConfig(home, cfg); err != nil {
					return err
				}
				fmt.Printf("✓ Wrote %s\n", filepath.Join(home, "config.yaml"))
			}

			fmt.Printf("✓ Database ready at %s (schema v%d)\n", cfg.Database.Path, db.LatestVersion())

			installed, err := wire.NotificationService().EnsureDefaultTemplates(NewContext())
			if err != nil {
				return fmt.Errorf("failed to install templates: %w", err)
			}
			fmt.Printf("✓ Installed %d e-mail template(s)\n", installed)

			if seed {
				if err := db.SeedFixtures(wire.DB()); err != nil {
					return fmt.Errorf("failed to seed fixtures: %w", err)
				}
				fmt.Println("✓ Loaded development fixtures")
				fmt.Printf("\nInstantiate the sample plan with:\n  umig plan instantiate %s --iteration %s\n",
					db.FixturePlanMaster, db.FixtureIteration)
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  umig migration create \"My Migration\"")
			fmt.Println("  umig serve")

			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "Load development fixtures")

	return cmd
}
