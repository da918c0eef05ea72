package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/umig/internal/config"
	"github.com/example/umig/internal/db"
	"github.com/example/umig/internal/wire"
)

// expectedStatuses is the size of the seeded status lookup.
const expectedStatuses = 27

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the UMIG environment",
		Long: `Health check for UMIG.

Validates:
- Database connectivity and schema version
- Status lookup completeness
- E-mail transport reachability

Examples:
  umig doctor              # Run full health check
  umig doctor --quiet      # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(NewContext(), 10*time.Second)
			defer cancel()

			cfg := wire.Config()
			results := []CheckResult{
				checkDatabase(ctx),
				checkStatuses(ctx),
				checkTransport(ctx, cfg.Email),
			}

			hasErrors := false
			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				fmt.Println()
				fmt.Println("Check              Status")
				fmt.Println("─────────────────────────")
				for _, r := range results {
					fmt.Printf("%-18s %s\n", r.Name, colorStatus(r.Status))
				}
				fmt.Println()

				hasDetails := false
				for _, r := range results {
					if r.Status != "✓" && r.Details != "" {
						if !hasDetails {
							fmt.Println("Details:")
							hasDetails = true
						}
						fmt.Printf("\n%s:\n%s\n", r.Name, r.Details)
					}
				}

				if hasErrors {
					fmt.Println("\n⚠ Issues found. Run 'umig init' to repair the database.")
				} else {
					fmt.Println("All checks passed.")
				}
			}

			if hasErrors {
				return fmt.Errorf("environment validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

func colorStatus(s string) string {
	switch s {
	case "✓":
		return color.New(color.FgGreen).Sprint(s)
	case "⚠":
		return color.New(color.FgYellow).Sprint(s)
	default:
		return color.New(color.FgRed).Sprint(s)
	}
}

// checkDatabase pings the database and compares the schema version.
func checkDatabase(ctx context.Context) CheckResult {
	database := wire.DB()
	if err := database.PingContext(ctx); err != nil {
		return CheckResult{Name: "Database", Status: "✗", Details: "  " + err.Error()}
	}
	current, err := db.CurrentVersion(database)
	if err != nil {
		return CheckResult{Name: "Database", Status: "✗", Details: "  " + err.Error()}
	}
	if current < db.LatestVersion() {
		return CheckResult{
			Name:    "Database",
			Status:  "⚠",
			Details: fmt.Sprintf("  Schema v%d, latest is v%d", current, db.LatestVersion()),
		}
	}
	return CheckResult{Name: "Database", Status: "✓"}
}

// checkStatuses verifies the status lookup is fully seeded.
func checkStatuses(ctx context.Context) CheckResult {
	statuses, err := wire.StatusService().ListStatuses(ctx, "")
	if err != nil {
		return CheckResult{Name: "Statuses", Status: "✗", Details: "  " + err.Error()}
	}
	if len(statuses) < expectedStatuses {
		return CheckResult{
			Name:    "Statuses",
			Status:  "✗",
			Details: fmt.Sprintf("  Found %d statuses, expected %d", len(statuses), expectedStatuses),
		}
	}
	return CheckResult{Name: "Statuses", Status: "✓"}
}

// checkTransport dials the SMTP server when one is configured.
func checkTransport(ctx context.Context, cfg config.EmailConfig) CheckResult {
	if cfg.Transport != config.TransportSMTP {
		return CheckResult{Name: "E-mail", Status: "⚠", Details: "  Log transport: e-mails are logged, not sent"}
	}
	addr := net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return CheckResult{Name: "E-mail", Status: "✗", Details: fmt.Sprintf("  Cannot reach %s: %v", addr, err)}
	}
	_ = conn.Close()
	return CheckResult{Name: "E-mail", Status: "✓"}
}
