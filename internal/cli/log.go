package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/wire"
)

// LogCmd returns the log command for the audit trail.
func LogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "View the audit trail",
		Long:  "Show audit entries for entity changes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f primary.AuditFilters
			f.EntityType, _ = cmd.Flags().GetString("type")
			f.EntityID, _ = cmd.Flags().GetString("entity")
			f.Actor, _ = cmd.Flags().GetString("actor")
			f.Limit, _ = cmd.Flags().GetInt("limit")

			entries, err := wire.AuditService().ListEntries(NewContext(), f)
			if err != nil {
				return fmt.Errorf("failed to fetch audit entries: %w", err)
			}
			printAuditEntries(entries)
			return nil
		},
	}

	cmd.Flags().String("type", "", "Filter by entity type")
	cmd.Flags().String("entity", "", "Filter by entity ID")
	cmd.Flags().String("actor", "", "Filter by user code")
	cmd.Flags().IntP("limit", "n", 50, "Number of entries to show")

	return cmd
}

func printAuditEntries(entries []*primary.AuditEntry) {
	if len(entries) == 0 {
		fmt.Println("No audit entries found")
		return
	}

	fmt.Println()
	for _, e := range entries {
		fmt.Printf("%s %s %-8s %s:%s", formatTimestamp(e.CreatedAt), actionIcon(e.Action), e.Actor, e.EntityType, e.EntityID)
		if e.Details != "" {
			fmt.Printf("  %s", e.Details)
		}
		fmt.Println()
	}
	fmt.Println()
}

func actionIcon(action string) string {
	switch action {
	case "create":
		return "+"
	case "update":
		return "~"
	case "delete":
		return "-"
	default:
		return "?"
	}
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}
