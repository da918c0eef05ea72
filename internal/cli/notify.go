package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/umig/internal/core/notification"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/wire"
)

// NotifyCmd returns the notify command: outbox inspection and delivery.
func NotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Inspect and deliver step notifications",
	}

	dispatchCmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Deliver pending outbox e-mails",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := wire.NotificationService().DispatchPending(NewContext())
			if err != nil {
				return err
			}
			fmt.Printf("✓ Attempted %d, sent %d, failed %d\n", result.Attempted, result.Sent, result.Failed)
			return nil
		},
	}

	outboxCmd := &cobra.Command{
		Use:   "outbox",
		Short: "List outbox e-mails",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f primary.OutboxFilters
			f.Status, _ = cmd.Flags().GetString("status")
			f.NotificationType, _ = cmd.Flags().GetString("type")
			f.EntityID, _ = cmd.Flags().GetString("step")
			f.Limit, _ = cmd.Flags().GetInt("limit")

			entries, err := wire.NotificationService().ListOutbox(NewContext(), f)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("Outbox is empty")
				return nil
			}
			fmt.Printf("\n%-36s  %-8s %-22s %-3s %s\n", "ID", "STATUS", "TYPE", "TRY", "SUBJECT")
			fmt.Println("────────────────────────────────────────────────────────────────")
			for _, e := range entries {
				fmt.Printf("%-36s  %-8s %-22s %-3d %s\n", e.ID, outboxStatus(e.Status), e.NotificationType, e.Attempts, e.Subject)
				if e.LastError != "" {
					fmt.Printf("%38s%s\n", "", color.New(color.FgRed).Sprint(e.LastError))
				}
			}
			fmt.Println()
			return nil
		},
	}
	outboxCmd.Flags().StringP("status", "s", "", "Filter by status (pending, sent, failed)")
	outboxCmd.Flags().String("type", "", "Filter by notification type")
	outboxCmd.Flags().String("step", "", "Filter by step ID")
	outboxCmd.Flags().IntP("limit", "n", 50, "Maximum rows")

	previewCmd := &cobra.Command{
		Use:   "preview [step-id]",
		Short: "Print the template variables of a step notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, _ := cmd.Flags().GetString("type")
			previous, _ := cmd.Flags().GetString("previous")
			next, _ := cmd.Flags().GetString("new")
			preview, err := wire.NotificationService().PreviewVariables(NewContext(), primary.NotifyRequest{
				StepID:         args[0],
				Type:           strings.ToUpper(typ),
				PreviousStatus: previous,
				NewStatus:      next,
			})
			if err != nil {
				return err
			}
			for _, w := range preview.Warnings {
				fmt.Fprintf(os.Stderr, "%s %s\n", color.New(color.FgYellow).Sprint("⚠"), w)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(preview.Variables)
		},
	}
	previewCmd.Flags().String("type", string(notification.TypeStatusChanged), "Notification type")
	previewCmd.Flags().String("previous", "", "Previous status (STATUS_CHANGED)")
	previewCmd.Flags().String("new", "", "New status (STATUS_CHANGED)")

	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "Install built-in templates for types without an active one",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := wire.NotificationService().EnsureDefaultTemplates(NewContext())
			if err != nil {
				return err
			}
			fmt.Printf("✓ Installed %d template(s)\n", n)
			return nil
		},
	}

	cmd.AddCommand(dispatchCmd, outboxCmd, previewCmd, templatesCmd)
	return cmd
}

func outboxStatus(s string) string {
	switch s {
	case "sent":
		return color.New(color.FgGreen).Sprint(s)
	case "failed":
		return color.New(color.FgRed).Sprint(s)
	default:
		return color.New(color.FgYellow).Sprint(s)
	}
}
