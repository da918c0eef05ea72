package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/wire"
)

// DebugCmd returns the debug command.
func DebugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Debugging tools for the e-mail pipeline",
	}

	emailsCmd := &cobra.Command{
		Use:   "emails",
		Short: "Export outbox e-mails as JSON or CSV",
		Long: `Export outbox e-mails with recipients, subject, body and delivery state.

Examples:
  umig debug emails                          # JSON to stdout
  umig debug emails --format csv -o out.csv  # CSV to a file
  umig debug emails --status failed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req primary.ExportRequest
			req.Format, _ = cmd.Flags().GetString("format")
			req.Filters.Status, _ = cmd.Flags().GetString("status")
			req.Filters.NotificationType, _ = cmd.Flags().GetString("type")
			req.Filters.Limit, _ = cmd.Flags().GetInt("limit")
			path, _ := cmd.Flags().GetString("output")

			w, closeFn, err := openOutput(path)
			if err != nil {
				return err
			}
			n, err := wire.DebugService().ExportEmails(NewContext(), w, req)
			if cerr := closeFn(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			if path != "" {
				fmt.Printf("✓ Exported %d e-mail(s) to %s\n", n, path)
			}
			return nil
		},
	}
	emailsCmd.Flags().StringP("format", "f", primary.ExportJSON, "Output format (json, csv)")
	emailsCmd.Flags().StringP("status", "s", "", "Filter by status (pending, sent, failed)")
	emailsCmd.Flags().String("type", "", "Filter by notification type")
	emailsCmd.Flags().IntP("limit", "n", 0, "Maximum rows (0 = no limit)")
	emailsCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")

	cmd.AddCommand(emailsCmd)
	return cmd
}

// openOutput returns stdout for an empty path, else a created file.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}
