// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/umig/internal/ports/primary"
)

const rule = "────────────────────────────────────────────────────────────────"

// statusLabel colours a status name the way the web UI does.
func statusLabel(s *primary.Status) string {
	if s == nil {
		return "-"
	}
	switch s.Name {
	case "COMPLETED":
		return color.New(color.FgHiGreen).Sprint(s.Name)
	case "IN_PROGRESS":
		return color.New(color.FgHiBlue).Sprint(s.Name)
	case "BLOCKED", "FAILED":
		return color.New(color.FgRed).Sprint(s.Name)
	case "CANCELLED":
		return color.New(color.FgHiBlack).Sprint(s.Name)
	case "TODO":
		return color.New(color.FgYellow).Sprint(s.Name)
	default:
		return color.New(color.FgWhite).Sprint(s.Name)
	}
}

func deletedMarker(deletedAt string) string {
	if deletedAt == "" {
		return ""
	}
	return color.New(color.FgHiBlack).Sprint(" [deleted]")
}

// MigrationAdapter translates CLI operations to MigrationService calls.
type MigrationAdapter struct {
	service primary.MigrationService
	out     io.Writer
}

// NewMigrationAdapter creates a new MigrationAdapter with the given service.
func NewMigrationAdapter(service primary.MigrationService, out io.Writer) *MigrationAdapter {
	return &MigrationAdapter{
		service: service,
		out:     out,
	}
}

// Create creates a new migration.
func (a *MigrationAdapter) Create(ctx context.Context, req primary.CreateMigrationRequest) error {
	migration, err := a.service.CreateMigration(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Created migration %s: %s\n", migration.ID, migration.Name)
	return nil
}

// List lists migrations.
func (a *MigrationAdapter) List(ctx context.Context, filters primary.MigrationFilters) error {
	migrations, err := a.service.ListMigrations(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}

	if len(migrations) == 0 {
		fmt.Fprintln(a.out, "No migrations found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-36s  %-12s %s\n", "ID", "STATUS", "NAME")
	fmt.Fprintln(a.out, rule)
	for _, m := range migrations {
		fmt.Fprintf(a.out, "%-36s  %-12s %s%s\n", m.ID, statusLabel(m.Status), m.Name, deletedMarker(m.DeletedAt))
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show displays a migration and its iterations.
func (a *MigrationAdapter) Show(ctx context.Context, id string) error {
	migration, err := a.service.GetMigration(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get migration: %w", err)
	}

	fmt.Fprintf(a.out, "\nMigration: %s%s\n", migration.ID, deletedMarker(migration.DeletedAt))
	fmt.Fprintf(a.out, "Name:      %s\n", migration.Name)
	fmt.Fprintf(a.out, "Status:    %s\n", statusLabel(migration.Status))
	if migration.Description != "" {
		fmt.Fprintf(a.out, "Description: %s\n", migration.Description)
	}
	if migration.StartDate != "" || migration.EndDate != "" {
		fmt.Fprintf(a.out, "Window:    %s → %s\n", migration.StartDate, migration.EndDate)
	}

	iterations, err := a.service.ListIterations(ctx, primary.IterationFilters{MigrationID: id})
	if err == nil && len(iterations) > 0 {
		fmt.Fprintln(a.out, "\nIterations:")
		for _, it := range iterations {
			fmt.Fprintf(a.out, "  - %s [%s] %s\n", it.ID, statusLabel(it.Status), it.Name)
		}
	}
	fmt.Fprintln(a.out)

	return nil
}

// Delete soft-deletes a migration, or removes it when hard is set.
func (a *MigrationAdapter) Delete(ctx context.Context, id string, hard bool) error {
	if err := a.service.DeleteMigration(ctx, primary.DeleteRequest{ID: id, Hard: hard}); err != nil {
		return err
	}
	if hard {
		fmt.Fprintf(a.out, "✓ Deleted migration %s permanently\n", id)
	} else {
		fmt.Fprintf(a.out, "✓ Deleted migration %s\n", id)
	}
	return nil
}

// CreateIteration creates an iteration under a migration.
func (a *MigrationAdapter) CreateIteration(ctx context.Context, req primary.CreateIterationRequest) error {
	iteration, err := a.service.CreateIteration(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Created iteration %s: %s\n", iteration.ID, iteration.Name)
	return nil
}

// ListIterations lists iterations, optionally of one migration.
func (a *MigrationAdapter) ListIterations(ctx context.Context, filters primary.IterationFilters) error {
	iterations, err := a.service.ListIterations(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list iterations: %w", err)
	}

	if len(iterations) == 0 {
		fmt.Fprintln(a.out, "No iterations found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-36s  %-12s %-20s %s\n", "ID", "STATUS", "MIGRATION", "NAME")
	fmt.Fprintln(a.out, rule)
	for _, it := range iterations {
		fmt.Fprintf(a.out, "%-36s  %-12s %-20s %s%s\n", it.ID, statusLabel(it.Status), it.MigrationName, it.Name, deletedMarker(it.DeletedAt))
	}
	fmt.Fprintln(a.out)

	return nil
}
