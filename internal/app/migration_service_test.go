package app

import (
	"context"
	"testing"

	"github.com/example/umig/internal/ctxutil"
	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/ports/secondary"
)

type migrationFixture struct {
	service    *MigrationServiceImpl
	migrations *mockMigrationRepository
	iterations *mockIterationRepository
	statuses   *mockStatusRepository
	hierarchy  *mockHierarchyRepository
	logWriter  *mockLogWriter
}

func newTestMigrationService() *migrationFixture {
	statuses := newMockStatusRepository()
	f := &migrationFixture{
		migrations: newMockMigrationRepository(statuses),
		iterations: newMockIterationRepository(),
		statuses:   statuses,
		hierarchy:  newMockHierarchyRepository(),
		logWriter:  &mockLogWriter{},
	}
	f.service = NewMigrationService(f.migrations, f.iterations, statuses, f.hierarchy, f.logWriter)
	return f
}

func TestMigrationService_CreateMigration(t *testing.T) {
	f := newTestMigrationService()
	ctx := ctxutil.WithActor(context.Background(), "JDO")

	migration, err := f.service.CreateMigration(ctx, primary.CreateMigrationRequest{
		Name:        "Data Centre Exit",
		Description: "Move everything",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if migration.ID == "" {
		t.Error("expected generated ID")
	}
	if migration.Status == nil || migration.Status.Name != "PLANNING" || migration.Status.EntityType != "migration" {
		t.Errorf("expected PLANNING migration status, got %+v", migration.Status)
	}
	if migration.CreatedBy != "JDO" {
		t.Errorf("expected created by JDO, got %q", migration.CreatedBy)
	}
}

func TestMigrationService_CreateMigration_Errors(t *testing.T) {
	tests := []struct {
		name     string
		req      primary.CreateMigrationRequest
		existing string
		check    func(error) bool
	}{
		{
			name:  "missing name is validation",
			req:   primary.CreateMigrationRequest{},
			check: dberr.IsValidation,
		},
		{
			name:     "duplicate name is unique violation",
			req:      primary.CreateMigrationRequest{Name: "Exit"},
			existing: "Exit",
			check:    dberr.IsUniqueViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestMigrationService()
			ctx := context.Background()
			if tt.existing != "" {
				if _, err := f.service.CreateMigration(ctx, primary.CreateMigrationRequest{Name: tt.existing}); err != nil {
					t.Fatalf("setup failed: %v", err)
				}
			}

			_, err := f.service.CreateMigration(ctx, tt.req)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error classification: %v", err)
			}
		})
	}
}

func TestMigrationService_UpdateMigration(t *testing.T) {
	f := newTestMigrationService()
	ctx := ctxutil.WithActor(context.Background(), "ADM")
	created, _ := f.service.CreateMigration(ctx, primary.CreateMigrationRequest{Name: "Exit"})

	err := f.service.UpdateMigration(ctx, primary.UpdateMigrationRequest{ID: created.ID, Description: "updated"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.migrations.updated.Description != "updated" || f.migrations.updated.UpdatedBy != "ADM" {
		t.Errorf("unexpected update record: %+v", f.migrations.updated)
	}

	if err := f.service.UpdateMigration(ctx, primary.UpdateMigrationRequest{}); !dberr.IsValidation(err) {
		t.Errorf("expected validation error for missing id, got %v", err)
	}
	if err := f.service.UpdateMigration(ctx, primary.UpdateMigrationRequest{ID: "missing"}); !dberr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestMigrationService_CreateIteration(t *testing.T) {
	tests := []struct {
		name      string
		parent    *secondary.NodeState
		wantCheck func(error) bool
	}{
		{
			name:   "live migration",
			parent: &secondary.NodeState{},
		},
		{
			name:      "missing migration is foreign key violation",
			parent:    nil,
			wantCheck: dberr.IsForeignKeyViolation,
		},
		{
			name:      "deleted migration is rejected",
			parent:    &secondary.NodeState{Deleted: true},
			wantCheck: dberr.IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestMigrationService()
			if tt.parent != nil {
				f.hierarchy.put("migration", "mig-1", *tt.parent)
			}

			iteration, err := f.service.CreateIteration(context.Background(), primary.CreateIterationRequest{
				MigrationID: "mig-1",
				Name:        "Cutover 1",
			})

			if tt.wantCheck == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if iteration.MigrationID != "mig-1" {
					t.Errorf("expected migration mig-1, got %q", iteration.MigrationID)
				}
				stored := f.iterations.iterations[iteration.ID]
				if stored.StatusID != f.statuses.mustStatus("PLANNING", "iteration").ID {
					t.Errorf("expected iteration PLANNING status id, got %d", stored.StatusID)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantCheck(err) {
				t.Errorf("unexpected error classification: %v", err)
			}
			if len(f.iterations.iterations) != 0 {
				t.Error("expected no iteration to be created")
			}
		})
	}
}

func TestMigrationService_UpdateIteration_Reparent(t *testing.T) {
	f := newTestMigrationService()
	ctx := context.Background()
	f.iterations.iterations["it-1"] = &secondary.IterationRecord{ID: "it-1", MigrationID: "mig-1", Name: "Cutover"}

	err := f.service.UpdateIteration(ctx, primary.UpdateIterationRequest{ID: "it-1", MigrationID: "mig-missing"})
	if !dberr.IsForeignKeyViolation(err) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}
	if f.iterations.updated != nil {
		t.Error("expected no update when target migration is missing")
	}

	f.hierarchy.put("migration", "mig-2", secondary.NodeState{})
	if err := f.service.UpdateIteration(ctx, primary.UpdateIterationRequest{ID: "it-1", MigrationID: "mig-2"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.iterations.updated.MigrationID != "mig-2" {
		t.Errorf("expected re-parent to mig-2, got %q", f.iterations.updated.MigrationID)
	}
}

func TestMigrationService_ListIterations(t *testing.T) {
	f := newTestMigrationService()
	f.iterations.iterations["it-1"] = &secondary.IterationRecord{ID: "it-1", MigrationID: "mig-1", MigrationName: "Exit"}
	f.iterations.iterations["it-2"] = &secondary.IterationRecord{ID: "it-2", MigrationID: "mig-2"}

	iterations, err := f.service.ListIterations(context.Background(), primary.IterationFilters{
		MigrationID: "mig-1",
		Status:      "PLANNING",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(iterations) != 1 || iterations[0].MigrationName != "Exit" {
		t.Errorf("expected one iteration of Exit, got %+v", iterations)
	}
	if f.iterations.listed.StatusName != "PLANNING" {
		t.Errorf("expected status filter to pass through, got %q", f.iterations.listed.StatusName)
	}
}

func TestMigrationService_DeleteMigration(t *testing.T) {
	tests := []struct {
		name       string
		state      *secondary.NodeState
		hard       bool
		wantCheck  func(error) bool
		wantSoft   int
		wantHard   int
		wantAudits int
	}{
		{
			name:       "soft delete leaves children",
			state:      &secondary.NodeState{Children: 2},
			wantSoft:   1,
			wantAudits: 1,
		},
		{
			name:      "soft delete twice is rejected",
			state:     &secondary.NodeState{Deleted: true},
			wantCheck: dberr.IsValidation,
		},
		{
			name:      "hard delete with children is foreign key violation",
			state:     &secondary.NodeState{Children: 1},
			hard:      true,
			wantCheck: dberr.IsForeignKeyViolation,
		},
		{
			name:       "hard delete without children",
			state:      &secondary.NodeState{},
			hard:       true,
			wantHard:   1,
			wantAudits: 1,
		},
		{
			name:      "missing migration",
			hard:      true,
			wantCheck: dberr.IsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestMigrationService()
			if tt.state != nil {
				f.hierarchy.put("migration", "mig-1", *tt.state)
			}

			err := f.service.DeleteMigration(context.Background(), primary.DeleteRequest{ID: "mig-1", Hard: tt.hard})
			if tt.wantCheck != nil {
				if err == nil || !tt.wantCheck(err) {
					t.Fatalf("unexpected error: %v", err)
				}
			} else if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(f.hierarchy.softDeleted) != tt.wantSoft {
				t.Errorf("expected %d soft deletes, got %d", tt.wantSoft, len(f.hierarchy.softDeleted))
			}
			if len(f.hierarchy.hardDeleted) != tt.wantHard {
				t.Errorf("expected %d hard deletes, got %d", tt.wantHard, len(f.hierarchy.hardDeleted))
			}
			if len(f.logWriter.entries) != tt.wantAudits {
				t.Errorf("expected %d audit entries, got %v", tt.wantAudits, f.logWriter.entries)
			}
		})
	}
}
