// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database is opened for tests.
// All test setup goes through db.OpenInMemory(), which applies the
// authoritative schema from db.GetSchemaSQL() and enables foreign keys,
// preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/example/umig/internal/adapters/sqlite"
	"github.com/example/umig/internal/db"
	"github.com/example/umig/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// The pool holds a single connection, so PRAGMA changes made by a test
// apply to every later statement in that test.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.OpenInMemory()
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// setupFixtureDB returns a database seeded with db.SeedFixtures.
func setupFixtureDB(t *testing.T) *sql.DB {
	t.Helper()
	testDB := setupTestDB(t)
	if err := db.SeedFixtures(testDB); err != nil {
		t.Fatalf("failed to seed fixtures: %v", err)
	}
	return testDB
}

// seedMigration inserts a migration in PLANNING status and returns its ID.
func seedMigration(t *testing.T, testDB *sql.DB, id, name string) string {
	t.Helper()
	_, err := testDB.Exec("INSERT INTO migrations (id, name, status_id) VALUES (?, ?, 1)", id, name)
	if err != nil {
		t.Fatalf("failed to seed migration: %v", err)
	}
	return id
}

// seedIteration inserts an iteration in PLANNING status and returns its ID.
func seedIteration(t *testing.T, testDB *sql.DB, id, migrationID, name string) string {
	t.Helper()
	_, err := testDB.Exec("INSERT INTO iterations (id, migration_id, name, status_id) VALUES (?, ?, ?, 5)", id, migrationID, name)
	if err != nil {
		t.Fatalf("failed to seed iteration: %v", err)
	}
	return id
}

// instantiateFixturePlan copies the fixture plan master into the fixture
// iteration and returns the result.
func instantiateFixturePlan(t *testing.T, testDB *sql.DB) *secondary.InstantiateResult {
	t.Helper()
	inst := sqlite.NewPlanInstantiator(testDB, nil)
	result, err := inst.InstantiatePlan(context.Background(), secondary.InstantiateRequest{
		PlanMasterID: db.FixturePlanMaster,
		IterationID:  db.FixtureIteration,
		Actor:        "ADM",
	})
	if err != nil {
		t.Fatalf("failed to instantiate fixture plan: %v", err)
	}
	return result
}

// stepInstanceByMaster returns the ID of the step instance created from stepMasterID.
func stepInstanceByMaster(t *testing.T, testDB *sql.DB, stepMasterID string) string {
	t.Helper()
	var id string
	if err := testDB.QueryRow("SELECT id FROM steps_instance WHERE step_master_id = ? LIMIT 1", stepMasterID).Scan(&id); err != nil {
		t.Fatalf("failed to find step instance: %v", err)
	}
	return id
}

// seedOrphanStep inserts a step instance whose phase instance does not
// exist. Foreign keys are switched off for the insert only.
func seedOrphanStep(t *testing.T, testDB *sql.DB, id string) string {
	t.Helper()
	stmts := []struct {
		query string
		args  []any
	}{
		{"PRAGMA foreign_keys = OFF", nil},
		{"INSERT INTO steps_instance (id, step_master_id, phase_instance_id, name, status_id) VALUES (?, ?, 'ghost-phase', 'Orphaned Step', 21)",
			[]any{id, db.FixtureStepDeploy}},
		{"PRAGMA foreign_keys = ON", nil},
	}
	for _, s := range stmts {
		if _, err := testDB.Exec(s.query, s.args...); err != nil {
			t.Fatalf("failed to seed orphan: %v", err)
		}
	}
	return id
}
