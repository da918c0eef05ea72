package db

import (
	"database/sql"
	"fmt"
)

// Fixture IDs are fixed so that docs and manual testing can refer to them.
const (
	FixtureTeamDevOps    = "00000000-0000-4000-8000-000000000001"
	FixtureTeamDBA       = "00000000-0000-4000-8000-000000000002"
	FixtureMigration     = "00000000-0000-4000-8000-000000000101"
	FixtureIteration     = "00000000-0000-4000-8000-000000000201"
	FixturePlanMaster    = "00000000-0000-4000-8000-000000000301"
	FixtureSequenceOne   = "00000000-0000-4000-8000-000000000401"
	FixtureSequenceTwo   = "00000000-0000-4000-8000-000000000402"
	FixturePhasePrep     = "00000000-0000-4000-8000-000000000501"
	FixturePhaseCutover  = "00000000-0000-4000-8000-000000000502"
	FixtureStepBackup    = "00000000-0000-4000-8000-000000000601"
	FixtureStepDeploy    = "00000000-0000-4000-8000-000000000602"
	FixtureStepSmokeTest = "00000000-0000-4000-8000-000000000603"
)

// SeedFixtures populates the database with development fixtures: two teams,
// three users, one migration with a cutover iteration, and one plan master
// with a full sequence/phase/step/instruction tree ready to be instantiated.
func SeedFixtures(database *sql.DB) error {
	teams := []struct{ id, name, email string }{
		{FixtureTeamDevOps, "DevOps", "devops@example.com"},
		{FixtureTeamDBA, "DBA", "dba@example.com"},
	}
	for _, t := range teams {
		if _, err := database.Exec(
			"INSERT INTO teams (id, name, email) VALUES (?, ?, ?)",
			t.id, t.name, t.email,
		); err != nil {
			return fmt.Errorf("seed teams: %w", err)
		}
	}

	users := []struct{ id, code, first, last, email, teamID string }{
		{"00000000-0000-4000-8000-000000000011", "ADM", "Ada", "Admin", "adm@example.com", FixtureTeamDevOps},
		{"00000000-0000-4000-8000-000000000012", "JDO", "Jo", "Doe", "jdo@example.com", FixtureTeamDevOps},
		{"00000000-0000-4000-8000-000000000013", "DBX", "Dee", "Bex", "dbx@example.com", FixtureTeamDBA},
	}
	for _, u := range users {
		if _, err := database.Exec(
			"INSERT INTO users (id, code, first_name, last_name, email, team_id, is_admin) VALUES (?, ?, ?, ?, ?, ?, ?)",
			u.id, u.code, u.first, u.last, u.email, u.teamID, u.code == "ADM",
		); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}

	if _, err := database.Exec(
		"INSERT INTO migrations (id, name, description, type, status_id, created_by) VALUES (?, ?, ?, 'EXTERNAL', 1, 'system')",
		FixtureMigration, "Data Centre Exit", "Move core banking workloads to the new platform",
	); err != nil {
		return fmt.Errorf("seed migrations: %w", err)
	}

	if _, err := database.Exec(
		"INSERT INTO iterations (id, migration_id, name, description, type, status_id, created_by) VALUES (?, ?, ?, ?, 'CUTOVER', 5, 'system')",
		FixtureIteration, FixtureMigration, "Cutover 1", "First production cutover",
	); err != nil {
		return fmt.Errorf("seed iterations: %w", err)
	}

	if _, err := database.Exec(
		"INSERT INTO plans_master (id, team_id, name, description, status_id, created_by) VALUES (?, ?, ?, ?, 9, 'system')",
		FixturePlanMaster, FixtureTeamDevOps, "Standard Cutover Plan", "Reusable cutover runbook",
	); err != nil {
		return fmt.Errorf("seed plans_master: %w", err)
	}

	sequences := []struct {
		id, name    string
		order       int
		predecessor any
	}{
		{FixtureSequenceOne, "Preparation", 1, nil},
		{FixtureSequenceTwo, "Cutover", 2, FixtureSequenceOne},
	}
	for _, s := range sequences {
		if _, err := database.Exec(
			"INSERT INTO sequences_master (id, plan_master_id, seq_order, name, predecessor_id, created_by) VALUES (?, ?, ?, ?, ?, 'system')",
			s.id, FixturePlanMaster, s.order, s.name, s.predecessor,
		); err != nil {
			return fmt.Errorf("seed sequences_master: %w", err)
		}
	}

	phases := []struct{ id, sequenceID, name string }{
		{FixturePhasePrep, FixtureSequenceOne, "Pre-checks"},
		{FixturePhaseCutover, FixtureSequenceTwo, "Switch-over"},
	}
	for _, p := range phases {
		if _, err := database.Exec(
			"INSERT INTO phases_master (id, sequence_master_id, phase_order, name, created_by) VALUES (?, ?, 1, ?, 'system')",
			p.id, p.sequenceID, p.name,
		); err != nil {
			return fmt.Errorf("seed phases_master: %w", err)
		}
	}

	steps := []struct {
		id, phaseID, teamID, typeCode, name string
		number, duration                    int
	}{
		{FixtureStepBackup, FixturePhasePrep, FixtureTeamDBA, "DB", "Take Database Backup", 1, 45},
		{FixtureStepDeploy, FixturePhaseCutover, FixtureTeamDevOps, "APP", "Deploy Application", 1, 30},
		{FixtureStepSmokeTest, FixturePhaseCutover, FixtureTeamDevOps, "APP", "Run Smoke Tests", 2, 15},
	}
	for _, s := range steps {
		if _, err := database.Exec(
			"INSERT INTO steps_master (id, phase_master_id, team_id, type_code, step_number, name, duration_minutes, created_by) VALUES (?, ?, ?, ?, ?, ?, ?, 'system')",
			s.id, s.phaseID, s.teamID, s.typeCode, s.number, s.name, s.duration,
		); err != nil {
			return fmt.Errorf("seed steps_master: %w", err)
		}
	}

	instructions := []struct {
		id, stepID, body string
		order            int
	}{
		{"00000000-0000-4000-8000-000000000701", FixtureStepBackup, "Stop batch jobs", 1},
		{"00000000-0000-4000-8000-000000000702", FixtureStepBackup, "Run full backup and verify checksum", 2},
		{"00000000-0000-4000-8000-000000000703", FixtureStepDeploy, "Drain traffic from the old cluster", 1},
		{"00000000-0000-4000-8000-000000000704", FixtureStepDeploy, "Deploy release artefacts", 2},
		{"00000000-0000-4000-8000-000000000705", FixtureStepSmokeTest, "Execute smoke test suite", 1},
	}
	for _, i := range instructions {
		if _, err := database.Exec(
			"INSERT INTO instructions_master (id, step_master_id, instruction_order, body, created_by) VALUES (?, ?, ?, ?, 'system')",
			i.id, i.stepID, i.order, i.body,
		); err != nil {
			return fmt.Errorf("seed instructions_master: %w", err)
		}
	}

	return nil
}
