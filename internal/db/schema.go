package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete modern schema for fresh UMIG installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL() or OpenInMemory(). If repository code
// references a column that doesn't exist here, tests fail immediately with
// "no such column".
//
// # Hierarchy
//
// Every *_instance row references exactly one *_master row and exactly one
// parent instance row. Hierarchy foreign keys never cascade: a hard delete
// of a row with live children fails with a foreign key violation. Soft
// deletes set deleted_at and leave children alone. Comments are the one
// exception and cascade with their step instance.
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
//  3. Bump LatestVersion
const SchemaSQL = `
-- Status lookup shared by every level of the hierarchy
CREATE TABLE IF NOT EXISTS statuses (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	color TEXT NOT NULL,
	entity_type TEXT NOT NULL CHECK(entity_type IN ('migration', 'iteration', 'plan', 'sequence', 'phase', 'step')),
	UNIQUE(name, entity_type)
);

INSERT OR IGNORE INTO statuses (id, name, color, entity_type) VALUES
	(1, 'PLANNING', '#FFA500', 'migration'),
	(2, 'IN_PROGRESS', '#0000FF', 'migration'),
	(3, 'COMPLETED', '#008000', 'migration'),
	(4, 'CANCELLED', '#FF0000', 'migration'),
	(5, 'PLANNING', '#FFA500', 'iteration'),
	(6, 'IN_PROGRESS', '#0000FF', 'iteration'),
	(7, 'COMPLETED', '#008000', 'iteration'),
	(8, 'CANCELLED', '#FF0000', 'iteration'),
	(9, 'PLANNING', '#FFA500', 'plan'),
	(10, 'IN_PROGRESS', '#0000FF', 'plan'),
	(11, 'COMPLETED', '#008000', 'plan'),
	(12, 'CANCELLED', '#FF0000', 'plan'),
	(13, 'PLANNING', '#FFA500', 'sequence'),
	(14, 'IN_PROGRESS', '#0000FF', 'sequence'),
	(15, 'COMPLETED', '#008000', 'sequence'),
	(16, 'CANCELLED', '#FF0000', 'sequence'),
	(17, 'PLANNING', '#FFA500', 'phase'),
	(18, 'IN_PROGRESS', '#0000FF', 'phase'),
	(19, 'COMPLETED', '#008000', 'phase'),
	(20, 'CANCELLED', '#FF0000', 'phase'),
	(21, 'PENDING', '#DDDDDD', 'step'),
	(22, 'TODO', '#FFFF00', 'step'),
	(23, 'IN_PROGRESS', '#FFA500', 'step'),
	(24, 'COMPLETED', '#008000', 'step'),
	(25, 'FAILED', '#FF0000', 'step'),
	(26, 'BLOCKED', '#FF4500', 'step'),
	(27, 'CANCELLED', '#000000', 'step');

-- Teams own plans, steps and instructions and receive step notifications
CREATE TABLE IF NOT EXISTS teams (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	email TEXT,
	description TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	first_name TEXT,
	last_name TEXT,
	email TEXT,
	team_id TEXT,
	is_admin INTEGER DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (team_id) REFERENCES teams(id)
);

-- Migrations (top of the hierarchy)
CREATE TABLE IF NOT EXISTS migrations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT,
	type TEXT NOT NULL DEFAULT 'EXTERNAL',
	status_id INTEGER NOT NULL,
	start_date DATETIME,
	end_date DATETIME,
	deleted_at DATETIME,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_by TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (status_id) REFERENCES statuses(id)
);

CREATE TABLE IF NOT EXISTS iterations (
	id TEXT PRIMARY KEY,
	migration_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	type TEXT NOT NULL CHECK(type IN ('RUN', 'DR', 'CUTOVER')) DEFAULT 'RUN',
	status_id INTEGER NOT NULL,
	start_date DATETIME,
	end_date DATETIME,
	deleted_at DATETIME,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_by TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (migration_id) REFERENCES migrations(id),
	FOREIGN KEY (status_id) REFERENCES statuses(id),
	UNIQUE(migration_id, name)
);

-- Plans
CREATE TABLE IF NOT EXISTS plans_master (
	id TEXT PRIMARY KEY,
	team_id TEXT,
	name TEXT NOT NULL UNIQUE,
	description TEXT,
	status_id INTEGER NOT NULL,
	deleted_at DATETIME,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_by TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (team_id) REFERENCES teams(id),
	FOREIGN KEY (status_id) REFERENCES statuses(id)
);

CREATE TABLE IF NOT EXISTS plans_instance (
	id TEXT PRIMARY KEY,
	plan_master_id TEXT NOT NULL,
	iteration_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	status_id INTEGER NOT NULL,
	deleted_at DATETIME,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_by TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (plan_master_id) REFERENCES plans_master(id),
	FOREIGN KEY (iteration_id) REFERENCES iterations(id),
	FOREIGN KEY (status_id) REFERENCES statuses(id)
);

-- Sequences
CREATE TABLE IF NOT EXISTS sequences_master (
	id TEXT PRIMARY KEY,
	plan_master_id TEXT NOT NULL,
	seq_order INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	predecessor_id TEXT,
	deleted_at DATETIME,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_by TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (plan_master_id) REFERENCES plans_master(id),
	FOREIGN KEY (predecessor_id) REFERENCES sequences_master(id),
	UNIQUE(plan_master_id, seq_order)
);

CREATE TABLE IF NOT EXISTS sequences_instance (
	id TEXT PRIMARY KEY,
	sequence_master_id TEXT NOT NULL,
	plan_instance_id TEXT NOT NULL,
	name TEXT NOT NULL,
	seq_order INTEGER NOT NULL,
	status_id INTEGER NOT NULL,
	deleted_at DATETIME,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_by TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (sequence_master_id) REFERENCES sequences_master(id),
	FOREIGN KEY (plan_instance_id) REFERENCES plans_instance(id),
	FOREIGN KEY (status_id) REFERENCES statuses(id)
);

-- Phases
CREATE TABLE IF NOT EXISTS phases_master (
	id TEXT PRIMARY KEY,
	sequence_master_id TEXT NOT NULL,
	phase_order INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	predecessor_id TEXT,
	deleted_at DATETIME,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_by TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (sequence_master_id) REFERENCES sequences_master(id),
	FOREIGN KEY (predecessor_id) REFERENCES phases_master(id),
	UNIQUE(sequence_master_id, phase_order)
);

CREATE TABLE IF NOT EXISTS phases_instance (
	id TEXT PRIMARY KEY,
	phase_master_id TEXT NOT NULL,
	sequence_instance_id TEXT NOT NULL,
	name TEXT NOT NULL,
	phase_order INTEGER NOT NULL,
	status_id INTEGER NOT NULL,
	deleted_at DATETIME,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_by TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (phase_master_id) REFERENCES phases_master(id),
	FOREIGN KEY (sequence_instance_id) REFERENCES sequences_instance(id),
	FOREIGN KEY (status_id) REFERENCES statuses(id)
);

-- Steps
CREATE TABLE IF NOT EXISTS steps_master (
	id TEXT PRIMARY KEY,
	phase_master_id TEXT NOT NULL,
	team_id TEXT,
	type_code TEXT NOT NULL,
	step_number INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	duration_minutes INTEGER DEFAULT 0,
	deleted_at DATETIME,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_by TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (phase_master_id) REFERENCES phases_master(id),
	FOREIGN KEY (team_id) REFERENCES teams(id),
	UNIQUE(phase_master_id, type_code, step_number)
);

CREATE TABLE IF NOT EXISTS steps_instance (
	id TEXT PRIMARY KEY,
	step_master_id TEXT NOT NULL,
	phase_instance_id TEXT NOT NULL,
	name TEXT NOT NULL,
	status_id INTEGER NOT NULL,
	team_id TEXT,
	started_at DATETIME,
	completed_at DATETIME,
	deleted_at DATETIME,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_by TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (step_master_id) REFERENCES steps_master(id),
	FOREIGN KEY (phase_instance_id) REFERENCES phases_instance(id),
	FOREIGN KEY (status_id) REFERENCES statuses(id),
	FOREIGN KEY (team_id) REFERENCES teams(id)
);

-- Instructions
CREATE TABLE IF NOT EXISTS instructions_master (
	id TEXT PRIMARY KEY,
	step_master_id TEXT NOT NULL,
	team_id TEXT,
	instruction_order INTEGER NOT NULL,
	body TEXT NOT NULL,
	duration_minutes INTEGER DEFAULT 0,
	deleted_at DATETIME,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_by TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (step_master_id) REFERENCES steps_master(id),
	FOREIGN KEY (team_id) REFERENCES teams(id),
	UNIQUE(step_master_id, instruction_order)
);

CREATE TABLE IF NOT EXISTS instructions_instance (
	id TEXT PRIMARY KEY,
	instruction_master_id TEXT NOT NULL,
	step_instance_id TEXT NOT NULL,
	is_completed INTEGER NOT NULL DEFAULT 0,
	completed_at DATETIME,
	completed_by TEXT,
	deleted_at DATETIME,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_by TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (instruction_master_id) REFERENCES instructions_master(id),
	FOREIGN KEY (step_instance_id) REFERENCES steps_instance(id)
);

-- Comments (single table, cascade with their step instance)
CREATE TABLE IF NOT EXISTS step_instance_comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	step_instance_id TEXT NOT NULL,
	body TEXT NOT NULL,
	author TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (step_instance_id) REFERENCES steps_instance(id) ON DELETE CASCADE
);

-- Audit trail of entity changes
CREATE TABLE IF NOT EXISTS audit_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	actor TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	action TEXT NOT NULL,
	details TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- E-mail templates per notification type
CREATE TABLE IF NOT EXISTS email_templates (
	id TEXT PRIMARY KEY,
	notification_type TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	subject TEXT NOT NULL,
	body_html TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Rendered notifications awaiting or after delivery
CREATE TABLE IF NOT EXISTS email_outbox (
	id TEXT PRIMARY KEY,
	notification_type TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	recipients TEXT NOT NULL,
	subject TEXT NOT NULL,
	body_html TEXT NOT NULL,
	variables TEXT,
	status TEXT NOT NULL CHECK(status IN ('pending', 'sent', 'failed')) DEFAULT 'pending',
	attempts INTEGER NOT NULL DEFAULT 0,
	last_error TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	sent_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_iterations_migration ON iterations(migration_id);
CREATE INDEX IF NOT EXISTS idx_plans_instance_iteration ON plans_instance(iteration_id);
CREATE INDEX IF NOT EXISTS idx_plans_instance_master ON plans_instance(plan_master_id);
CREATE INDEX IF NOT EXISTS idx_sequences_instance_plan ON sequences_instance(plan_instance_id);
CREATE INDEX IF NOT EXISTS idx_phases_instance_sequence ON phases_instance(sequence_instance_id);
CREATE INDEX IF NOT EXISTS idx_steps_instance_phase ON steps_instance(phase_instance_id);
CREATE INDEX IF NOT EXISTS idx_steps_instance_status ON steps_instance(status_id);
CREATE INDEX IF NOT EXISTS idx_steps_instance_team ON steps_instance(team_id);
CREATE INDEX IF NOT EXISTS idx_instructions_instance_step ON instructions_instance(step_instance_id);
CREATE INDEX IF NOT EXISTS idx_comments_step ON step_instance_comments(step_instance_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_entity ON audit_log(entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_email_outbox_status ON email_outbox(status);
`

// InitSchema creates the schema on a fresh database or runs pending
// migrations on an existing one.
func InitSchema(database *sql.DB) error {
	var tableCount int
	err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(database)
	}

	// Completely fresh install - create modern schema directly and mark
	// every migration as applied.
	if _, err := database.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := createVersionTable(database); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := database.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record schema version %d: %w", m.Version, err)
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
