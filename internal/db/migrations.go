package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_hierarchy_tables",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_email_outbox_retry_columns",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_step_instance_team_assignment",
		Up:      migrationV3,
	},
}

// LatestVersion returns the highest known schema version.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// RunMigrations executes all pending migrations
func RunMigrations(database *sql.DB) error {
	if err := createVersionTable(database); err != nil {
		return err
	}

	currentVersion, err := CurrentVersion(database)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		if err := migration.Up(database); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := database.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// CurrentVersion returns the highest applied schema version, 0 if none.
func CurrentVersion(database *sql.DB) (int, error) {
	var currentVersion int
	err := database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return currentVersion, nil
}

func createVersionTable(database *sql.DB) error {
	_, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// columnExists reports whether table has a column named column.
func columnExists(database *sql.DB, table, column string) (bool, error) {
	rows, err := database.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func addColumnIfMissing(database *sql.DB, table, column, definition string) error {
	exists, err := columnExists(database, table, column)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	if exists {
		return nil
	}
	if _, err := database.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)); err != nil {
		return fmt.Errorf("failed to add %s.%s: %w", table, column, err)
	}
	return nil
}

// migrationV1 creates the baseline hierarchy. Every statement is idempotent.
func migrationV1(database *sql.DB) error {
	_, err := database.Exec(SchemaSQL)
	return err
}

// migrationV2 adds delivery bookkeeping to the outbox.
func migrationV2(database *sql.DB) error {
	if err := addColumnIfMissing(database, "email_outbox", "attempts", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	return addColumnIfMissing(database, "email_outbox", "last_error", "TEXT")
}

// migrationV3 lets a step instance be reassigned away from its master's team.
func migrationV3(database *sql.DB) error {
	if err := addColumnIfMissing(database, "steps_instance", "team_id", "TEXT REFERENCES teams(id)"); err != nil {
		return err
	}
	_, err := database.Exec("CREATE INDEX IF NOT EXISTS idx_steps_instance_team ON steps_instance(team_id)")
	return err
}
