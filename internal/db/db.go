package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/example/umig/internal/config"
)

// Open opens the SQLite database at path with the given driver, enables
// foreign keys on every pooled connection and brings the schema up to date.
func Open(driver, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	database, err := sql.Open(driver, DSN(driver, path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; serialising through one connection
	// avoids SQLITE_BUSY under the API's concurrent handlers.
	database.SetMaxOpenConns(1)

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := InitSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// OpenFromConfig opens the database described by cfg.
func OpenFromConfig(cfg config.DatabaseConfig) (*sql.DB, error) {
	return Open(cfg.Driver, cfg.Path)
}

// OpenInMemory opens a private in-memory database with the full schema.
// Used by tests in every package that needs real persistence.
func OpenInMemory() (*sql.DB, error) {
	return Open(config.DriverMattn, ":memory:")
}

// DSN builds the driver-specific data source name with foreign keys enabled.
func DSN(driver, path string) string {
	switch driver {
	case config.DriverModernc:
		if path == ":memory:" {
			return "file::memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		}
		return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	default:
		if path == ":memory:" {
			return "file::memory:?_foreign_keys=on&_busy_timeout=5000"
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return "file:" + path + sep + "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	}
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back when fn returns an error or panics.
func WithTx(ctx context.Context, database *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DefaultPath returns the database path under the UMIG home directory.
func DefaultPath() (string, error) {
	home, err := config.HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "umig.db"), nil
}
