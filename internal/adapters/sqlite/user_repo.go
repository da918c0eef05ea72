package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

// UserRepository implements secondary.UserRepository with SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *secondary.UserRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, code, first_name, last_name, email, team_id, is_admin) VALUES (?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Code, nullString(user.FirstName), nullString(user.LastName),
		nullString(user.Email), nullString(user.TeamID), user.IsAdmin,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", dberr.Classify(err, "user", dberr.OpCreate))
	}
	return nil
}

func scanUser(scan func(...any) error) (*secondary.UserRecord, error) {
	var first, last, email, teamID sql.NullString
	record := &secondary.UserRecord{}
	if err := scan(&record.ID, &record.Code, &first, &last, &email, &teamID, &record.IsAdmin); err != nil {
		return nil, err
	}
	record.FirstName = first.String
	record.LastName = last.String
	record.Email = email.String
	record.TeamID = teamID.String
	return record, nil
}

// GetByCode retrieves a user by its unique code.
func (r *UserRepository) GetByCode(ctx context.Context, code string) (*secondary.UserRecord, error) {
	record, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, code, first_name, last_name, email, team_id, is_admin FROM users WHERE code = ?", code,
	).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("user", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return record, nil
}

// List retrieves users, optionally restricted to a team.
func (r *UserRepository) List(ctx context.Context, teamID string) ([]*secondary.UserRecord, error) {
	query := "SELECT id, code, first_name, last_name, email, team_id, is_admin FROM users WHERE 1=1"
	args := []any{}
	if teamID != "" {
		query += " AND team_id = ?"
		args = append(args, teamID)
	}
	query += " ORDER BY code"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*secondary.UserRecord
	for rows.Next() {
		record, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, record)
	}
	return users, rows.Err()
}

var _ secondary.UserRepository = (*UserRepository)(nil)
