package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

// TeamRepository implements secondary.TeamRepository with SQLite.
type TeamRepository struct {
	db *sql.DB
}

// NewTeamRepository creates a new SQLite team repository.
func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create persists a new team.
func (r *TeamRepository) Create(ctx context.Context, team *secondary.TeamRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO teams (id, name, email, description) VALUES (?, ?, ?, ?)",
		team.ID, team.Name, nullString(team.Email), nullString(team.Description),
	)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", dberr.Classify(err, "team", dberr.OpCreate))
	}
	return nil
}

const teamColumns = "id, name, email, description, created_at, updated_at"

func scanTeam(scan func(...any) error) (*secondary.TeamRecord, error) {
	var (
		email, desc          sql.NullString
		createdAt, updatedAt sql.NullTime
	)
	record := &secondary.TeamRecord{}
	if err := scan(&record.ID, &record.Name, &email, &desc, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	record.Email = email.String
	record.Description = desc.String
	record.CreatedAt = formatTime(createdAt)
	record.UpdatedAt = formatTime(updatedAt)
	return record, nil
}

// GetByID retrieves a team by its ID.
func (r *TeamRepository) GetByID(ctx context.Context, id string) (*secondary.TeamRecord, error) {
	record, err := scanTeam(r.db.QueryRowContext(ctx, "SELECT "+teamColumns+" FROM teams WHERE id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("team", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return record, nil
}

// GetByName retrieves a team by its unique name.
func (r *TeamRepository) GetByName(ctx context.Context, name string) (*secondary.TeamRecord, error) {
	record, err := scanTeam(r.db.QueryRowContext(ctx, "SELECT "+teamColumns+" FROM teams WHERE name = ?", name).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("team", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return record, nil
}

// List retrieves all teams ordered by name.
func (r *TeamRepository) List(ctx context.Context) ([]*secondary.TeamRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+teamColumns+" FROM teams ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*secondary.TeamRecord
	for rows.Next() {
		record, err := scanTeam(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, record)
	}
	return teams, rows.Err()
}

// Delete removes a team. Teams still owning plans, steps or users cannot be deleted.
func (r *TeamRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM teams WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", dberr.Classify(err, "team", dberr.OpDelete))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dberr.NotFound("team", id)
	}
	return nil
}

var _ secondary.TeamRepository = (*TeamRepository)(nil)
