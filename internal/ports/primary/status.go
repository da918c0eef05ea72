package primary

import "context"

// Status is a status lookup entry at the port boundary.
type Status struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	EntityType string `json:"entityType"`
}

// StatusService defines the primary port for the status lookup.
type StatusService interface {
	// ListStatuses lists statuses, optionally for one entity type.
	ListStatuses(ctx context.Context, entityType string) ([]*Status, error)

	// ResolveStatus finds a status by name for an entity type.
	ResolveStatus(ctx context.Context, name, entityType string) (*Status, error)
}

// TeamService defines the primary port for teams and users.
type TeamService interface {
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*Team, error)
	ListTeams(ctx context.Context) ([]*Team, error)

	// DeleteTeam removes a team. Teams still referenced by users or steps cannot be deleted.
	DeleteTeam(ctx context.Context, id string) error

	ListUsers(ctx context.Context, teamID string) ([]*User, error)
}

// CreateTeamRequest contains parameters for creating a team.
type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email"`
	Description string `json:"description"`
}

// Team represents a team at the port boundary.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Description string `json:"description,omitempty"`
}

// User represents a user at the port boundary.
type User struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	TeamID    string `json:"teamId,omitempty"`
	IsAdmin   bool   `json:"isAdmin"`
}
