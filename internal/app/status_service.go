package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/ports/secondary"
)

// StatusServiceImpl implements the StatusService interface.
type StatusServiceImpl struct {
	statusRepo secondary.StatusRepository
}

// NewStatusService creates a new StatusService with injected dependencies.
func NewStatusService(statusRepo secondary.StatusRepository) *StatusServiceImpl {
	return &StatusServiceImpl{statusRepo: statusRepo}
}

// ListStatuses lists statuses, optionally for one entity type.
func (s *StatusServiceImpl) ListStatuses(ctx context.Context, entityType string) ([]*primary.Status, error) {
	records, err := s.statusRepo.List(ctx, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	statuses := make([]*primary.Status, len(records))
	for i, r := range records {
		statuses[i] = recordToStatus(r)
	}
	return statuses, nil
}

// ResolveStatus finds a status by name for an entity type.
func (s *StatusServiceImpl) ResolveStatus(ctx context.Context, name, entityType string) (*primary.Status, error) {
	if name == "" || entityType == "" {
		return nil, dberr.Validation("status name and entity type are required")
	}
	record, err := s.statusRepo.GetByName(ctx, name, entityType)
	if err != nil {
		return nil, err
	}
	return recordToStatus(record), nil
}

var _ primary.StatusService = (*StatusServiceImpl)(nil)

// TeamServiceImpl implements the TeamService interface.
type TeamServiceImpl struct {
	teamRepo secondary.TeamRepository
	userRepo secondary.UserRepository
}

// NewTeamService creates a new TeamService with injected dependencies.
func NewTeamService(teamRepo secondary.TeamRepository, userRepo secondary.UserRepository) *TeamServiceImpl {
	return &TeamServiceImpl{teamRepo: teamRepo, userRepo: userRepo}
}

// CreateTeam creates a team.
func (s *TeamServiceImpl) CreateTeam(ctx context.Context, req primary.CreateTeamRequest) (*primary.Team, error) {
	if req.Name == "" {
		return nil, dberr.Validation("team name is required")
	}
	record := &secondary.TeamRecord{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Email:       req.Email,
		Description: req.Description,
	}
	if err := s.teamRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return recordToTeam(record), nil
}

// ListTeams lists all teams.
func (s *TeamServiceImpl) ListTeams(ctx context.Context) ([]*primary.Team, error) {
	records, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	teams := make([]*primary.Team, len(records))
	for i, r := range records {
		teams[i] = recordToTeam(r)
	}
	return teams, nil
}

// DeleteTeam removes a team.
func (s *TeamServiceImpl) DeleteTeam(ctx context.Context, id string) error {
	if id == "" {
		return dberr.Validation("team id is required")
	}
	return s.teamRepo.Delete(ctx, id)
}

// ListUsers lists users, optionally of one team.
func (s *TeamServiceImpl) ListUsers(ctx context.Context, teamID string) ([]*primary.User, error) {
	records, err := s.userRepo.List(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]*primary.User, len(records))
	for i, r := range records {
		users[i] = &primary.User{
			ID:        r.ID,
			Code:      r.Code,
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Email:     r.Email,
			TeamID:    r.TeamID,
			IsAdmin:   r.IsAdmin,
		}
	}
	return users, nil
}

func recordToTeam(r *secondary.TeamRecord) *primary.Team {
	return &primary.Team{
		ID:          r.ID,
		Name:        r.Name,
		Email:       r.Email,
		Description: r.Description,
	}
}

var _ primary.TeamService = (*TeamServiceImpl)(nil)
