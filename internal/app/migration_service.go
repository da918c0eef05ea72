package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/umig/internal/core/hierarchy"
	"github.com/example/umig/internal/ctxutil"
	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/ports/secondary"
)

// MigrationServiceImpl implements the MigrationService interface.
type MigrationServiceImpl struct {
	migrationRepo secondary.MigrationRepository
	iterationRepo secondary.IterationRepository
	statusRepo    secondary.StatusRepository
	hierarchyRepo secondary.HierarchyRepository
	logWriter     secondary.LogWriter
}

// NewMigrationService creates a new MigrationService with injected dependencies.
func NewMigrationService(
	migrationRepo secondary.MigrationRepository,
	iterationRepo secondary.IterationRepository,
	statusRepo secondary.StatusRepository,
	hierarchyRepo secondary.HierarchyRepository,
	logWriter secondary.LogWriter,
) *MigrationServiceImpl {
	return &MigrationServiceImpl{
		migrationRepo: migrationRepo,
		iterationRepo: iterationRepo,
		statusRepo:    statusRepo,
		hierarchyRepo: hierarchyRepo,
		logWriter:     logWriter,
	}
}

// CreateMigration creates a migration in PLANNING status.
func (s *MigrationServiceImpl) CreateMigration(ctx context.Context, req primary.CreateMigrationRequest) (*primary.Migration, error) {
	if req.Name == "" {
		return nil, dberr.Validation("migration name is required")
	}

	status, err := resolveStatus(ctx, s.statusRepo, hierarchy.LevelMigration, initialStatusName)
	if err != nil {
		return nil, err
	}

	record := &secondary.MigrationRecord{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		StatusID:    status.ID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedBy:   ctxutil.ActorOrSystem(ctx),
	}
	if err := s.migrationRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	created, err := s.migrationRepo.GetByID(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created migration: %w", err)
	}
	return recordToMigration(created), nil
}

// GetMigration retrieves a migration by ID.
func (s *MigrationServiceImpl) GetMigration(ctx context.Context, id string) (*primary.Migration, error) {
	record, err := s.migrationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return recordToMigration(record), nil
}

// ListMigrations lists migrations with optional filters.
func (s *MigrationServiceImpl) ListMigrations(ctx context.Context, filters primary.MigrationFilters) ([]*primary.Migration, error) {
	records, err := s.migrationRepo.List(ctx, secondary.MigrationFilters{
		StatusName:     filters.Status,
		IncludeDeleted: filters.IncludeDeleted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	migrations := make([]*primary.Migration, len(records))
	for i, r := range records {
		migrations[i] = recordToMigration(r)
	}
	return migrations, nil
}

// UpdateMigration updates a migration. Empty fields are left unchanged.
func (s *MigrationServiceImpl) UpdateMigration(ctx context.Context, req primary.UpdateMigrationRequest) error {
	if req.ID == "" {
		return dberr.Validation("migration id is required")
	}
	return s.migrationRepo.Update(ctx, &secondary.MigrationRecord{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		UpdatedBy:   ctxutil.ActorOrSystem(ctx),
	})
}

// DeleteMigration soft-deletes a migration, or removes it when Hard is set.
func (s *MigrationServiceImpl) DeleteMigration(ctx context.Context, req primary.DeleteRequest) error {
	return deleteNode(ctx, s.hierarchyRepo, s.logWriter, hierarchy.LevelMigration, req)
}

// CreateIteration creates an iteration under a live migration.
func (s *MigrationServiceImpl) CreateIteration(ctx context.Context, req primary.CreateIterationRequest) (*primary.Iteration, error) {
	if req.Name == "" {
		return nil, dberr.Validation("iteration name is required")
	}
	if err := checkParent(ctx, s.hierarchyRepo, hierarchy.LevelIteration, req.MigrationID); err != nil {
		return nil, err
	}

	status, err := resolveStatus(ctx, s.statusRepo, hierarchy.LevelIteration, initialStatusName)
	if err != nil {
		return nil, err
	}

	record := &secondary.IterationRecord{
		ID:          uuid.NewString(),
		MigrationID: req.MigrationID,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		StatusID:    status.ID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedBy:   ctxutil.ActorOrSystem(ctx),
	}
	if err := s.iterationRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	created, err := s.iterationRepo.GetByID(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created iteration: %w", err)
	}
	return recordToIteration(created), nil
}

// GetIteration retrieves an iteration by ID.
func (s *MigrationServiceImpl) GetIteration(ctx context.Context, id string) (*primary.Iteration, error) {
	record, err := s.iterationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return recordToIteration(record), nil
}

// ListIterations lists iterations with optional filters.
func (s *MigrationServiceImpl) ListIterations(ctx context.Context, filters primary.IterationFilters) ([]*primary.Iteration, error) {
	records, err := s.iterationRepo.List(ctx, secondary.IterationFilters{
		MigrationID:    filters.MigrationID,
		StatusName:     filters.Status,
		IncludeDeleted: filters.IncludeDeleted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list iterations: %w", err)
	}

	iterations := make([]*primary.Iteration, len(records))
	for i, r := range records {
		iterations[i] = recordToIteration(r)
	}
	return iterations, nil
}

// UpdateIteration updates an iteration. Moving it requires a live target migration.
func (s *MigrationServiceImpl) UpdateIteration(ctx context.Context, req primary.UpdateIterationRequest) error {
	if req.ID == "" {
		return dberr.Validation("iteration id is required")
	}
	if req.MigrationID != "" {
		if err := checkParent(ctx, s.hierarchyRepo, hierarchy.LevelIteration, req.MigrationID); err != nil {
			return err
		}
	}
	return s.iterationRepo.Update(ctx, &secondary.IterationRecord{
		ID:          req.ID,
		MigrationID: req.MigrationID,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		UpdatedBy:   ctxutil.ActorOrSystem(ctx),
	})
}

// DeleteIteration soft-deletes an iteration, or removes it when Hard is set.
func (s *MigrationServiceImpl) DeleteIteration(ctx context.Context, req primary.DeleteRequest) error {
	return deleteNode(ctx, s.hierarchyRepo, s.logWriter, hierarchy.LevelIteration, req)
}

// Helper methods

func recordToMigration(r *secondary.MigrationRecord) *primary.Migration {
	return &primary.Migration{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Type:        r.Type,
		Status:      recordToStatus(r.Status),
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		DeletedAt:   r.DeletedAt,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedBy:   r.UpdatedBy,
		UpdatedAt:   r.UpdatedAt,
	}
}

func recordToIteration(r *secondary.IterationRecord) *primary.Iteration {
	return &primary.Iteration{
		ID:            r.ID,
		MigrationID:   r.MigrationID,
		MigrationName: r.MigrationName,
		Name:          r.Name,
		Description:   r.Description,
		Type:          r.Type,
		Status:        recordToStatus(r.Status),
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		DeletedAt:     r.DeletedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// Ensure MigrationServiceImpl implements the interface
var _ primary.MigrationService = (*MigrationServiceImpl)(nil)
