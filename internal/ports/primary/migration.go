package primary

import "context"

// MigrationService defines the primary port for migrations and their iterations.
type MigrationService interface {
	// CreateMigration creates a migration in PLANNING status.
	CreateMigration(ctx context.Context, req CreateMigrationRequest) (*Migration, error)

	// GetMigration retrieves a migration by ID.
	GetMigration(ctx context.Context, id string) (*Migration, error)

	// ListMigrations lists migrations with optional filters.
	ListMigrations(ctx context.Context, filters MigrationFilters) ([]*Migration, error)

	// UpdateMigration updates a migration. Empty fields are left unchanged.
	UpdateMigration(ctx context.Context, req UpdateMigrationRequest) error

	// DeleteMigration soft-deletes a migration, or removes it when Hard is set.
	DeleteMigration(ctx context.Context, req DeleteRequest) error

	// CreateIteration creates an iteration under a migration.
	CreateIteration(ctx context.Context, req CreateIterationRequest) (*Iteration, error)

	// GetIteration retrieves an iteration by ID.
	GetIteration(ctx context.Context, id string) (*Iteration, error)

	// ListIterations lists iterations with optional filters.
	ListIterations(ctx context.Context, filters IterationFilters) ([]*Iteration, error)

	// UpdateIteration updates an iteration; a MigrationID moves it to another migration.
	UpdateIteration(ctx context.Context, req UpdateIterationRequest) error

	// DeleteIteration soft-deletes an iteration, or removes it when Hard is set.
	DeleteIteration(ctx context.Context, req DeleteRequest) error
}

// DeleteRequest selects soft or hard deletion of one row.
type DeleteRequest struct {
	ID   string
	Hard bool
}

// CreateMigrationRequest contains parameters for creating a migration.
type CreateMigrationRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Type        string `json:"type"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// UpdateMigrationRequest contains parameters for updating a migration.
type UpdateMigrationRequest struct {
	ID          string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// Migration represents a migration at the port boundary.
type Migration struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Type        string  `json:"type"`
	Status      *Status `json:"status,omitempty"`
	StartDate   string  `json:"startDate,omitempty"`
	EndDate     string  `json:"endDate,omitempty"`
	DeletedAt   string  `json:"deletedAt,omitempty"`
	CreatedBy   string  `json:"createdBy,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
	UpdatedBy   string  `json:"updatedBy,omitempty"`
	UpdatedAt   string  `json:"updatedAt,omitempty"`
}

// MigrationFilters contains filter options for listing migrations.
type MigrationFilters struct {
	Status         string `form:"status"`
	IncludeDeleted bool   `form:"includeDeleted"`
}

// CreateIterationRequest contains parameters for creating an iteration.
type CreateIterationRequest struct {
	MigrationID string `json:"migrationId" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Type        string `json:"type"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// UpdateIterationRequest contains parameters for updating an iteration.
type UpdateIterationRequest struct {
	ID          string `json:"-"`
	MigrationID string `json:"migrationId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// Iteration represents an iteration at the port boundary.
type Iteration struct {
	ID            string  `json:"id"`
	MigrationID   string  `json:"migrationId"`
	MigrationName string  `json:"migrationName,omitempty"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Type          string  `json:"type"`
	Status        *Status `json:"status,omitempty"`
	StartDate     string  `json:"startDate,omitempty"`
	EndDate       string  `json:"endDate,omitempty"`
	DeletedAt     string  `json:"deletedAt,omitempty"`
	CreatedAt     string  `json:"createdAt,omitempty"`
	UpdatedAt     string  `json:"updatedAt,omitempty"`
}

// IterationFilters contains filter options for listing iterations.
type IterationFilters struct {
	MigrationID    string `form:"migrationId" validate:"omitempty,max=64"`
	Status         string `form:"status"`
	IncludeDeleted bool   `form:"includeDeleted"`
}
