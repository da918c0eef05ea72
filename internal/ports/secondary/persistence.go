// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import "context"

// StatusRecord is a row of the shared status lookup.
type StatusRecord struct {
	ID         int
	Name       string
	Color      string
	EntityType string
}

// StatusRepository defines the secondary port for the status lookup.
type StatusRepository interface {
	// GetByID retrieves a status by its ID.
	GetByID(ctx context.Context, id int) (*StatusRecord, error)

	// GetByName retrieves the status with the given name for an entity type.
	GetByName(ctx context.Context, name, entityType string) (*StatusRecord, error)

	// List retrieves statuses, optionally restricted to one entity type.
	List(ctx context.Context, entityType string) ([]*StatusRecord, error)
}

// TeamRecord represents a team as stored in persistence.
type TeamRecord struct {
	ID          string
	Name        string
	Email       string
	Description string
	CreatedAt   string
	UpdatedAt   string
}

// TeamRepository defines the secondary port for team persistence.
type TeamRepository interface {
	Create(ctx context.Context, team *TeamRecord) error
	GetByID(ctx context.Context, id string) (*TeamRecord, error)
	GetByName(ctx context.Context, name string) (*TeamRecord, error)
	List(ctx context.Context) ([]*TeamRecord, error)
	Delete(ctx context.Context, id string) error
}

// UserRecord represents a user as stored in persistence.
type UserRecord struct {
	ID        string
	Code      string
	FirstName string
	LastName  string
	Email     string
	TeamID    string
	IsAdmin   bool
}

// UserRepository defines the secondary port for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *UserRecord) error
	GetByCode(ctx context.Context, code string) (*UserRecord, error)
	List(ctx context.Context, teamID string) ([]*UserRecord, error)
}

// MigrationRecord represents a migration as stored in persistence.
type MigrationRecord struct {
	ID          string
	Name        string
	Description string
	Type        string
	StatusID    int
	Status      *StatusRecord // Enriched on read
	StartDate   string
	EndDate     string
	DeletedAt   string
	CreatedBy   string
	CreatedAt   string
	UpdatedBy   string
	UpdatedAt   string
}

// MigrationFilters contains filter options for querying migrations.
type MigrationFilters struct {
	StatusName     string
	IncludeDeleted bool
}

// MigrationRepository defines the secondary port for migration persistence.
type MigrationRepository interface {
	// Create persists a new migration.
	Create(ctx context.Context, migration *MigrationRecord) error

	// GetByID retrieves a migration by its ID, soft-deleted or not.
	GetByID(ctx context.Context, id string) (*MigrationRecord, error)

	// List retrieves migrations matching the given filters.
	List(ctx context.Context, filters MigrationFilters) ([]*MigrationRecord, error)

	// Update updates name, description, type and dates. Empty fields are left unchanged.
	Update(ctx context.Context, migration *MigrationRecord) error
}

// IterationRecord represents an iteration as stored in persistence.
type IterationRecord struct {
	ID            string
	MigrationID   string
	MigrationName string // Enriched on read; empty for orphans
	Name          string
	Description   string
	Type          string
	StatusID      int
	Status        *StatusRecord
	StartDate     string
	EndDate       string
	DeletedAt     string
	CreatedBy     string
	CreatedAt     string
	UpdatedBy     string
	UpdatedAt     string
}

// IterationFilters contains filter options for querying iterations.
type IterationFilters struct {
	MigrationID    string
	StatusName     string
	IncludeDeleted bool
}

// IterationRepository defines the secondary port for iteration persistence.
type IterationRepository interface {
	Create(ctx context.Context, iteration *IterationRecord) error
	GetByID(ctx context.Context, id string) (*IterationRecord, error)
	List(ctx context.Context, filters IterationFilters) ([]*IterationRecord, error)

	// Update updates an iteration. A non-empty MigrationID re-parents the iteration.
	Update(ctx context.Context, iteration *IterationRecord) error
}

// PlanMasterRecord represents a plan template as stored in persistence.
type PlanMasterRecord struct {
	ID          string
	TeamID      string
	Name        string
	Description string
	StatusID    int
	Status      *StatusRecord
	DeletedAt   string
	CreatedBy   string
	CreatedAt   string
	UpdatedBy   string
	UpdatedAt   string
}

// PlanInstanceRecord represents a plan applied to an iteration.
type PlanInstanceRecord struct {
	ID            string
	PlanMasterID  string
	IterationID   string
	IterationName string // Enriched on read; empty for orphans
	Name          string
	Description   string
	StatusID      int
	Status        *StatusRecord
	DeletedAt     string
	CreatedBy     string
	CreatedAt     string
	UpdatedBy     string
	UpdatedAt     string
}

// PlanInstanceFilters contains filter options for querying plan instances.
type PlanInstanceFilters struct {
	MigrationID    string
	IterationID    string
	PlanMasterID   string
	StatusName     string
	IncludeDeleted bool
}

// PlanRepository defines the secondary port for plan master and instance persistence.
type PlanRepository interface {
	CreateMaster(ctx context.Context, plan *PlanMasterRecord) error
	GetMaster(ctx context.Context, id string) (*PlanMasterRecord, error)
	ListMasters(ctx context.Context, includeDeleted bool) ([]*PlanMasterRecord, error)
	UpdateMaster(ctx context.Context, plan *PlanMasterRecord) error

	GetInstance(ctx context.Context, id string) (*PlanInstanceRecord, error)
	ListInstances(ctx context.Context, filters PlanInstanceFilters) ([]*PlanInstanceRecord, error)
}

// SequenceMasterRecord represents a sequence template.
type SequenceMasterRecord struct {
	ID            string
	PlanMasterID  string
	Order         int
	Name          string
	Description   string
	PredecessorID string
	DeletedAt     string
	CreatedBy     string
	CreatedAt     string
}

// SequenceInstanceRecord represents a sequence within a plan instance.
type SequenceInstanceRecord struct {
	ID               string
	SequenceMasterID string
	PlanInstanceID   string
	Name             string
	Order            int
	StatusID         int
	Status           *StatusRecord
	DeletedAt        string
	CreatedAt        string
	UpdatedAt        string
}

// SequenceRepository defines the secondary port for sequence persistence.
type SequenceRepository interface {
	CreateMaster(ctx context.Context, seq *SequenceMasterRecord) error
	GetMaster(ctx context.Context, id string) (*SequenceMasterRecord, error)
	ListMasters(ctx context.Context, planMasterID string) ([]*SequenceMasterRecord, error)
	// NextMasterOrder returns the first order after every sequence of the
	// plan template, soft-deleted ones included.
	NextMasterOrder(ctx context.Context, planMasterID string) (int, error)

	GetInstance(ctx context.Context, id string) (*SequenceInstanceRecord, error)
	ListInstances(ctx context.Context, planInstanceID string, includeDeleted bool) ([]*SequenceInstanceRecord, error)
}

// PhaseMasterRecord represents a phase template.
type PhaseMasterRecord struct {
	ID               string
	SequenceMasterID string
	Order            int
	Name             string
	Description      string
	PredecessorID    string
	DeletedAt        string
	CreatedBy        string
	CreatedAt        string
}

// PhaseInstanceRecord represents a phase within a sequence instance.
type PhaseInstanceRecord struct {
	ID                 string
	PhaseMasterID      string
	SequenceInstanceID string
	Name               string
	Order              int
	StatusID           int
	Status             *StatusRecord
	DeletedAt          string
	CreatedAt          string
	UpdatedAt          string
}

// PhaseRepository defines the secondary port for phase persistence.
type PhaseRepository interface {
	CreateMaster(ctx context.Context, phase *PhaseMasterRecord) error
	GetMaster(ctx context.Context, id string) (*PhaseMasterRecord, error)
	ListMasters(ctx context.Context, sequenceMasterID string) ([]*PhaseMasterRecord, error)
	// NextMasterOrder returns the first order after every phase of the
	// sequence template, soft-deleted ones included.
	NextMasterOrder(ctx context.Context, sequenceMasterID string) (int, error)

	GetInstance(ctx context.Context, id string) (*PhaseInstanceRecord, error)
	ListInstances(ctx context.Context, sequenceInstanceID string, includeDeleted bool) ([]*PhaseInstanceRecord, error)
}

// StepMasterRecord represents a step template.
type StepMasterRecord struct {
	ID              string
	PhaseMasterID   string
	TeamID          string
	TypeCode        string
	Number          int
	Name            string
	Description     string
	DurationMinutes int
	DeletedAt       string
	CreatedBy       string
	CreatedAt       string
}

// StepInstanceRecord represents an executable step together with the
// names of its ancestors. Ancestor fields are empty when the chain is broken.
type StepInstanceRecord struct {
	ID              string
	StepMasterID    string
	PhaseInstanceID string
	Name            string
	TypeCode        string
	Number          int
	StatusID        int
	Status          *StatusRecord
	TeamID          string
	TeamName        string
	TeamEmail       string
	StartedAt       string
	CompletedAt     string
	DeletedAt       string
	CreatedBy       string
	CreatedAt       string
	UpdatedBy       string
	UpdatedAt       string

	PhaseName          string
	SequenceInstanceID string
	SequenceName       string
	PlanInstanceID     string
	PlanName           string
	IterationID        string
	IterationName      string
	MigrationID        string
	MigrationName      string
}

// StepInstanceFilters narrows step instances by any ancestor instance.
type StepInstanceFilters struct {
	MigrationID        string
	IterationID        string
	PlanInstanceID     string
	SequenceInstanceID string
	PhaseInstanceID    string
	TeamID             string
	StatusName         string
	IncludeDeleted     bool
	Limit              int
}

// StepDetailsRecord is a step instance enriched with its instructions
// and most recent comments.
type StepDetailsRecord struct {
	Step           *StepInstanceRecord
	Instructions   []*InstructionInstanceRecord
	RecentComments []*CommentRecord
}

// StepRepository defines the secondary port for step persistence.
type StepRepository interface {
	CreateMaster(ctx context.Context, step *StepMasterRecord) error
	GetMaster(ctx context.Context, id string) (*StepMasterRecord, error)
	ListMasters(ctx context.Context, phaseMasterID string) ([]*StepMasterRecord, error)
	// NextMasterNumber returns the first number after every step of the
	// type code in the phase template, soft-deleted ones included.
	NextMasterNumber(ctx context.Context, phaseMasterID, typeCode string) (int, error)

	// GetInstance retrieves a step instance with ancestor names.
	GetInstance(ctx context.Context, id string) (*StepInstanceRecord, error)

	// ListInstances retrieves step instances under the given ancestors.
	ListInstances(ctx context.Context, filters StepInstanceFilters) ([]*StepInstanceRecord, error)

	// GetDetails retrieves a step instance with its instructions and the
	// commentLimit most recent comments.
	GetDetails(ctx context.Context, id string, commentLimit int) (*StepDetailsRecord, error)

	// AssignTeam overrides the owning team of a step instance.
	AssignTeam(ctx context.Context, id, teamID, actor string) error
}

// InstructionMasterRecord represents an instruction template.
type InstructionMasterRecord struct {
	ID              string
	StepMasterID    string
	TeamID          string
	Order           int
	Body            string
	DurationMinutes int
	DeletedAt       string
	CreatedBy       string
	CreatedAt       string
}

// InstructionInstanceRecord represents an instruction within a step instance.
// Order and Body come from the master.
type InstructionInstanceRecord struct {
	ID                  string
	InstructionMasterID string
	StepInstanceID      string
	Order               int
	Body                string
	IsCompleted         bool
	CompletedAt         string
	CompletedBy         string
	DeletedAt           string
	CreatedAt           string
	UpdatedAt           string
}

// InstructionRepository defines the secondary port for instruction persistence.
type InstructionRepository interface {
	CreateMaster(ctx context.Context, instruction *InstructionMasterRecord) error
	ListMasters(ctx context.Context, stepMasterID string) ([]*InstructionMasterRecord, error)
	// NextMasterOrder returns the first order after every instruction of the
	// step template, soft-deleted ones included.
	NextMasterOrder(ctx context.Context, stepMasterID string) (int, error)

	GetInstance(ctx context.Context, id string) (*InstructionInstanceRecord, error)
	ListInstances(ctx context.Context, stepInstanceID string) ([]*InstructionInstanceRecord, error)

	// SetCompleted marks an instruction instance complete (by is recorded) or clears completion.
	SetCompleted(ctx context.Context, id string, completed bool, by string) error
}

// CommentRecord represents a step instance comment.
type CommentRecord struct {
	ID             int64
	StepInstanceID string
	Body           string
	Author         string
	CreatedAt      string
	UpdatedAt      string
}

// CommentRepository defines the secondary port for comment persistence.
type CommentRepository interface {
	// Create persists a comment and sets its ID.
	Create(ctx context.Context, comment *CommentRecord) error
	GetByID(ctx context.Context, id int64) (*CommentRecord, error)

	// ListByStep returns comments newest first. limit <= 0 returns all.
	ListByStep(ctx context.Context, stepInstanceID string, limit int) ([]*CommentRecord, error)
	Update(ctx context.Context, id int64, body string) error
	Delete(ctx context.Context, id int64) error
}

// NodeState describes a hierarchy row for guard evaluation.
type NodeState struct {
	Exists   bool
	Deleted  bool
	StatusID int
	Children int
}

// BulkStatusFailure records a row that could not be updated.
type BulkStatusFailure struct {
	ID  string
	Err error
}

// BulkStatusResult summarises a bulk status update.
type BulkStatusResult struct {
	Updated  []string
	Failed   []BulkStatusFailure
	Previous map[string]int // status ID before the update, by updated row ID
}

// HierarchyRepository defines level-generic operations over the hierarchy.
// level is one of the hierarchy level names (migration, iteration,
// plan_master, plan, sequence_master, sequence, phase_master, phase,
// step_master, step, instruction_master, instruction).
type HierarchyRepository interface {
	// State returns existence, soft-delete and child count for a row.
	State(ctx context.Context, level, id string) (*NodeState, error)

	// SoftDelete sets deleted_at. Children are untouched.
	SoftDelete(ctx context.Context, level, id, actor string) error

	// Restore clears deleted_at.
	Restore(ctx context.Context, level, id, actor string) error

	// HardDelete removes the row. Live children cause a foreign key violation.
	HardDelete(ctx context.Context, level, id string) error

	// UpdateStatus sets the status of a status-bearing row.
	UpdateStatus(ctx context.Context, level, id string, statusID int, actor string) error

	// BulkUpdateStatus updates many rows in one transaction. Missing and
	// soft-deleted rows fail. With continueOnError, failing rows are
	// recorded and the rest commit; otherwise the first failure rolls back
	// every row.
	BulkUpdateStatus(ctx context.Context, level string, ids []string, statusID int, actor string, continueOnError bool) (*BulkStatusResult, error)
}

// InstantiateRequest describes copying a plan master tree into an iteration.
type InstantiateRequest struct {
	PlanMasterID string
	IterationID  string
	Name         string // Optional; defaults to the master name
	Actor        string
}

// InstantiateResult reports what was created.
type InstantiateResult struct {
	PlanInstanceID string
	Sequences      int
	Phases         int
	Steps          int
	Instructions   int
}

// Instantiator copies master trees into instance rows atomically.
type Instantiator interface {
	InstantiatePlan(ctx context.Context, req InstantiateRequest) (*InstantiateResult, error)
}

// AuditLogRecord represents an audit trail entry.
type AuditLogRecord struct {
	ID         int64
	Actor      string
	EntityType string
	EntityID   string
	Action     string
	Details    string
	CreatedAt  string
}

// AuditLogFilters contains filter options for querying audit entries.
type AuditLogFilters struct {
	EntityType string
	EntityID   string
	Actor      string
	Limit      int
}

// AuditLogRepository defines the secondary port for audit trail persistence.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *AuditLogRecord) error
	List(ctx context.Context, filters AuditLogFilters) ([]*AuditLogRecord, error)
}

// EmailTemplateRecord represents a notification e-mail template.
type EmailTemplateRecord struct {
	ID               string
	NotificationType string
	Name             string
	Subject          string
	BodyHTML         string
	IsActive         bool
	CreatedAt        string
	UpdatedAt        string
}

// EmailTemplateRepository defines the secondary port for template persistence.
type EmailTemplateRepository interface {
	// Upsert creates or replaces the template for its notification type.
	Upsert(ctx context.Context, tmpl *EmailTemplateRecord) error

	// GetActive returns the active template for a notification type.
	GetActive(ctx context.Context, notificationType string) (*EmailTemplateRecord, error)
	List(ctx context.Context) ([]*EmailTemplateRecord, error)
}

// Outbox statuses.
const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// OutboxRecord represents a rendered notification in the e-mail outbox.
type OutboxRecord struct {
	ID               string
	NotificationType string
	EntityType       string
	EntityID         string
	Recipients       []string
	Subject          string
	BodyHTML         string
	Variables        string // JSON
	Status           string
	Attempts         int
	LastError        string
	CreatedAt        string
	SentAt           string
}

// OutboxFilters contains filter options for querying the outbox.
type OutboxFilters struct {
	Status           string
	NotificationType string
	EntityID         string
	Limit            int
}

// EmailOutboxRepository defines the secondary port for the e-mail outbox.
type EmailOutboxRepository interface {
	Create(ctx context.Context, entry *OutboxRecord) error
	GetByID(ctx context.Context, id string) (*OutboxRecord, error)
	List(ctx context.Context, filters OutboxFilters) ([]*OutboxRecord, error)

	// ListDeliverable returns pending rows and failed rows with fewer than maxAttempts attempts, oldest first.
	ListDeliverable(ctx context.Context, maxAttempts, limit int) ([]*OutboxRecord, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}
