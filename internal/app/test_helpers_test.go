package app

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/ports/secondary"
)

// ============================================================================
// Status lookup
// ============================================================================

// mockStatusRepository implements secondary.StatusRepository with the standard status set.
type mockStatusRepository struct {
	statuses []*secondary.StatusRecord
}

func newMockStatusRepository() *mockStatusRepository {
	m := &mockStatusRepository{}
	id := 1
	for _, entity := range []string{"migration", "iteration", "plan", "sequence", "phase"} {
		for _, name := range []string{"PLANNING", "IN_PROGRESS", "COMPLETED", "CANCELLED"} {
			m.statuses = append(m.statuses, &secondary.StatusRecord{ID: id, Name: name, Color: "#000000", EntityType: entity})
			id++
		}
	}
	for _, name := range []string{"PENDING", "TODO", "IN_PROGRESS", "COMPLETED", "FAILED", "BLOCKED", "CANCELLED"} {
		m.statuses = append(m.statuses, &secondary.StatusRecord{ID: id, Name: name, Color: "#0052CC", EntityType: "step"})
		id++
	}
	return m
}

func (m *mockStatusRepository) GetByID(ctx context.Context, id int) (*secondary.StatusRecord, error) {
	for _, s := range m.statuses {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, dberr.NotFound("status", "?")
}

func (m *mockStatusRepository) GetByName(ctx context.Context, name, entityType string) (*secondary.StatusRecord, error) {
	for _, s := range m.statuses {
		if s.Name == name && s.EntityType == entityType {
			return s, nil
		}
	}
	return nil, dberr.NotFound(entityType+" status", name)
}

func (m *mockStatusRepository) List(ctx context.Context, entityType string) ([]*secondary.StatusRecord, error) {
	var out []*secondary.StatusRecord
	for _, s := range m.statuses {
		if entityType == "" || s.EntityType == entityType {
			out = append(out, s)
		}
	}
	return out, nil
}

// mustStatus returns the status record for name within entityType.
func (m *mockStatusRepository) mustStatus(name, entityType string) *secondary.StatusRecord {
	s, err := m.GetByName(context.Background(), name, entityType)
	if err != nil {
		panic(err)
	}
	return s
}

// ============================================================================
// Hierarchy
// ============================================================================

// mockHierarchyRepository implements secondary.HierarchyRepository for testing.
type mockHierarchyRepository struct {
	states        map[string]*secondary.NodeState
	softDeleted   []string
	hardDeleted   []string
	restored      []string
	statusUpdates map[string]int
	bulkCalls     int
	bulkResult    *secondary.BulkStatusResult
	bulkErr       error
	updateErr     error
	restoreErr    error
}

func newMockHierarchyRepository() *mockHierarchyRepository {
	return &mockHierarchyRepository{
		states:        make(map[string]*secondary.NodeState),
		statusUpdates: make(map[string]int),
	}
}

func nodeKey(level, id string) string { return level + ":" + id }

// put registers a row of level with the given state.
func (m *mockHierarchyRepository) put(level, id string, state secondary.NodeState) {
	state.Exists = true
	m.states[nodeKey(level, id)] = &state
}

func (m *mockHierarchyRepository) State(ctx context.Context, level, id string) (*secondary.NodeState, error) {
	if s, ok := m.states[nodeKey(level, id)]; ok {
		copied := *s
		return &copied, nil
	}
	return &secondary.NodeState{}, nil
}

func (m *mockHierarchyRepository) SoftDelete(ctx context.Context, level, id, actor string) error {
	m.softDeleted = append(m.softDeleted, nodeKey(level, id))
	if s, ok := m.states[nodeKey(level, id)]; ok {
		s.Deleted = true
	}
	return nil
}

func (m *mockHierarchyRepository) Restore(ctx context.Context, level, id, actor string) error {
	if m.restoreErr != nil {
		return m.restoreErr
	}
	m.restored = append(m.restored, nodeKey(level, id))
	return nil
}

func (m *mockHierarchyRepository) HardDelete(ctx context.Context, level, id string) error {
	m.hardDeleted = append(m.hardDeleted, nodeKey(level, id))
	delete(m.states, nodeKey(level, id))
	return nil
}

func (m *mockHierarchyRepository) UpdateStatus(ctx context.Context, level, id string, statusID int, actor string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.statusUpdates[nodeKey(level, id)] = statusID
	return nil
}

func (m *mockHierarchyRepository) BulkUpdateStatus(ctx context.Context, level string, ids []string, statusID int, actor string, continueOnError bool) (*secondary.BulkStatusResult, error) {
	m.bulkCalls++
	if m.bulkErr != nil {
		return nil, m.bulkErr
	}
	if m.bulkResult != nil {
		return m.bulkResult, nil
	}
	result := &secondary.BulkStatusResult{Previous: make(map[string]int)}
	for _, id := range ids {
		prev := 0
		if s, ok := m.states[nodeKey(level, id)]; ok {
			if s.Deleted {
				err := dberr.Validation("%s %s is deleted", level, id)
				if !continueOnError {
					return nil, err
				}
				result.Failed = append(result.Failed, secondary.BulkStatusFailure{ID: id, Err: err})
				continue
			}
			prev = s.StatusID
		}
		m.statusUpdates[nodeKey(level, id)] = statusID
		result.Updated = append(result.Updated, id)
		result.Previous[id] = prev
	}
	return result, nil
}

// ============================================================================
// Migrations and iterations
// ============================================================================

// mockMigrationRepository implements secondary.MigrationRepository for testing.
type mockMigrationRepository struct {
	migrations map[string]*secondary.MigrationRecord
	statuses   *mockStatusRepository
	createErr  error
	updated    *secondary.MigrationRecord
}

func newMockMigrationRepository(statuses *mockStatusRepository) *mockMigrationRepository {
	return &mockMigrationRepository{
		migrations: make(map[string]*secondary.MigrationRecord),
		statuses:   statuses,
	}
}

func (m *mockMigrationRepository) Create(ctx context.Context, migration *secondary.MigrationRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.migrations {
		if existing.Name == migration.Name {
			return dberr.Classify(errors.New("UNIQUE constraint failed: migrations.name"), "migration", dberr.OpCreate)
		}
	}
	copied := *migration
	copied.Status, _ = m.statuses.GetByID(ctx, migration.StatusID)
	m.migrations[migration.ID] = &copied
	return nil
}

func (m *mockMigrationRepository) GetByID(ctx context.Context, id string) (*secondary.MigrationRecord, error) {
	if r, ok := m.migrations[id]; ok {
		return r, nil
	}
	return nil, dberr.NotFound("migration", id)
}

func (m *mockMigrationRepository) List(ctx context.Context, filters secondary.MigrationFilters) ([]*secondary.MigrationRecord, error) {
	var out []*secondary.MigrationRecord
	for _, r := range m.migrations {
		if !filters.IncludeDeleted && r.DeletedAt != "" {
			continue
		}
		if filters.StatusName != "" && (r.Status == nil || r.Status.Name != filters.StatusName) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockMigrationRepository) Update(ctx context.Context, migration *secondary.MigrationRecord) error {
	if _, ok := m.migrations[migration.ID]; !ok {
		return dberr.NotFound("migration", migration.ID)
	}
	m.updated = migration
	return nil
}

// mockIterationRepository implements secondary.IterationRepository for testing.
type mockIterationRepository struct {
	iterations map[string]*secondary.IterationRecord
	updated    *secondary.IterationRecord
	listed     secondary.IterationFilters
}

func newMockIterationRepository() *mockIterationRepository {
	return &mockIterationRepository{iterations: make(map[string]*secondary.IterationRecord)}
}

func (m *mockIterationRepository) Create(ctx context.Context, iteration *secondary.IterationRecord) error {
	copied := *iteration
	m.iterations[iteration.ID] = &copied
	return nil
}

func (m *mockIterationRepository) GetByID(ctx context.Context, id string) (*secondary.IterationRecord, error) {
	if r, ok := m.iterations[id]; ok {
		return r, nil
	}
	return nil, dberr.NotFound("iteration", id)
}

func (m *mockIterationRepository) List(ctx context.Context, filters secondary.IterationFilters) ([]*secondary.IterationRecord, error) {
	m.listed = filters
	var out []*secondary.IterationRecord
	for _, r := range m.iterations {
		if filters.MigrationID != "" && r.MigrationID != filters.MigrationID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockIterationRepository) Update(ctx context.Context, iteration *secondary.IterationRecord) error {
	if _, ok := m.iterations[iteration.ID]; !ok {
		return dberr.NotFound("iteration", iteration.ID)
	}
	m.updated = iteration
	return nil
}

// ============================================================================
// Plan tree
// ============================================================================

// mockPlanRepository implements secondary.PlanRepository for testing.
type mockPlanRepository struct {
	masters   map[string]*secondary.PlanMasterRecord
	instances []*secondary.PlanInstanceRecord
	listed    secondary.PlanInstanceFilters
}

func newMockPlanRepository() *mockPlanRepository {
	return &mockPlanRepository{masters: make(map[string]*secondary.PlanMasterRecord)}
}

func (m *mockPlanRepository) CreateMaster(ctx context.Context, plan *secondary.PlanMasterRecord) error {
	copied := *plan
	m.masters[plan.ID] = &copied
	return nil
}

func (m *mockPlanRepository) GetMaster(ctx context.Context, id string) (*secondary.PlanMasterRecord, error) {
	if r, ok := m.masters[id]; ok {
		return r, nil
	}
	return nil, dberr.NotFound("plan master", id)
}

func (m *mockPlanRepository) ListMasters(ctx context.Context, includeDeleted bool) ([]*secondary.PlanMasterRecord, error) {
	var out []*secondary.PlanMasterRecord
	for _, r := range m.masters {
		if includeDeleted || r.DeletedAt == "" {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockPlanRepository) UpdateMaster(ctx context.Context, plan *secondary.PlanMasterRecord) error {
	if _, ok := m.masters[plan.ID]; !ok {
		return dberr.NotFound("plan master", plan.ID)
	}
	return nil
}

func (m *mockPlanRepository) GetInstance(ctx context.Context, id string) (*secondary.PlanInstanceRecord, error) {
	for _, r := range m.instances {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, dberr.NotFound("plan instance", id)
}

func (m *mockPlanRepository) ListInstances(ctx context.Context, filters secondary.PlanInstanceFilters) ([]*secondary.PlanInstanceRecord, error) {
	m.listed = filters
	return m.instances, nil
}

// mockSequenceRepository implements secondary.SequenceRepository for testing.
type mockSequenceRepository struct {
	masters   []*secondary.SequenceMasterRecord
	instances []*secondary.SequenceInstanceRecord
}

func (m *mockSequenceRepository) CreateMaster(ctx context.Context, seq *secondary.SequenceMasterRecord) error {
	m.masters = append(m.masters, seq)
	return nil
}

func (m *mockSequenceRepository) GetMaster(ctx context.Context, id string) (*secondary.SequenceMasterRecord, error) {
	for _, r := range m.masters {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, dberr.NotFound("sequence master", id)
}

func (m *mockSequenceRepository) ListMasters(ctx context.Context, planMasterID string) ([]*secondary.SequenceMasterRecord, error) {
	var out []*secondary.SequenceMasterRecord
	for _, r := range m.masters {
		if r.PlanMasterID == planMasterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockSequenceRepository) NextMasterOrder(ctx context.Context, planMasterID string) (int, error) {
	next := 1
	for _, r := range m.masters {
		if r.PlanMasterID == planMasterID {
			next = max(next, r.Order+1)
		}
	}
	return next, nil
}

func (m *mockSequenceRepository) GetInstance(ctx context.Context, id string) (*secondary.SequenceInstanceRecord, error) {
	for _, r := range m.instances {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, dberr.NotFound("sequence instance", id)
}

func (m *mockSequenceRepository) ListInstances(ctx context.Context, planInstanceID string, includeDeleted bool) ([]*secondary.SequenceInstanceRecord, error) {
	var out []*secondary.SequenceInstanceRecord
	for _, r := range m.instances {
		if r.PlanInstanceID == planInstanceID && (includeDeleted || r.DeletedAt == "") {
			out = append(out, r)
		}
	}
	return out, nil
}

// mockPhaseRepository implements secondary.PhaseRepository for testing.
type mockPhaseRepository struct {
	masters   []*secondary.PhaseMasterRecord
	instances []*secondary.PhaseInstanceRecord
}

func (m *mockPhaseRepository) CreateMaster(ctx context.Context, phase *secondary.PhaseMasterRecord) error {
	m.masters = append(m.masters, phase)
	return nil
}

func (m *mockPhaseRepository) GetMaster(ctx context.Context, id string) (*secondary.PhaseMasterRecord, error) {
	for _, r := range m.masters {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, dberr.NotFound("phase master", id)
}

func (m *mockPhaseRepository) ListMasters(ctx context.Context, sequenceMasterID string) ([]*secondary.PhaseMasterRecord, error) {
	var out []*secondary.PhaseMasterRecord
	for _, r := range m.masters {
		if r.SequenceMasterID == sequenceMasterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockPhaseRepository) NextMasterOrder(ctx context.Context, sequenceMasterID string) (int, error) {
	next := 1
	for _, r := range m.masters {
		if r.SequenceMasterID == sequenceMasterID {
			next = max(next, r.Order+1)
		}
	}
	return next, nil
}

func (m *mockPhaseRepository) GetInstance(ctx context.Context, id string) (*secondary.PhaseInstanceRecord, error) {
	for _, r := range m.instances {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, dberr.NotFound("phase instance", id)
}

func (m *mockPhaseRepository) ListInstances(ctx context.Context, sequenceInstanceID string, includeDeleted bool) ([]*secondary.PhaseInstanceRecord, error) {
	var out []*secondary.PhaseInstanceRecord
	for _, r := range m.instances {
		if r.SequenceInstanceID == sequenceInstanceID && (includeDeleted || r.DeletedAt == "") {
			out = append(out, r)
		}
	}
	return out, nil
}

// mockStepRepository implements secondary.StepRepository for testing.
type mockStepRepository struct {
	masters      []*secondary.StepMasterRecord
	instances    map[string]*secondary.StepInstanceRecord
	instructions map[string][]*secondary.InstructionInstanceRecord
	comments     map[string][]*secondary.CommentRecord
	listed       secondary.StepInstanceFilters
	assigned     map[string]string
	detailsErr   error
}

func newMockStepRepository() *mockStepRepository {
	return &mockStepRepository{
		instances:    make(map[string]*secondary.StepInstanceRecord),
		instructions: make(map[string][]*secondary.InstructionInstanceRecord),
		comments:     make(map[string][]*secondary.CommentRecord),
		assigned:     make(map[string]string),
	}
}

func (m *mockStepRepository) CreateMaster(ctx context.Context, step *secondary.StepMasterRecord) error {
	m.masters = append(m.masters, step)
	return nil
}

func (m *mockStepRepository) GetMaster(ctx context.Context, id string) (*secondary.StepMasterRecord, error) {
	for _, r := range m.masters {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, dberr.NotFound("step master", id)
}

func (m *mockStepRepository) ListMasters(ctx context.Context, phaseMasterID string) ([]*secondary.StepMasterRecord, error) {
	var out []*secondary.StepMasterRecord
	for _, r := range m.masters {
		if r.PhaseMasterID == phaseMasterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStepRepository) NextMasterNumber(ctx context.Context, phaseMasterID, typeCode string) (int, error) {
	next := 1
	for _, r := range m.masters {
		if r.PhaseMasterID == phaseMasterID && r.TypeCode == typeCode {
			next = max(next, r.Number+1)
		}
	}
	return next, nil
}

func (m *mockStepRepository) GetInstance(ctx context.Context, id string) (*secondary.StepInstanceRecord, error) {
	if r, ok := m.instances[id]; ok {
		return r, nil
	}
	return nil, dberr.NotFound("step instance", id)
}

func (m *mockStepRepository) ListInstances(ctx context.Context, filters secondary.StepInstanceFilters) ([]*secondary.StepInstanceRecord, error) {
	m.listed = filters
	var out []*secondary.StepInstanceRecord
	for _, r := range m.instances {
		if filters.TeamID != "" && r.TeamID != filters.TeamID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStepRepository) GetDetails(ctx context.Context, id string, commentLimit int) (*secondary.StepDetailsRecord, error) {
	if m.detailsErr != nil {
		return nil, m.detailsErr
	}
	step, ok := m.instances[id]
	if !ok {
		return nil, dberr.NotFound("step instance", id)
	}
	comments := m.comments[id]
	if commentLimit > 0 && len(comments) > commentLimit {
		comments = comments[:commentLimit]
	}
	return &secondary.StepDetailsRecord{
		Step:           step,
		Instructions:   m.instructions[id],
		RecentComments: comments,
	}, nil
}

func (m *mockStepRepository) AssignTeam(ctx context.Context, id, teamID, actor string) error {
	if _, ok := m.instances[id]; !ok {
		return dberr.NotFound("step instance", id)
	}
	m.assigned[id] = teamID
	return nil
}

// mockInstructionRepository implements secondary.InstructionRepository for testing.
type mockInstructionRepository struct {
	masters   []*secondary.InstructionMasterRecord
	instances map[string]*secondary.InstructionInstanceRecord
	completed map[string]string
}

func newMockInstructionRepository() *mockInstructionRepository {
	return &mockInstructionRepository{
		instances: make(map[string]*secondary.InstructionInstanceRecord),
		completed: make(map[string]string),
	}
}

func (m *mockInstructionRepository) CreateMaster(ctx context.Context, instruction *secondary.InstructionMasterRecord) error {
	m.masters = append(m.masters, instruction)
	return nil
}

func (m *mockInstructionRepository) ListMasters(ctx context.Context, stepMasterID string) ([]*secondary.InstructionMasterRecord, error) {
	var out []*secondary.InstructionMasterRecord
	for _, r := range m.masters {
		if r.StepMasterID == stepMasterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockInstructionRepository) NextMasterOrder(ctx context.Context, stepMasterID string) (int, error) {
	next := 1
	for _, r := range m.masters {
		if r.StepMasterID == stepMasterID {
			next = max(next, r.Order+1)
		}
	}
	return next, nil
}

func (m *mockInstructionRepository) GetInstance(ctx context.Context, id string) (*secondary.InstructionInstanceRecord, error) {
	if r, ok := m.instances[id]; ok {
		return r, nil
	}
	return nil, dberr.NotFound("instruction instance", id)
}

func (m *mockInstructionRepository) ListInstances(ctx context.Context, stepInstanceID string) ([]*secondary.InstructionInstanceRecord, error) {
	var out []*secondary.InstructionInstanceRecord
	for _, r := range m.instances {
		if r.StepInstanceID == stepInstanceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockInstructionRepository) SetCompleted(ctx context.Context, id string, completed bool, by string) error {
	r, ok := m.instances[id]
	if !ok {
		return dberr.NotFound("instruction instance", id)
	}
	r.IsCompleted = completed
	if completed {
		m.completed[id] = by
	} else {
		delete(m.completed, id)
	}
	return nil
}

// mockCommentRepository implements secondary.CommentRepository for testing.
type mockCommentRepository struct {
	comments map[int64]*secondary.CommentRecord
	nextID   int64
}

func newMockCommentRepository() *mockCommentRepository {
	return &mockCommentRepository{comments: make(map[int64]*secondary.CommentRecord), nextID: 1}
}

func (m *mockCommentRepository) Create(ctx context.Context, comment *secondary.CommentRecord) error {
	comment.ID = m.nextID
	m.nextID++
	copied := *comment
	copied.CreatedAt = "2026-01-01T10:00:00Z"
	m.comments[comment.ID] = &copied
	return nil
}

func (m *mockCommentRepository) GetByID(ctx context.Context, id int64) (*secondary.CommentRecord, error) {
	if r, ok := m.comments[id]; ok {
		return r, nil
	}
	return nil, dberr.NotFound("comment", "?")
}

func (m *mockCommentRepository) ListByStep(ctx context.Context, stepInstanceID string, limit int) ([]*secondary.CommentRecord, error) {
	var out []*secondary.CommentRecord
	for _, r := range m.comments {
		if r.StepInstanceID == stepInstanceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockCommentRepository) Update(ctx context.Context, id int64, body string) error {
	r, ok := m.comments[id]
	if !ok {
		return dberr.NotFound("comment", "?")
	}
	r.Body = body
	return nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.comments[id]; !ok {
		return dberr.NotFound("comment", "?")
	}
	delete(m.comments, id)
	return nil
}

// mockInstantiator implements secondary.Instantiator for testing.
type mockInstantiator struct {
	requests []secondary.InstantiateRequest
	result   *secondary.InstantiateResult
	err      error
}

func (m *mockInstantiator) InstantiatePlan(ctx context.Context, req secondary.InstantiateRequest) (*secondary.InstantiateResult, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// ============================================================================
// Audit, teams, notifications
// ============================================================================

// mockLogWriter implements secondary.LogWriter and records entries as "action entity:id details".
type mockLogWriter struct {
	entries []string
}

func (m *mockLogWriter) LogCreate(ctx context.Context, entityType, entityID string) error {
	m.entries = append(m.entries, "create "+entityType+":"+entityID)
	return nil
}

func (m *mockLogWriter) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	m.entries = append(m.entries, "update "+entityType+":"+entityID+" "+fieldName+" "+oldValue+"->"+newValue)
	return nil
}

func (m *mockLogWriter) LogDelete(ctx context.Context, entityType, entityID string) error {
	m.entries = append(m.entries, "delete "+entityType+":"+entityID)
	return nil
}

// mockAuditLogRepository implements secondary.AuditLogRepository for testing.
type mockAuditLogRepository struct {
	entries []*secondary.AuditLogRecord
	listErr error
}

func (m *mockAuditLogRepository) Create(ctx context.Context, entry *secondary.AuditLogRecord) error {
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditLogRepository) List(ctx context.Context, filters secondary.AuditLogFilters) ([]*secondary.AuditLogRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*secondary.AuditLogRecord
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if filters.EntityType != "" && e.EntityType != filters.EntityType {
			continue
		}
		if filters.EntityID != "" && e.EntityID != filters.EntityID {
			continue
		}
		if filters.Actor != "" && e.Actor != filters.Actor {
			continue
		}
		out = append(out, e)
	}
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

// mockTeamRepository implements secondary.TeamRepository for testing.
type mockTeamRepository struct {
	teams     map[string]*secondary.TeamRecord
	deleteErr error
}

func newMockTeamRepository() *mockTeamRepository {
	return &mockTeamRepository{teams: make(map[string]*secondary.TeamRecord)}
}

func (m *mockTeamRepository) Create(ctx context.Context, team *secondary.TeamRecord) error {
	for _, t := range m.teams {
		if t.Name == team.Name {
			return dberr.Classify(errors.New("UNIQUE constraint failed: teams.name"), "team", dberr.OpCreate)
		}
	}
	m.teams[team.ID] = team
	return nil
}

func (m *mockTeamRepository) GetByID(ctx context.Context, id string) (*secondary.TeamRecord, error) {
	if t, ok := m.teams[id]; ok {
		return t, nil
	}
	return nil, dberr.NotFound("team", id)
}

func (m *mockTeamRepository) GetByName(ctx context.Context, name string) (*secondary.TeamRecord, error) {
	for _, t := range m.teams {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, dberr.NotFound("team", name)
}

func (m *mockTeamRepository) List(ctx context.Context) ([]*secondary.TeamRecord, error) {
	var out []*secondary.TeamRecord
	for _, t := range m.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockTeamRepository) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.teams[id]; !ok {
		return dberr.NotFound("team", id)
	}
	delete(m.teams, id)
	return nil
}

// mockUserRepository implements secondary.UserRepository for testing.
type mockUserRepository struct {
	users []*secondary.UserRecord
}

func (m *mockUserRepository) Create(ctx context.Context, user *secondary.UserRecord) error {
	m.users = append(m.users, user)
	return nil
}

func (m *mockUserRepository) GetByCode(ctx context.Context, code string) (*secondary.UserRecord, error) {
	for _, u := range m.users {
		if u.Code == code {
			return u, nil
		}
	}
	return nil, dberr.NotFound("user", code)
}

func (m *mockUserRepository) List(ctx context.Context, teamID string) ([]*secondary.UserRecord, error) {
	var out []*secondary.UserRecord
	for _, u := range m.users {
		if teamID == "" || u.TeamID == teamID {
			out = append(out, u)
		}
	}
	return out, nil
}

// mockEmailTemplateRepository implements secondary.EmailTemplateRepository for testing.
type mockEmailTemplateRepository struct {
	templates map[string]*secondary.EmailTemplateRecord
	getErr    error
}

func newMockEmailTemplateRepository() *mockEmailTemplateRepository {
	return &mockEmailTemplateRepository{templates: make(map[string]*secondary.EmailTemplateRecord)}
}

func (m *mockEmailTemplateRepository) Upsert(ctx context.Context, tmpl *secondary.EmailTemplateRecord) error {
	m.templates[tmpl.NotificationType] = tmpl
	return nil
}

func (m *mockEmailTemplateRepository) GetActive(ctx context.Context, notificationType string) (*secondary.EmailTemplateRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if t, ok := m.templates[notificationType]; ok && t.IsActive {
		return t, nil
	}
	return nil, dberr.NotFound("email template", notificationType)
}

func (m *mockEmailTemplateRepository) List(ctx context.Context) ([]*secondary.EmailTemplateRecord, error) {
	var out []*secondary.EmailTemplateRecord
	for _, t := range m.templates {
		out = append(out, t)
	}
	return out, nil
}

// mockEmailOutboxRepository implements secondary.EmailOutboxRepository for testing.
// It is safe for concurrent use by the dispatcher.
type mockEmailOutboxRepository struct {
	mu        sync.Mutex
	entries   []*secondary.OutboxRecord
	createErr error
	markErr   error
	listed    secondary.OutboxFilters
}

func (m *mockEmailOutboxRepository) Create(ctx context.Context, entry *secondary.OutboxRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockEmailOutboxRepository) GetByID(ctx context.Context, id string) (*secondary.OutboxRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, dberr.NotFound("email outbox", id)
}

func (m *mockEmailOutboxRepository) List(ctx context.Context, filters secondary.OutboxFilters) ([]*secondary.OutboxRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed = filters
	var out []*secondary.OutboxRecord
	for _, e := range m.entries {
		if filters.Status != "" && e.Status != filters.Status {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockEmailOutboxRepository) ListDeliverable(ctx context.Context, maxAttempts, limit int) ([]*secondary.OutboxRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.OutboxRecord
	for _, e := range m.entries {
		if e.Status == secondary.OutboxPending || (e.Status == secondary.OutboxFailed && e.Attempts < maxAttempts) {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockEmailOutboxRepository) MarkSent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	for _, e := range m.entries {
		if e.ID == id {
			e.Status = secondary.OutboxSent
			e.Attempts++
			return nil
		}
	}
	return dberr.NotFound("email outbox", id)
}

func (m *mockEmailOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	for _, e := range m.entries {
		if e.ID == id {
			e.Status = secondary.OutboxFailed
			e.Attempts++
			e.LastError = reason
			return nil
		}
	}
	return dberr.NotFound("email outbox", id)
}

// statusOf returns the outbox status of id.
func (m *mockEmailOutboxRepository) statusOf(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e.Status
		}
	}
	return ""
}

// mockEmailSender implements secondary.EmailSender for testing.
// Recipients listed in failFor are rejected.
type mockEmailSender struct {
	mu      sync.Mutex
	sent    []secondary.EmailMessage
	failFor map[string]bool
	block   chan struct{}
}

func (m *mockEmailSender) Send(ctx context.Context, msg secondary.EmailMessage) error {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, to := range msg.To {
		if m.failFor[to] {
			return errors.New("550 mailbox unavailable")
		}
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockEmailSender) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// mockNotificationService implements primary.NotificationService by recording requests.
type mockNotificationService struct {
	requests  []primary.NotifyRequest
	notifyErr error
}

func (m *mockNotificationService) Notify(ctx context.Context, req primary.NotifyRequest) (*primary.NotifyResponse, error) {
	m.requests = append(m.requests, req)
	if m.notifyErr != nil {
		return nil, m.notifyErr
	}
	return &primary.NotifyResponse{OutboxID: "outbox-1", Recipients: []string{"team@example.com"}}, nil
}

func (m *mockNotificationService) PreviewVariables(ctx context.Context, req primary.NotifyRequest) (*primary.VariablesPreview, error) {
	return &primary.VariablesPreview{}, nil
}

func (m *mockNotificationService) DispatchPending(ctx context.Context) (*primary.DispatchResult, error) {
	return &primary.DispatchResult{}, nil
}

func (m *mockNotificationService) EnsureDefaultTemplates(ctx context.Context) (int, error) {
	return 0, nil
}

func (m *mockNotificationService) ListOutbox(ctx context.Context, filters primary.OutboxFilters) ([]*primary.OutboxEntry, error) {
	return nil, nil
}
