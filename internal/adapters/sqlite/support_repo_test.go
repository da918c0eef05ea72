package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/umig/internal/adapters/sqlite"
	"github.com/example/umig/internal/ctxutil"
	"github.com/example/umig/internal/db"
	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

func TestStatusRepository(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewStatusRepository(testDB)
	ctx := context.Background()

	status, err := repo.GetByName(ctx, "BLOCKED", "step")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if status.ID != 26 {
		t.Errorf("expected BLOCKED step status 26, got %d", status.ID)
	}

	byID, err := repo.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Name != "PLANNING" || byID.EntityType != "migration" {
		t.Errorf("unexpected status 1: %+v", byID)
	}

	_, err = repo.GetByName(ctx, "BLOCKED", "migration")
	if !dberr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	phases, err := repo.List(ctx, "phase")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(phases) != 4 {
		t.Errorf("expected 4 phase statuses, got %d", len(phases))
	}
}

func TestTeamRepository(t *testing.T) {
	testDB := setupFixtureDB(t)
	repo := sqlite.NewTeamRepository(testDB)
	ctx := context.Background()

	if err := repo.Create(ctx, &secondary.TeamRecord{ID: "T-NET", Name: "Network", Email: "net@example.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	err := repo.Create(ctx, &secondary.TeamRecord{ID: "T-NET2", Name: "Network"})
	if !dberr.IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}

	team, err := repo.GetByName(ctx, "DBA")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if team.ID != db.FixtureTeamDBA {
		t.Errorf("expected fixture DBA team, got %s", team.ID)
	}

	teams, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(teams) != 3 {
		t.Errorf("expected 3 teams, got %d", len(teams))
	}

	// DBA still has users and steps.
	err = repo.Delete(ctx, db.FixtureTeamDBA)
	if !dberr.IsForeignKeyViolation(err) {
		t.Errorf("expected foreign key violation, got %v", err)
	}

	if err := repo.Delete(ctx, "T-NET"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	_, err = repo.GetByID(ctx, "T-NET")
	if !dberr.IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestUserRepository(t *testing.T) {
	testDB := setupFixtureDB(t)
	repo := sqlite.NewUserRepository(testDB)
	ctx := context.Background()

	user, err := repo.GetByCode(ctx, "JDO")
	if err != nil {
		t.Fatalf("GetByCode failed: %v", err)
	}
	if user.TeamID != db.FixtureTeamDevOps {
		t.Errorf("expected DevOps team, got %s", user.TeamID)
	}

	devops, err := repo.List(ctx, db.FixtureTeamDevOps)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(devops) != 2 {
		t.Errorf("expected 2 DevOps users, got %d", len(devops))
	}

	err = repo.Create(ctx, &secondary.UserRecord{ID: "u-x", Code: "XYZ", TeamID: "ghost"})
	if !dberr.IsForeignKeyViolation(err) {
		t.Errorf("expected foreign key violation, got %v", err)
	}
}

func TestInstructionRepository_SetCompleted(t *testing.T) {
	testDB := setupFixtureDB(t)
	repo := sqlite.NewInstructionRepository(testDB, nil)
	ctx := context.Background()
	instantiateFixturePlan(t, testDB)
	stepID := stepInstanceByMaster(t, testDB, db.FixtureStepBackup)

	instructions, err := repo.ListInstances(ctx, stepID)
	if err != nil {
		t.Fatalf("ListInstances failed: %v", err)
	}
	if len(instructions) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(instructions))
	}
	id := instructions[0].ID

	if err := repo.SetCompleted(ctx, id, true, "DBX"); err != nil {
		t.Fatalf("SetCompleted failed: %v", err)
	}
	got, err := repo.GetInstance(ctx, id)
	if err != nil {
		t.Fatalf("GetInstance failed: %v", err)
	}
	if !got.IsCompleted || got.CompletedBy != "DBX" || got.CompletedAt == "" {
		t.Errorf("expected completed by DBX, got %+v", got)
	}

	if err := repo.SetCompleted(ctx, id, false, "DBX"); err != nil {
		t.Fatalf("SetCompleted failed: %v", err)
	}
	got, _ = repo.GetInstance(ctx, id)
	if got.IsCompleted || got.CompletedBy != "" || got.CompletedAt != "" {
		t.Errorf("expected completion cleared, got %+v", got)
	}

	err = repo.SetCompleted(ctx, "missing", true, "DBX")
	if !dberr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCommentRepository(t *testing.T) {
	testDB := setupFixtureDB(t)
	repo := sqlite.NewCommentRepository(testDB)
	ctx := context.Background()
	instantiateFixturePlan(t, testDB)
	stepID := stepInstanceByMaster(t, testDB, db.FixtureStepSmokeTest)

	comment := &secondary.CommentRecord{StepInstanceID: stepID, Body: "looks good", Author: "JDO"}
	if err := repo.Create(ctx, comment); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if comment.ID == 0 {
		t.Fatal("expected ID assigned")
	}

	if err := repo.Update(ctx, comment.ID, "looks great"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err := repo.GetByID(ctx, comment.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Body != "looks great" {
		t.Errorf("expected updated body, got %q", got.Body)
	}

	err = repo.Create(ctx, &secondary.CommentRecord{StepInstanceID: "ghost", Body: "x", Author: "JDO"})
	if !dberr.IsForeignKeyViolation(err) {
		t.Errorf("expected foreign key violation, got %v", err)
	}

	if err := repo.Delete(ctx, comment.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, comment.ID); !dberr.IsNotFound(err) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestEmailTemplateRepository_Upsert(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewEmailTemplateRepository(testDB)
	ctx := context.Background()

	tmpl := &secondary.EmailTemplateRecord{
		ID: "tpl-1", NotificationType: "STEP_OPENED", Name: "Opened", Subject: "v1", BodyHTML: "<p>v1</p>", IsActive: true,
	}
	if err := repo.Upsert(ctx, tmpl); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	tmpl.ID = "tpl-2"
	tmpl.Subject = "v2"
	if err := repo.Upsert(ctx, tmpl); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, err := repo.GetActive(ctx, "STEP_OPENED")
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if got.Subject != "v2" || got.ID != "tpl-1" {
		t.Errorf("expected subject replaced in place, got id=%s subject=%s", got.ID, got.Subject)
	}

	tmpl.IsActive = false
	if err := repo.Upsert(ctx, tmpl); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if _, err := repo.GetActive(ctx, "STEP_OPENED"); !dberr.IsNotFound(err) {
		t.Errorf("expected inactive template to be not found, got %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 template, got %d", len(all))
	}
}

func TestEmailOutboxRepository(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewEmailOutboxRepository(testDB)
	ctx := context.Background()

	for _, id := range []string{"m1", "m2", "m3"} {
		err := repo.Create(ctx, &secondary.OutboxRecord{
			ID: id, NotificationType: "STEP_OPENED", EntityType: "step", EntityID: "s-1",
			Recipients: []string{"a@example.com", "b@example.com"}, Subject: "s", BodyHTML: "<p>b</p>",
			Variables: `{"name":"x"}`,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	got, err := repo.GetByID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Recipients) != 2 || got.Recipients[1] != "b@example.com" {
		t.Errorf("recipients not round-tripped: %v", got.Recipients)
	}
	if got.Status != secondary.OutboxPending {
		t.Errorf("expected pending, got %s", got.Status)
	}

	if err := repo.MarkSent(ctx, "m1"); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := repo.MarkFailed(ctx, "m2", "connection refused"); err != nil {
			t.Fatalf("MarkFailed failed: %v", err)
		}
	}
	if err := repo.MarkFailed(ctx, "m3", "timeout"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	failed, _ := repo.GetByID(ctx, "m2")
	if failed.Attempts != 3 || failed.LastError != "connection refused" {
		t.Errorf("expected 3 attempts with reason, got %d %q", failed.Attempts, failed.LastError)
	}

	deliverable, err := repo.ListDeliverable(ctx, 3, 0)
	if err != nil {
		t.Fatalf("ListDeliverable failed: %v", err)
	}
	if len(deliverable) != 1 || deliverable[0].ID != "m3" {
		t.Errorf("expected only m3 to be retried, got %d rows", len(deliverable))
	}

	sent, err := repo.List(ctx, secondary.OutboxFilters{Status: secondary.OutboxSent})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sent) != 1 || sent[0].SentAt == "" {
		t.Errorf("expected one sent entry with sent_at, got %d", len(sent))
	}

	if err := repo.MarkSent(ctx, "missing"); !dberr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestLogWriterAdapter(t *testing.T) {
	testDB := setupTestDB(t)
	auditRepo := sqlite.NewAuditLogRepository(testDB)
	writer := sqlite.NewLogWriterAdapter(auditRepo)

	ctx := ctxutil.WithActor(context.Background(), "JDO")
	if err := writer.LogUpdate(ctx, "step", "s-1", "status", "PENDING", "IN_PROGRESS"); err != nil {
		t.Fatalf("LogUpdate failed: %v", err)
	}
	if err := writer.LogCreate(context.Background(), "migration", "m-1"); err != nil {
		t.Fatalf("LogCreate failed: %v", err)
	}

	entries, err := auditRepo.List(context.Background(), secondary.AuditLogFilters{EntityType: "step"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 step entry, got %d", len(entries))
	}
	if entries[0].Actor != "JDO" {
		t.Errorf("expected actor JDO, got %q", entries[0].Actor)
	}
	if entries[0].Details != `status: "PENDING" -> "IN_PROGRESS"` {
		t.Errorf("unexpected details %q", entries[0].Details)
	}

	system, _ := auditRepo.List(context.Background(), secondary.AuditLogFilters{Actor: ctxutil.SystemActor})
	if len(system) != 1 || system[0].Action != "create" {
		t.Errorf("expected one system create entry, got %d", len(system))
	}
}
