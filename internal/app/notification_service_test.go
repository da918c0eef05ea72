package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/example/umig/internal/core/notification"
	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/ports/secondary"
	"github.com/example/umig/internal/templates"
)

type notificationFixture struct {
	service   *NotificationServiceImpl
	steps     *mockStepRepository
	templates *mockEmailTemplateRepository
	outbox    *mockEmailOutboxRepository
	sender    *mockEmailSender
}

func newTestNotificationService() *notificationFixture {
	f := &notificationFixture{
		steps:     newMockStepRepository(),
		templates: newMockEmailTemplateRepository(),
		outbox:    &mockEmailOutboxRepository{},
		sender:    &mockEmailSender{failFor: map[string]bool{}},
	}
	f.service = NewNotificationService(f.steps, f.templates, f.outbox, f.sender, NotificationSettings{
		BaseURL:     "https://umig.example.com",
		From:        "umig@example.com",
		Concurrency: 2,
		MaxAttempts: 3,
	}, nil)
	f.service.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return f
}

// addStep registers an enriched step owned by a team with the given e-mail.
func (f *notificationFixture) addStep(id, teamEmail string) {
	f.steps.instances[id] = &secondary.StepInstanceRecord{
		ID:            id,
		TypeCode:      "APP",
		Number:        7,
		Name:          "Deploy frontend",
		Status:        &secondary.StatusRecord{ID: 22, Name: "TODO", Color: "#0052CC", EntityType: "step"},
		TeamName:      "Apps",
		TeamEmail:     teamEmail,
		MigrationID:   "mig-1",
		MigrationName: "Exit",
		IterationID:   "it-1",
		IterationName: "RUN 1",
	}
}

// installTemplate activates the built-in template for typ.
func (f *notificationFixture) installTemplate(t *testing.T, typ notification.Type) {
	t.Helper()
	d, err := templates.DefaultEmailTemplate(string(typ))
	if err != nil {
		t.Fatalf("failed to load default template: %v", err)
	}
	f.templates.templates[string(typ)] = &secondary.EmailTemplateRecord{
		ID: "tmpl-" + string(typ), NotificationType: d.NotificationType,
		Subject: d.Subject, BodyHTML: d.BodyHTML, IsActive: true,
	}
}

func TestNotificationService_Notify_Enqueues(t *testing.T) {
	f := newTestNotificationService()
	f.addStep("st-1", "apps@example.com")
	f.installTemplate(t, notification.TypeStatusChanged)

	resp, err := f.service.Notify(context.Background(), primary.NotifyRequest{
		StepID:         "st-1",
		Type:           string(notification.TypeStatusChanged),
		PreviousStatus: "TODO",
		NewStatus:      "BLOCKED",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Skipped || resp.OutboxID == "" {
		t.Fatalf("expected enqueued notification, got %+v", resp)
	}

	entry, err := f.outbox.GetByID(context.Background(), resp.OutboxID)
	if err != nil {
		t.Fatalf("expected outbox entry, got %v", err)
	}
	if entry.Status != secondary.OutboxPending || entry.EntityID != "st-1" {
		t.Errorf("unexpected outbox entry: %+v", entry)
	}
	if entry.Subject != "[UMIG] Step APP-007 TODO -> BLOCKED" {
		t.Errorf("unexpected subject: %q", entry.Subject)
	}
	if len(entry.Recipients) != 1 || entry.Recipients[0] != "apps@example.com" {
		t.Errorf("unexpected recipients: %v", entry.Recipients)
	}

	var vars map[string]any
	if err := json.Unmarshal([]byte(entry.Variables), &vars); err != nil {
		t.Fatalf("variables are not JSON: %v", err)
	}
	if vars[notification.KeyNewStatus] != "BLOCKED" || vars[notification.KeyTimestamp] != "2026-03-14T09:30:00Z" {
		t.Errorf("unexpected variables: %v", vars)
	}
}

func TestNotificationService_Notify_Skips(t *testing.T) {
	tests := []struct {
		name        string
		teamEmail   string
		withTmpl    bool
		wantWarning string
	}{
		{
			name:        "team without e-mail",
			withTmpl:    true,
			wantWarning: "has no team e-mail address",
		},
		{
			name:        "no active template",
			teamEmail:   "apps@example.com",
			wantWarning: "no active template for OPENED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestNotificationService()
			f.addStep("st-1", tt.teamEmail)
			if tt.withTmpl {
				f.installTemplate(t, notification.TypeOpened)
			}

			resp, err := f.service.Notify(context.Background(), primary.NotifyRequest{StepID: "st-1", Type: "OPENED"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.Skipped {
				t.Error("expected notification to be skipped")
			}
			if len(resp.Warnings) == 0 || !strings.Contains(resp.Warnings[len(resp.Warnings)-1], tt.wantWarning) {
				t.Errorf("expected warning containing %q, got %v", tt.wantWarning, resp.Warnings)
			}
			if len(f.outbox.entries) != 0 {
				t.Errorf("expected empty outbox, got %d entries", len(f.outbox.entries))
			}
		})
	}
}

func TestNotificationService_Notify_Errors(t *testing.T) {
	tests := []struct {
		name      string
		req       primary.NotifyRequest
		setup     func(f *notificationFixture)
		wantCheck func(error) bool
	}{
		{
			name:      "missing step id",
			req:       primary.NotifyRequest{Type: "OPENED"},
			wantCheck: dberr.IsValidation,
		},
		{
			name:      "missing type",
			req:       primary.NotifyRequest{StepID: "st-1"},
			wantCheck: dberr.IsValidation,
		},
		{
			name:      "unknown step",
			req:       primary.NotifyRequest{StepID: "st-x", Type: "OPENED"},
			wantCheck: dberr.IsNotFound,
		},
		{
			name: "template lookup failure",
			req:  primary.NotifyRequest{StepID: "st-1", Type: "OPENED"},
			setup: func(f *notificationFixture) {
				f.addStep("st-1", "apps@example.com")
				f.templates.getErr = errors.New("database is locked")
			},
			wantCheck: func(err error) bool { return strings.Contains(err.Error(), "database is locked") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestNotificationService()
			if tt.setup != nil {
				tt.setup(f)
			}
			_, err := f.service.Notify(context.Background(), tt.req)
			if err == nil || !tt.wantCheck(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNotificationService_PreviewVariables(t *testing.T) {
	f := newTestNotificationService()
	f.addStep("st-1", "apps@example.com")

	preview, err := f.service.PreviewVariables(context.Background(), primary.NotifyRequest{StepID: "st-1", Type: "ESCALATED"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(preview.Warnings) != 1 || !strings.Contains(preview.Warnings[0], "ESCALATED") {
		t.Errorf("expected unknown type warning, got %v", preview.Warnings)
	}
	if preview.Variables[notification.KeyCode] != "APP-007" {
		t.Errorf("expected code APP-007, got %v", preview.Variables[notification.KeyCode])
	}
	if len(f.outbox.entries) != 0 {
		t.Error("expected preview not to enqueue")
	}
}

func TestNotificationService_DispatchPending(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newTestNotificationService()
	f.sender.failFor["bounce@example.com"] = true
	f.outbox.entries = []*secondary.OutboxRecord{
		{ID: "a", Recipients: []string{"apps@example.com"}, Status: secondary.OutboxPending},
		{ID: "b", Recipients: []string{"bounce@example.com"}, Status: secondary.OutboxPending},
		{ID: "c", Recipients: []string{"apps@example.com"}, Status: secondary.OutboxSent, Attempts: 1},
		{ID: "d", Recipients: []string{"apps@example.com"}, Status: secondary.OutboxFailed, Attempts: 3},
		{ID: "e", Recipients: []string{"dba@example.com"}, Status: secondary.OutboxFailed, Attempts: 1},
	}

	result, err := f.service.DispatchPending(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Attempted != 3 || result.Sent != 2 || result.Failed != 1 {
		t.Errorf("unexpected dispatch result: %+v", result)
	}
	if f.sender.sentCount() != 2 {
		t.Errorf("expected 2 sent messages, got %d", f.sender.sentCount())
	}

	want := map[string]string{
		"a": secondary.OutboxSent,
		"b": secondary.OutboxFailed,
		"d": secondary.OutboxFailed,
		"e": secondary.OutboxSent,
	}
	for id, status := range want {
		if got := f.outbox.statusOf(id); got != status {
			t.Errorf("entry %s: expected %s, got %s", id, status, got)
		}
	}
	b, _ := f.outbox.GetByID(context.Background(), "b")
	if b.LastError != "550 mailbox unavailable" || b.Attempts != 1 {
		t.Errorf("unexpected failed entry: %+v", b)
	}
}

func TestNotificationService_DispatchPending_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newTestNotificationService()
	f.sender.block = make(chan struct{})
	for _, id := range []string{"a", "b", "c"} {
		f.outbox.entries = append(f.outbox.entries, &secondary.OutboxRecord{
			ID: id, Recipients: []string{"apps@example.com"}, Status: secondary.OutboxPending,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.service.DispatchPending(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if result.Sent != 0 || result.Failed != 0 {
		t.Errorf("expected nothing delivered, got %+v", result)
	}
	for _, id := range []string{"a", "b", "c"} {
		if got := f.outbox.statusOf(id); got != secondary.OutboxPending {
			t.Errorf("entry %s: expected pending, got %s", id, got)
		}
	}
}

func TestNotificationService_DispatchPending_StoreFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newTestNotificationService()
	f.outbox.markErr = errors.New("disk I/O error")
	f.outbox.entries = []*secondary.OutboxRecord{
		{ID: "a", Recipients: []string{"apps@example.com"}, Status: secondary.OutboxPending},
	}

	result, err := f.service.DispatchPending(context.Background())
	if err == nil || !strings.Contains(err.Error(), "dispatch interrupted") {
		t.Fatalf("expected interrupted dispatch, got %v", err)
	}
	if result.Sent != 1 {
		t.Errorf("expected the send to be counted, got %+v", result)
	}
}

func TestNotificationService_EnsureDefaultTemplates(t *testing.T) {
	f := newTestNotificationService()
	f.installTemplate(t, notification.TypeOpened)

	installed, err := f.service.EnsureDefaultTemplates(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if installed != len(notification.KnownTypes)-1 {
		t.Errorf("expected %d templates installed, got %d", len(notification.KnownTypes)-1, installed)
	}
	if f.templates.templates["OPENED"].ID != "tmpl-OPENED" {
		t.Error("expected existing template to be kept")
	}

	again, err := f.service.EnsureDefaultTemplates(context.Background())
	if err != nil || again != 0 {
		t.Errorf("expected second run to install nothing, got %d, %v", again, err)
	}
}

func TestNotificationService_ListOutbox(t *testing.T) {
	f := newTestNotificationService()
	f.outbox.entries = []*secondary.OutboxRecord{
		{ID: "a", Status: secondary.OutboxSent},
		{ID: "b", Status: secondary.OutboxFailed, LastError: "timeout"},
	}

	entries, err := f.service.ListOutbox(context.Background(), primary.OutboxFilters{Status: "failed", Limit: 10})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "b" || entries[0].Recipients == nil {
		t.Errorf("unexpected entries: %+v", entries)
	}
	if f.outbox.listed.Limit != 10 {
		t.Errorf("expected limit to pass through, got %d", f.outbox.listed.Limit)
	}
}
