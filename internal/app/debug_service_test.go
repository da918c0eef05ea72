package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/ports/secondary"
)

func newTestDebugService() (*DebugServiceImpl, *mockEmailOutboxRepository) {
	outbox := &mockEmailOutboxRepository{entries: []*secondary.OutboxRecord{
		{
			ID: "a", NotificationType: "OPENED", EntityID: "st-1",
			Recipients: []string{"apps@example.com", "ops@example.com"},
			Subject:    "[UMIG] Step APP-001, open", Status: secondary.OutboxSent, Attempts: 1,
			CreatedAt: "2026-03-14T09:00:00Z", SentAt: "2026-03-14T09:01:00Z",
		},
		{
			ID: "b", NotificationType: "STATUS_CHANGED", EntityID: "st-2",
			Subject: "[UMIG] Step DB-002", Status: secondary.OutboxFailed, Attempts: 2,
			LastError: "550 mailbox unavailable",
		},
	}}
	return NewDebugService(outbox), outbox
}

func TestDebugService_ExportEmails_JSON(t *testing.T) {
	service, _ := newTestDebugService()
	var buf bytes.Buffer

	n, err := service.ExportEmails(context.Background(), &buf, primary.ExportRequest{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}

	var entries []primary.OutboxEntry
	if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatalf("export is not a JSON array: %v", err)
	}
	if entries[1].Recipients == nil || len(entries[1].Recipients) != 0 {
		t.Errorf("expected empty recipients array, got %v", entries[1].Recipients)
	}
	if entries[1].LastError != "550 mailbox unavailable" {
		t.Errorf("unexpected last error: %q", entries[1].LastError)
	}
}

func TestDebugService_ExportEmails_CSV(t *testing.T) {
	service, outbox := newTestDebugService()
	var buf bytes.Buffer

	n, err := service.ExportEmails(context.Background(), &buf, primary.ExportRequest{
		Format:  "CSV",
		Filters: primary.OutboxFilters{Status: "sent"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
	if outbox.listed.Status != "sent" {
		t.Errorf("expected status filter to pass through, got %q", outbox.listed.Status)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and 1 row, got %d rows", len(rows))
	}
	if rows[0][0] != "id" || len(rows[0]) != len(csvHeader) {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][3] != "apps@example.com;ops@example.com" {
		t.Errorf("unexpected recipients column: %q", rows[1][3])
	}
	if rows[1][4] != "[UMIG] Step APP-001, open" {
		t.Errorf("expected quoted subject to survive, got %q", rows[1][4])
	}
}

func TestDebugService_ExportEmails_BadFormat(t *testing.T) {
	service, _ := newTestDebugService()
	var buf bytes.Buffer

	_, err := service.ExportEmails(context.Background(), &buf, primary.ExportRequest{Format: "xml"})
	if !dberr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected nothing written, got %q", buf.String())
	}
}
