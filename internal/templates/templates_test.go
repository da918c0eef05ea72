package templates

import (
	"strings"
	"testing"
)

func TestDefaultEmailTemplates(t *testing.T) {
	all, err := DefaultEmailTemplates()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(all))
	}
	for _, tmpl := range all {
		if tmpl.Subject == "" || !strings.Contains(tmpl.BodyHTML, "{{.stepViewUrl}}") {
			t.Errorf("template %s is incomplete", tmpl.NotificationType)
		}
	}
}

func TestDefaultEmailTemplate(t *testing.T) {
	tmpl, err := DefaultEmailTemplate("STATUS_CHANGED")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(tmpl.BodyHTML, "{{.previousStatus}}") {
		t.Errorf("expected status change body, got %q", tmpl.BodyHTML)
	}

	if _, err := DefaultEmailTemplate("UNKNOWN"); err == nil {
		t.Error("expected error for unknown type")
	}
}
