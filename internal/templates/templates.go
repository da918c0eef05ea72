// Package templates embeds the built-in notification e-mail templates.
package templates

import (
	"embed"
	"fmt"
)

//go:embed email/*.html
var emailTemplates embed.FS

// EmailTemplate is a built-in template for one notification type.
type EmailTemplate struct {
	NotificationType string
	Name             string
	Subject          string
	BodyHTML         string
}

var defaults = []struct {
	notificationType string
	name             string
	subject          string
	file             string
}{
	{"OPENED", "Step opened", "[{{.systemName}}] Step {{.code}} {{.name}} is open", "email/opened.html"},
	{"STATUS_CHANGED", "Step status changed", "[{{.systemName}}] Step {{.code}} {{.previousStatus}} -> {{.newStatus}}", "email/status_changed.html"},
	{"INSTRUCTION_COMPLETED", "Instruction completed", "[{{.systemName}}] Step {{.code}}: instruction completed", "email/instruction_completed.html"},
}

// DefaultEmailTemplates returns the built-in template of every notification type.
func DefaultEmailTemplates() ([]EmailTemplate, error) {
	out := make([]EmailTemplate, 0, len(defaults))
	for _, d := range defaults {
		body, err := emailTemplates.ReadFile(d.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", d.file, err)
		}
		out = append(out, EmailTemplate{
			NotificationType: d.notificationType,
			Name:             d.name,
			Subject:          d.subject,
			BodyHTML:         string(body),
		})
	}
	return out, nil
}

// DefaultEmailTemplate returns the built-in template for one notification type.
func DefaultEmailTemplate(notificationType string) (*EmailTemplate, error) {
	all, err := DefaultEmailTemplates()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].NotificationType == notificationType {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("no built-in template for %s", notificationType)
}
