package notification

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/example/umig/internal/dberr"
)

// Rendered is a subject and HTML body produced from a template.
type Rendered struct {
	Subject  string
	BodyHTML string
}

// Render executes the subject as plain text and the body as HTML against vars.
// Missing keys render as empty values.
func Render(subject, body string, vars map[string]any) (*Rendered, error) {
	if strings.TrimSpace(body) == "" {
		return nil, dberr.Validation("template body is empty")
	}

	subjectTmpl, err := texttemplate.New("subject").Option("missingkey=zero").Parse(subject)
	if err != nil {
		return nil, dberr.Validation("invalid subject template: %v", err)
	}
	bodyTmpl, err := htmltemplate.New("body").Option("missingkey=zero").Parse(body)
	if err != nil {
		return nil, dberr.Validation("invalid body template: %v", err)
	}

	var subj, html strings.Builder
	if err := subjectTmpl.Execute(&subj, vars); err != nil {
		return nil, dberr.Validation("failed to render subject: %v", err)
	}
	if err := bodyTmpl.Execute(&html, vars); err != nil {
		return nil, dberr.Validation("failed to render body: %v", err)
	}

	return &Rendered{
		Subject:  strings.TrimSpace(strings.ReplaceAll(subj.String(), "<no value>", "")),
		BodyHTML: html.String(),
	}, nil
}
