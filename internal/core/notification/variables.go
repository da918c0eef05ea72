// Package notification builds the template variables for step notification
// e-mails. It is part of the functional core: callers hand in a snapshot of
// the enriched step and receive a flat bag of display-ready values.
package notification

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/example/umig/internal/dberr"
)

// Type discriminates notification kinds.
type Type string

const (
	TypeOpened               Type = "OPENED"
	TypeStatusChanged        Type = "STATUS_CHANGED"
	TypeInstructionCompleted Type = "INSTRUCTION_COMPLETED"
)

// KnownTypes lists the types with a default template.
var KnownTypes = []Type{TypeOpened, TypeStatusChanged, TypeInstructionCompleted}

// SystemName is the constant label rendered in every notification.
const SystemName = "UMIG"

// DefaultMaxComments caps recentComments.
const DefaultMaxComments = 3

// Variable keys.
const (
	KeyName              = "name"
	KeyCode              = "code"
	KeyStatus            = "status"
	KeyStatusColor       = "statusColor"
	KeyTeam              = "team"
	KeyMigration         = "migration"
	KeyIteration         = "iteration"
	KeyInstructions      = "instructions"
	KeyRecentComments    = "recentComments"
	KeyStepViewURL       = "stepViewUrl"
	KeyContextualStepURL = "contextualStepUrl"
	KeyTimestamp         = "timestamp"
	KeySystemName        = "systemName"
	KeyPreviousStatus    = "previousStatus"
	KeyNewStatus         = "newStatus"
	KeyCompletedBy       = "completedBy"
	KeyCompletedAt       = "completedAt"
	KeyInstruction       = "instruction"
)

// InstructionSummary is one instruction line of a step.
type InstructionSummary struct {
	ID        string
	Order     int
	Body      string
	Completed bool
}

// CommentSummary is one comment on a step.
type CommentSummary struct {
	Author    string
	Body      string
	CreatedAt string
}

// StepSnapshot is the enriched step a notification is about.
type StepSnapshot struct {
	ID          string
	Code        string
	Name        string
	Status      string
	StatusColor string
	Team        string
	MigrationID string
	Migration   string
	IterationID string
	Iteration   string

	Instructions []InstructionSummary
	Comments     []CommentSummary // newest first
}

// Extra carries the type-specific inputs.
type Extra struct {
	PreviousStatus string
	NewStatus      string
	CompletedBy    string
	CompletedAt    string
	Instruction    string
}

// Options tunes URL construction and clocks.
type Options struct {
	BaseURL     string
	Now         time.Time
	MaxComments int
}

// Result is the variable bag plus any warnings raised while building it.
type Result struct {
	Variables map[string]any
	Warnings  []string
}

// Has reports whether key is present.
func (r *Result) Has(key string) bool {
	_, ok := r.Variables[key]
	return ok
}

// StepCode formats the human step code, e.g. APP-001.
func StepCode(typeCode string, number int) string {
	if typeCode == "" {
		return ""
	}
	return fmt.Sprintf("%s-%03d", typeCode, number)
}

// BuildVariables produces the template variables for a notification.
// A nil snapshot or empty type is rejected before anything is built.
// Unknown types still succeed with the common fields and a warning.
func BuildVariables(snapshot *StepSnapshot, typ Type, extra Extra, opts Options) (*Result, error) {
	if snapshot == nil {
		return nil, dberr.Validation("step snapshot is required")
	}
	if strings.TrimSpace(string(typ)) == "" {
		return nil, dberr.Validation("notification type is required")
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	maxComments := opts.MaxComments
	if maxComments <= 0 {
		maxComments = DefaultMaxComments
	}

	comments := snapshot.Comments
	if len(comments) > maxComments {
		comments = comments[:maxComments]
	}

	instructions := make([]map[string]any, 0, len(snapshot.Instructions))
	for _, in := range snapshot.Instructions {
		instructions = append(instructions, map[string]any{
			"id":        in.ID,
			"order":     in.Order,
			"body":      in.Body,
			"completed": in.Completed,
		})
	}
	recent := make([]map[string]any, 0, len(comments))
	for _, c := range comments {
		recent = append(recent, map[string]any{
			"author":    c.Author,
			"body":      c.Body,
			"createdAt": c.CreatedAt,
		})
	}

	vars := map[string]any{
		KeyName:              snapshot.Name,
		KeyCode:              snapshot.Code,
		KeyStatus:            snapshot.Status,
		KeyStatusColor:       snapshot.StatusColor,
		KeyTeam:              snapshot.Team,
		KeyMigration:         snapshot.Migration,
		KeyIteration:         snapshot.Iteration,
		KeyInstructions:      instructions,
		KeyRecentComments:    recent,
		KeyStepViewURL:       stepViewURL(opts.BaseURL, snapshot),
		KeyContextualStepURL: contextualStepURL(opts.BaseURL, snapshot),
		KeyTimestamp:         now.UTC().Format(time.RFC3339),
		KeySystemName:        SystemName,
	}
	result := &Result{Variables: vars}

	switch typ {
	case TypeOpened:
	case TypeStatusChanged:
		vars[KeyPreviousStatus] = extra.PreviousStatus
		vars[KeyNewStatus] = extra.NewStatus
	case TypeInstructionCompleted:
		vars[KeyCompletedBy] = extra.CompletedBy
		vars[KeyCompletedAt] = extra.CompletedAt
		vars[KeyInstruction] = extra.Instruction
	default:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("unknown notification type %q: only common variables were built", typ))
	}

	return result, nil
}

func stepViewURL(base string, s *StepSnapshot) string {
	q := url.Values{}
	q.Set("mig", s.MigrationID)
	q.Set("ite", s.IterationID)
	q.Set("stepid", s.ID)
	return strings.TrimRight(base, "/") + "/step-view?" + q.Encode()
}

func contextualStepURL(base string, s *StepSnapshot) string {
	q := url.Values{}
	q.Set("mig", s.MigrationID)
	q.Set("ite", s.IterationID)
	return strings.TrimRight(base, "/") + "/iteration-view?" + q.Encode() + "#" + url.PathEscape(s.ID)
}
