// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"database/sql"
	"time"

	"github.com/example/umig/internal/ports/secondary"
)

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(time.RFC3339)
}

// statusColumns is the projection matching scanStatus.
const statusColumns = "st.id, st.name, st.color, st.entity_type"

// nullStatus holds a LEFT JOINed status row.
type nullStatus struct {
	id         sql.NullInt64
	name       sql.NullString
	color      sql.NullString
	entityType sql.NullString
}

func (s *nullStatus) dest() []any {
	return []any{&s.id, &s.name, &s.color, &s.entityType}
}

// record returns nil when the join found no status row.
func (s *nullStatus) record() *secondary.StatusRecord {
	if !s.id.Valid {
		return nil
	}
	return &secondary.StatusRecord{
		ID:         int(s.id.Int64),
		Name:       s.name.String,
		Color:      s.color.String,
		EntityType: s.entityType.String,
	}
}
