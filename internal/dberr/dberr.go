// Package dberr classifies data-store failures into the small taxonomy callers act on:
// referential-integrity violations, uniqueness violations, missing rows and
// rejected input. Classification is driver independent: mattn/go-sqlite3,
// modernc.org/sqlite and pgx errors all map onto the same kinds and SQL states.
package dberr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	moderncsqlite "modernc.org/sqlite"
	moderncsqlite3 "modernc.org/sqlite/lib"
)

// SQL states reported for each constraint kind (PostgreSQL class 23).
const (
	SQLStateNotNullViolation    = "23502"
	SQLStateForeignKeyViolation = "23503"
	SQLStateUniqueViolation     = "23505"
	SQLStateCheckViolation      = "23514"
)

// Operation names used when classifying.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

var (
	// ErrNotFound marks a lookup that matched no row.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks input rejected before touching the store.
	ErrValidation = errors.New("validation failed")
)

// Kind is the category of a constraint violation.
type Kind int

const (
	KindUnknown Kind = iota
	KindForeignKey
	KindUnique
	KindNotNull
	KindCheck
)

func (k Kind) String() string {
	switch k {
	case KindForeignKey:
		return "foreign key"
	case KindUnique:
		return "unique"
	case KindNotNull:
		return "not null"
	case KindCheck:
		return "check"
	default:
		return "unknown"
	}
}

// SQLState returns the SQL state code for the kind, or "" for KindUnknown.
func (k Kind) SQLState() string {
	switch k {
	case KindForeignKey:
		return SQLStateForeignKeyViolation
	case KindUnique:
		return SQLStateUniqueViolation
	case KindNotNull:
		return SQLStateNotNullViolation
	case KindCheck:
		return SQLStateCheckViolation
	default:
		return ""
	}
}

// ConstraintError is a classified constraint violation.
type ConstraintError struct {
	Kind   Kind
	Op     string
	Entity string
	Detail string
	Err    error
}

func (e *ConstraintError) Error() string {
	msg := fmt.Sprintf("%s %s: %s violation (SQLSTATE %s)", e.Op, e.Entity, e.Kind, e.Kind.SQLState())
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// SQLState returns the SQL state of the violation.
func (e *ConstraintError) SQLState() string { return e.Kind.SQLState() }

// KindOf inspects a driver error and reports its constraint kind.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Kind
	}

	var mattnErr sqlite3.Error
	if errors.As(err, &mattnErr) && mattnErr.Code == sqlite3.ErrConstraint {
		switch mattnErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return KindForeignKey
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return KindUnique
		case sqlite3.ErrConstraintNotNull:
			return KindNotNull
		case sqlite3.ErrConstraintCheck:
			return KindCheck
		}
	}

	var moderncErr *moderncsqlite.Error
	if errors.As(err, &moderncErr) {
		switch moderncErr.Code() {
		case moderncsqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return KindForeignKey
		case moderncsqlite3.SQLITE_CONSTRAINT_UNIQUE, moderncsqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return KindUnique
		case moderncsqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return KindNotNull
		case moderncsqlite3.SQLITE_CONSTRAINT_CHECK:
			return KindCheck
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case SQLStateForeignKeyViolation:
			return KindForeignKey
		case SQLStateUniqueViolation:
			return KindUnique
		case SQLStateNotNullViolation:
			return KindNotNull
		case SQLStateCheckViolation:
			return KindCheck
		}
	}

	// Errors that lost their driver type on the way up (e.g. re-wrapped with %v).
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return KindForeignKey
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return KindUnique
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return KindNotNull
	case strings.Contains(msg, "CHECK constraint failed"):
		return KindCheck
	}

	return KindUnknown
}

// Classify converts a driver error into a *ConstraintError when it is a
// recognised constraint violation. Other errors are returned unchanged.
func Classify(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return err
	}
	kind := KindOf(err)
	if kind == KindUnknown {
		return err
	}
	return &ConstraintError{
		Kind:   kind,
		Op:     op,
		Entity: entity,
		Detail: err.Error(),
		Err:    err,
	}
}

// ForeignKeyViolation builds a classified referential-integrity error for
// violations detected before reaching the store.
func ForeignKeyViolation(entity, op, detail string) error {
	return &ConstraintError{Kind: KindForeignKey, Op: op, Entity: entity, Detail: detail}
}

// NotFound returns an error wrapping ErrNotFound.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}

// Validation returns an error wrapping ErrValidation.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsForeignKeyViolation reports whether err is a referential-integrity violation.
func IsForeignKeyViolation(err error) bool { return KindOf(err) == KindForeignKey }

// IsUniqueViolation reports whether err is a uniqueness violation.
func IsUniqueViolation(err error) bool { return KindOf(err) == KindUnique }

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err wraps ErrValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// SQLState returns the SQL state carried by err, or "" if it is not a constraint violation.
func SQLState(err error) string { return KindOf(err).SQLState() }

// HTTPStatus maps an error onto the status code the REST API answers with.
// Referential-integrity violations are client errors (400); uniqueness
// violations are conflicts (409).
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	}
	switch KindOf(err) {
	case KindForeignKey, KindNotNull, KindCheck:
		return http.StatusBadRequest
	case KindUnique:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
