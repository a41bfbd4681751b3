package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// reKeyField extracts field name from unique violation detail: "Key (field)=(value) already exists.".
	reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)
	// reReferencedFrom detects parent deletion: "... is still referenced from table ...".
	reReferencedFrom = regexp.MustCompile(`is still referenced from table "?([^"]+)"?`)
	// reNotPresent detects missing parent: "... is not present in table ...".
	reNotPresent = regexp.MustCompile(`is not present in table "?([^"]+)"?`)
)

// checkConstraints maps named CHECK constraints from the migrations to field-level messages.
var checkConstraints = map[string]struct{ field, message string }{
	"campaigns_interval_hours_range": {
		field:   "interval_hours",
		message: "Schedule interval must be between 0.10 and 168.00 hours.",
	},
	"campaigns_content_types_max": {
		field:   "content_types",
		message: "At most 5 content types may be selected.",
	},
	"content_jobs_status_check": {
		field:   "status",
		message: "Unknown content job status.",
	},
}

// MapDBError maps database errors to AppError instances:
// pgx.ErrNoRows to NotFound, unique violations to Conflict, foreign key violations to ForeignKey,
// check and NOT NULL violations to Validation, and context errors to Timeout/Canceled.
// Unrecognized errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "Database operation timed out.", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "Database operation was canceled.", Cause: err}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{Code: ErrCodeNotFound, Message: "Resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}
	return err
}

// IsUniqueViolation reports whether err is a unique violation on the named constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return mapUniqueViolation(pgErr)
	case pgerrcode.ForeignKeyViolation:
		return mapForeignKeyViolation(pgErr)
	case pgerrcode.CheckViolation:
		return mapCheckViolation(pgErr)
	case pgerrcode.NotNullViolation:
		return mapNotNullViolation(pgErr)
	default:
		return &AppError{Code: ErrCodeInternal, Message: "A database error occurred.", Cause: pgErr}
	}
}

func mapUniqueViolation(pgErr *pgconn.PgError) error {
	field := pgErr.ColumnName
	if field == "" && pgErr.Detail != "" {
		if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			field = m[1]
		}
	}
	return &AppError{
		Code:    ErrCodeConflict,
		Message: "This value already exists.",
		Field:   field,
		Cause:   pgErr,
	}
}

func mapForeignKeyViolation(pgErr *pgconn.PgError) error {
	message := "Cannot complete operation because this item is in use."
	if m := reReferencedFrom.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		message = "Cannot delete because this item is in use by a " + tableDomain(m[1]) + "."
	} else if m := reNotPresent.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		message = "The referenced " + tableDomain(m[1]) + " does not exist."
	} else if pgErr.TableName != "" {
		message = "Cannot complete operation because this item is in use by a " + tableDomain(pgErr.TableName) + "."
	}
	return &AppError{Code: ErrCodeForeignKey, Message: message, Cause: pgErr}
}

func mapNotNullViolation(pgErr *pgconn.PgError) error {
	if pgErr.ColumnName != "" {
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "This field is required.",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	}
	return &AppError{Code: ErrCodeValidation, Message: "Required field is missing.", Cause: pgErr}
}

func mapCheckViolation(pgErr *pgconn.PgError) error {
	if known, ok := checkConstraints[pgErr.ConstraintName]; ok {
		return &AppError{Code: ErrCodeValidation, Message: known.message, Field: known.field, Cause: pgErr}
	}
	return &AppError{
		Code:    ErrCodeValidation,
		Message: "Invalid data. Please check your input.",
		Field:   pgErr.ColumnName,
		Cause:   pgErr,
	}
}

// tableDomain maps internal table names to readable names.
func tableDomain(table string) string {
	switch strings.ToLower(strings.TrimSpace(table)) {
	case "campaigns":
		return "campaign"
	case "content_jobs":
		return "content job"
	case "sites":
		return "site"
	case "audit_events":
		return "audit event"
	default:
		return strings.ReplaceAll(table, "_", " ")
	}
}
