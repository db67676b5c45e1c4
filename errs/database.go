package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDatabaseQuery      = errors.New("database query failed")
	ErrDatabaseConnection = errors.New("database connection failed")
)

// Database & Storage Specific Errors
var (
	ErrUniqueConstraintViolation = errors.New("unique constraint violation")
	ErrForeignKeyConstraint      = errors.New("foreign key constraint violation")
	ErrInvalidTransition         = errors.New("invalid status transition")
)

// Postgres SQLSTATE codes the classifier understands.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        fmt.Errorf("%s %w", entity, ErrNotFound),
	}
}

// NewInvalidTransitionError reports a status change the transition table does not allow.
func NewInvalidTransitionError(entity, from, to string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrInvalidTransition,
		Details:    fmt.Sprintf("%s cannot move from %s to %s", entity, from, to),
		Field:      "status",
	}
}

// NewDatabaseError creates a new database error with details about the operation.
// Errors that are already classified pass through untouched.
func NewDatabaseError(operation, entity string, cause error) *ApiErr {
	var apiErr *ApiErr
	if errors.As(cause, &apiErr) {
		return apiErr
	}

	details := fmt.Sprintf("Failed to %s %s", operation, entity)

	var pgErr *pgconn.PgError
	if errors.As(cause, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return NewUniqueConstraintViolationError(entity, pgErr.ConstraintName, cause)
		case pgForeignKeyViolation:
			return foreignKeyError(operation, entity, cause)
		case pgCheckViolation, pgNotNullViolation:
			return &ApiErr{
				StatusCode: http.StatusBadRequest,
				err:        ErrInvalidField,
				Details:    fmt.Sprintf("%s violates constraint %s", entity, pgErr.ConstraintName),
				Field:      pgErr.ColumnName,
				Cause:      cause,
			}
		}
	}

	switch {
	case errors.Is(cause, gorm.ErrRecordNotFound):
		return &ApiErr{
			StatusCode: http.StatusNotFound,
			err:        fmt.Errorf("%s %w", entity, ErrNotFound),
			Details:    details,
			Cause:      cause,
		}
	case errors.Is(cause, gorm.ErrDuplicatedKey):
		return NewUniqueConstraintViolationError(entity, "", cause)
	case errors.Is(cause, gorm.ErrForeignKeyViolated):
		return foreignKeyError(operation, entity, cause)
	}

	// Check for common database errors and provide more specific messages
	if cause != nil {
		errStr := cause.Error()
		switch {
		case strings.Contains(errStr, "duplicate key"):
			return NewUniqueConstraintViolationError(entity, "", cause)
		case strings.Contains(errStr, "foreign key constraint"):
			return foreignKeyError(operation, entity, cause)
		case strings.Contains(errStr, "failed to connect"), strings.Contains(errStr, "connection refused"):
			return &ApiErr{
				StatusCode: http.StatusInternalServerError,
				err:        ErrDatabaseConnection,
				Details:    "Unable to connect to database",
				Cause:      cause,
			}
		}
	}

	// Generic database error
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrDatabaseQuery,
		Details:    details,
		Cause:      cause,
	}
}

// foreignKeyError separates a blocked delete (the row is still referenced)
// from a write that points at a row which does not exist.
func foreignKeyError(operation, entity string, cause error) *ApiErr {
	if strings.HasPrefix(operation, "delete") {
		return NewDependencyError(entity, fmt.Sprintf("%s is still referenced by other records and cannot be deleted", entity), cause)
	}
	return NewForeignKeyConstraintError(entity, "referenced resource", cause)
}

func NewUniqueConstraintViolationError(entity, field string, cause error) *ApiErr {
	details := fmt.Sprintf("Unique constraint violation on %s", entity)
	if field != "" {
		details = fmt.Sprintf("Unique constraint violation on %s.%s", entity, field)
	}
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        fmt.Errorf("%w: %w", ErrConflict, ErrUniqueConstraintViolation),
		Details:    details,
		Cause:      cause,
		Field:      field,
	}
}

func NewForeignKeyConstraintError(entity, referencedEntity string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrForeignKeyConstraint,
		Details:    fmt.Sprintf("Foreign key constraint violation: %s references %s that does not exist", entity, referencedEntity),
		Cause:      cause,
		Field:      "foreign_key",
	}
}

func IsForeignKeyConstraintError(err error) bool {
	return errors.Is(err, ErrForeignKeyConstraint)
}

func IsInvalidTransitionError(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
