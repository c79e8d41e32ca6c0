package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict") // e.g., email already registered
	ErrInternalServer     = errors.New("internal server error")
	ErrValidation         = errors.New("validation failed")
	ErrServiceUnavailable = errors.New("service unavailable") // e.g. Piston down
	ErrJobLockFailed      = errors.New("failed to acquire job lock")
	ErrTooManyRequests    = errors.New("too many requests")
)

// Machine-readable codes carried in error bodies.
const (
	CodeMissingRequiredFields = "MISSING_REQUIRED_FIELDS"
	CodeInvalidName           = "INVALID_NAME"
	CodeInvalidEmail          = "INVALID_EMAIL"
	CodeInvalidPassword       = "INVALID_PASSWORD"
	CodeUserExists            = "USER_EXISTS"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeAccountDisabled       = "ACCOUNT_DISABLED"
	CodeInvalidSlug           = "INVALID_SLUG"
	CodeProblemNotFound       = "PROBLEM_NOT_FOUND"
	CodeUnsupportedLanguage   = "UNSUPPORTED_LANGUAGE"
	CodeCodeTooLong           = "CODE_TOO_LONG"
	CodeUsernameTaken         = "USERNAME_TAKEN"
	CodeRateLimited           = "RATE_LIMITED"
)

// CodedError attaches a machine code and optional field name to one of the sentinel errors.
type CodedError struct {
	Kind    error
	Code    string
	Field   string
	Message string
}

func (e *CodedError) Error() string {
	return e.Message
}

func (e *CodedError) Unwrap() error {
	return e.Kind
}

// ValidationError builds a 400-class error with a code and the offending field.
func ValidationError(code, field, message string) error {
	return &CodedError{Kind: ErrValidation, Code: code, Field: field, Message: message}
}

// NewCodedError wraps kind with a code. Field is left empty.
func NewCodedError(kind error, code, message string) error {
	return &CodedError{Kind: kind, Code: code, Message: message}
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrTooManyRequests) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrJobLockFailed) {
		return http.StatusConflict
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // Unique violation
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// UniqueViolationConstraint returns the violated constraint name, or "" when err is not a unique violation.
func UniqueViolationConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName
	}
	return ""
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
