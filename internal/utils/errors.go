package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures so callers can tell "retry" from
// "fix and resubmit" without string matching.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindAuthentication ErrorKind = "authentication"
	KindAuthorization  ErrorKind = "authorization"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindTransient      ErrorKind = "transient"
)

// AppError carries an error kind plus a stable machine code and a
// human-readable message for the response envelope.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// NewError builds an AppError of the given kind.
func NewError(kind ErrorKind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

// WrapTransient marks an underlying infrastructure failure as retryable.
func WrapTransient(err error, message string) *AppError {
	return &AppError{Kind: KindTransient, Code: "TRANSIENT_ERROR", Message: message, Err: err}
}

// Common application errors used across services.
var (
	ErrInvalidCredentials = NewError(KindAuthentication, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrAwaitingApproval   = NewError(KindAuthentication, "AWAITING_APPROVAL", "Account is awaiting approval")
	ErrAccountRejected    = NewError(KindAuthentication, "ACCOUNT_REJECTED", "Registration request was rejected")
	ErrIdentityMissing    = NewError(KindAuthentication, "IDENTITY_MISSING", "No identity record for this session")
	ErrSessionExpired     = NewError(KindAuthentication, "SESSION_EXPIRED", "Session is no longer valid")
	ErrNotAuthorized      = NewError(KindAuthorization, "NOT_AUTHORIZED", "Actor lacks the role required for this action")
	ErrAdminNotFound      = NewError(KindNotFound, "ADMIN_NOT_FOUND", "Admin identity not found")
	ErrEmailTaken         = NewError(KindConflict, "EMAIL_TAKEN", "Email is already registered")
	ErrNotPending         = NewError(KindConflict, "NOT_PENDING", "Target is not a pending registration request")
)

// IsKind reports whether err is (or wraps) an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// AsAppError extracts the AppError from err, wrapping unknown errors as
// transient so infrastructure faults never leak raw to the envelope.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return WrapTransient(err, "Unexpected backend failure")
}

// HTTPStatus maps an error kind to the response status code.
func HTTPStatus(err error) int {
	switch AsAppError(err).Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}
