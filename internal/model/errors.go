package model

import "errors"

var (
	// Record store errors
	ErrNotFound            = errors.New("record not found")
	ErrConnectionFailed    = errors.New("record store unavailable")
	ErrConstraintViolation = errors.New("constraint violation")

	// Blob store errors
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrInvalidPath   = errors.New("invalid storage path")

	// Client input errors
	ErrValidationFailed = errors.New("validation failed")
	ErrKindMismatch     = errors.New("unknown or mismatched record kind")

	// Archive lifecycle errors
	ErrNotArchived     = errors.New("record is not archived")
	ErrAlreadyArchived = errors.New("record is already archived")

	// Auth errors
	ErrUnauthorized        = errors.New("unauthorized")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrSessionExpired      = errors.New("session expired")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTwoFactorRequired   = errors.New("two-factor code required")
	ErrTwoFactorNotPending = errors.New("two-factor enrolment not started")
)

// StoreError carries the record store's own message next to the
// classified sentinel so handlers can surface it.
type StoreError struct {
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Message != "" {
		return e.Op + ": " + e.Kind.Error() + ": " + e.Message
	}
	return e.Op + ": " + e.Kind.Error()
}

func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
