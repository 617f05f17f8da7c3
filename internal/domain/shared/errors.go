package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code, so that errors built
// with NewDomainError match the sentinels below through errors.Is.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrValidation        = NewDomainError("VALIDATION_FAILED", "Input validation failed")
	ErrInvalidState      = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInvalidTransition = NewDomainError("INVALID_TRANSITION", "Status transition is not allowed")
	ErrNotConfirmed      = NewDomainError("NOT_CONFIRMED", "Destructive operation was not confirmed")
	ErrMalformedPayload  = NewDomainError("MALFORMED_PAYLOAD", "Backend returned a malformed record")
	ErrUnauthorized      = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrSessionExpired    = NewDomainError("SESSION_EXPIRED", "Session expired, please log in again")
	ErrUnavailable       = NewDomainError("UNAVAILABLE", "Backend data is unavailable, only sample content is loaded")
)

// FieldError describes a single invalid form field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when client-side input checks fail before any
// backend call is made.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Message
	}
	msg := ErrValidation.Message + ": " + e.Fields[0].Field + " " + e.Fields[0].Message
	if len(e.Fields) > 1 {
		msg += " (and more)"
	}
	return msg
}

// Is makes errors.Is(err, ErrValidation) hold for any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}
