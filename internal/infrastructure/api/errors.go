package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/erp/books/internal/domain/shared"
)

// Error is a non-2xx response from the backend
type Error struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	Method     string
	Path       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Is maps HTTP statuses onto the shared domain errors, so callers can use
// errors.Is(err, shared.ErrNotFound) without knowing about HTTP.
func (e *Error) Is(target error) bool {
	switch target {
	case shared.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case shared.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case shared.ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case shared.ErrInvalidTransition:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// StatusCode returns the HTTP status of an API error, or 0
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether the backend rejected the credentials
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNotFound reports whether the backend reported the record missing
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
