package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/api"
	"github.com/erp/books/internal/infrastructure/session"
)

// ErrAborted is returned when the user declines a confirmation prompt
var ErrAborted = errors.New("aborted")

// userError rewrites the errors a user can act on into plain messages.
// Anything else is returned unchanged.
func userError(err error) error {
	if err == nil {
		return nil
	}
	var verr *shared.ValidationError
	switch {
	case errors.Is(err, shared.ErrNotConfirmed):
		return ErrAborted
	case errors.Is(err, shared.ErrSessionExpired), errors.Is(err, session.ErrNoSession):
		return errors.New("your session has expired, run `books login` to sign in again")
	case errors.As(err, &verr) && len(verr.Fields) > 0:
		parts := make([]string, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			parts = append(parts, f.Field+" "+f.Message)
		}
		return fmt.Errorf("invalid input: %s", strings.Join(parts, "; "))
	case api.IsNotFound(err):
		return fmt.Errorf("not found: %w", err)
	case errors.Is(err, shared.ErrInvalidTransition):
		return fmt.Errorf("not allowed: %w", err)
	case errors.Is(err, shared.ErrUnavailable):
		return fmt.Errorf("backend unavailable, nothing was changed: %w", err)
	}
	return err
}
