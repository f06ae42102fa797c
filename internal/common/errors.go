package common

import (
	"errors"
	"fmt"
)

var (
	// store errors
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// service errors
	ErrValidation       = errors.New("validation error")
	ErrSelfInteraction  = errors.New("cannot interact with yourself")
	ErrDuplicateRequest = errors.New("request already sent for this post")
	ErrUnauthorized     = errors.New("unauthorized")
)

// Invalid wraps ErrValidation with a user-facing message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
