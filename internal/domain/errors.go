package domain

import (
	"errors"
	"fmt"
)

// Account errors
var (
	ErrValidation            = errors.New("validation error")
	ErrDuplicateAccount      = errors.New("duplicate account")
	ErrDuplicateUsername     = fmt.Errorf("%w: username already taken", ErrDuplicateAccount)
	ErrDuplicateEmail        = fmt.Errorf("%w: email already registered", ErrDuplicateAccount)
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidOrExpiredToken = errors.New("token is either expired or invalid")
	ErrAccountNotFound       = errors.New("account not found")
)

// ValidationError describes which input was missing or malformed.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
