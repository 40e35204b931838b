package util

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an identifier cannot be resolved.
var ErrNotFound = errors.New("not found")

// ValidationError reports a caller mistake detected before any I/O is
// performed.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError formats a ValidationError.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
