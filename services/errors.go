package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("session request not found")
	ErrForbidden         = errors.New("not allowed to perform this action")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("session request was modified by someone else, reload and retry")
)

// ValidationError rejects input before anything is written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
