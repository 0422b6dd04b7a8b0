package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested thread does not exist.
var ErrNotFound = errors.New("thread not found")

// NotFoundError wraps ErrNotFound with the missing thread's id.
type NotFoundError struct {
	ThreadID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("thread not found: %s", e.ThreadID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a typed not found error.
func NewNotFoundError(threadID string) error {
	return &NotFoundError{ThreadID: threadID}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
