package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced question does not exist
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated is returned when a request carries no valid session
	ErrUnauthenticated = errors.New("authentication required")
	// ErrUnauthorized is returned when the caller lacks a capability
	ErrUnauthorized = errors.New("permission denied")
)

// StorageError reports a failed persistence operation
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err with the failed operation name.
// A nil err yields nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err wraps a StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
