package vfs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation requires an entry that does not exist.
	ErrNotFound = errors.New("entry not found")

	// ErrNotAFile is returned when a content operation targets a folder.
	ErrNotAFile = errors.New("entry is not a file")

	// ErrCycle is returned by Delete when the parent relation loops back on itself.
	// This only happens if the store was modified outside the service.
	ErrCycle = errors.New("folder tree contains a cycle")

	// ErrQuotaExceeded is wrapped in a StoreError when a write would exceed the content quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// StoreError reports a failure of the underlying persistence substrate.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err as a StoreError for the named operation.
func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
