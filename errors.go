package tagstore

import (
	"errors"
	"fmt"

	"github.com/rbaliyan/tagstore/dialect"
)

// Sentinel errors for the tagstore package.
// Use errors.Is() to check for these errors.
var (
	// ErrAlreadyExists is returned when a tag id or name collides with an
	// existing tag in the same mailbox.
	ErrAlreadyExists = errors.New("tagstore: tag already exists")

	// ErrNotFound is returned when a referenced tag does not exist, or
	// vanished mid-transaction (e.g. a racing delete).
	ErrNotFound = errors.New("tagstore: tag not found")

	// ErrInvalidRequest is returned when the caller violates a usage
	// contract, such as requesting a row scan for an item type that is
	// served from the in-memory cache.
	ErrInvalidRequest = errors.New("tagstore: invalid request")
)

// Error checking helpers.

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsTransient reports whether err is a recoverable busy/locked/deadlock
// condition under the given dialect. Callers should retry the whole
// transaction, not the individual statement.
func IsTransient(d dialect.Dialect, err error) bool {
	return dialect.Transient(d, err)
}

// StorageError wraps an unclassified backend failure. The underlying cause
// is always carried and never swallowed.
type StorageError struct {
	// Op is the operation that failed (e.g. "create tag").
	Op string

	// Err is the underlying driver error.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("tagstore: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr wraps err as a StorageError unless it already carries one of
// the package sentinels.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidRequest) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
