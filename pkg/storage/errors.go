package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a resource does not exist or belongs to
	// another owner.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when a resource with the given ID already exists.
	ErrConflict = errors.New("resource already exists")
)
