// Package repoerr holds the repository sentinel errors in a leaf package
// so domain packages can match them without importing repository, which
// itself imports the domain packages for its interface types.
package repoerr

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write is rejected to preserve an
	// invariant, such as transitioning a terminal build
	ErrConflict = errors.New("conflict: entity state does not allow this write")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
