package repository

import "github.com/rpggio/appforge/internal/repository/repoerr"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = repoerr.ErrNotFound

	// ErrConflict is returned when a write is rejected to preserve an
	// invariant, such as transitioning a terminal build
	ErrConflict = repoerr.ErrConflict

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = repoerr.ErrForeignKeyViolation

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = repoerr.ErrInvalidInput
)
