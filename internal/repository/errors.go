package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyApplied is returned when a settlement has already been committed.
	ErrAlreadyApplied = errors.New("settlement already applied")
)
