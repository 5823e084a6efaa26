package specialties

import "errors"

var (
	// ErrNotFound is returned when no specialty matches the lookup
	ErrNotFound = errors.New("specialty not found")

	// ErrMissingName is returned when the name is empty
	ErrMissingName = errors.New("specialty name is required")

	// ErrNameTaken is returned when the name already exists
	ErrNameTaken = errors.New("specialty already exists")

	// ErrInUse is returned when deleting a specialty doctors still reference
	ErrInUse = errors.New("specialty is still referenced by doctors")
)
