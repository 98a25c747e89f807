package triple

import "errors"

// Common store errors.
var (
	// ErrInvalidTriple is returned when a triple has an empty subject or
	// predicate, or carries no provenance.
	ErrInvalidTriple = errors.New("invalid triple")

	// ErrDuplicateTriple is returned when an identical (subject, predicate,
	// object) triple already exists. The first insertion's provenance is kept.
	ErrDuplicateTriple = errors.New("duplicate triple")
)
