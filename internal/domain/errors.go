package domain

import "errors"

// Absence is not an error: lookups return a nil record and searches an empty slice.
var (
	ErrConflict = errors.New("conflict")
	// ErrInvalidFilter rejects search bounds that cannot be bound as query arguments
	// (NaN, infinities, prices beyond the minor-unit range).
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrQuery wraps any other failure to execute a statement.
	ErrQuery = errors.New("query failed")
)
