package store

import "errors"

var (
	// ErrNotFound is returned when a record doesn't exist.
	ErrNotFound = errors.New("tether: record not found")

	// ErrMissingKey is returned when a record has no primary-key field.
	ErrMissingKey = errors.New("tether: record has no primary key")

	// ErrInvalidKey is returned when a primary-key value is not a non-empty string.
	ErrInvalidKey = errors.New("tether: primary key must be a non-empty string")
)
