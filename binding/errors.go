package binding

import "errors"

var (
	// ErrMissingPrimaryKey is returned when construction properties lack the primary-key field.
	ErrMissingPrimaryKey = errors.New("tether: binding creation failed, missing primary key in properties")

	// ErrInvalidPrimaryKey is returned when the primary-key value is not a non-empty string.
	ErrInvalidPrimaryKey = errors.New("tether: binding creation failed, primary key must be a non-empty string")

	// ErrImmutableField is returned when writing a read-only field such as the primary key.
	ErrImmutableField = errors.New("tether: field is read-only")

	// ErrUnknownField is returned when accessing a field the binding type doesn't declare.
	ErrUnknownField = errors.New("tether: unknown field")

	// ErrInvalidField is returned when a type declaration has an empty or duplicate field name.
	ErrInvalidField = errors.New("tether: invalid field declaration")

	// ErrFieldType is returned when a field value doesn't have the requested type.
	ErrFieldType = errors.New("tether: field has unexpected type")
)
