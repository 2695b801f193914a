package store

import "fmt"

// Record maps field names to values.
type Record map[string]any

// Change is the payload of store events.
type Change struct {
	// Key is the primary key of the affected record.
	Key string

	// Value is the patch for EventModified, or the last stored value for
	// EventRemoved.
	Value Record
}

// Has reports whether the record contains field.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Clone returns a copy of the record. Nested maps and slices are shared.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge copies every field of patch into r.
func (r Record) Merge(patch Record) {
	for k, v := range patch {
		r[k] = v
	}
}

// KeyOf extracts the primary-key value of r.
func KeyOf(r Record, primaryKey string) (string, error) {
	v, ok := r[primaryKey]
	if !ok {
		return "", fmt.Errorf("field %q: %w", primaryKey, ErrMissingKey)
	}
	key, ok := v.(string)
	if !ok || key == "" {
		return "", fmt.Errorf("field %q = %v: %w", primaryKey, v, ErrInvalidKey)
	}
	return key, nil
}
