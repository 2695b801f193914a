package sqlitestore

import (
	"fmt"

	"github.com/jacentio/tether/store"
)

// Config holds configuration for the Store.
type Config struct {
	// Path is the database file. Required.
	Path string

	// Table holds the records. Must be a plain SQL identifier.
	// Default: "tether_records"
	Table string

	// PrimaryKey is the record field used as unique identifier.
	// Default: "id"
	PrimaryKey string
}

// DefaultConfig returns the default table layout. Path must still be set.
func DefaultConfig() Config {
	return Config{
		Table:      "tether_records",
		PrimaryKey: store.DefaultPrimaryKey,
	}
}

// validate fills in defaults for unset values and rejects unusable ones.
func (c *Config) validate() error {
	if c.Path == "" {
		return fmt.Errorf("sqlitestore: path is required")
	}
	if c.Table == "" {
		c.Table = "tether_records"
	}
	if !isIdentifier(c.Table) {
		return fmt.Errorf("sqlitestore: invalid table name %q", c.Table)
	}
	if c.PrimaryKey == "" {
		c.PrimaryKey = store.DefaultPrimaryKey
	}
	return nil
}

// isIdentifier reports whether name can be spliced into SQL unquoted.
func isIdentifier(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return name != ""
}
