package store

// DefaultPrimaryKey is the primary-key field name used when none is configured.
const DefaultPrimaryKey = "id"

// Config holds configuration for the Memory store.
type Config struct {
	// PrimaryKey is the record field used as unique identifier.
	// Default: "id"
	PrimaryKey string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PrimaryKey: DefaultPrimaryKey,
	}
}

// validate fills in defaults for unset values.
func (c *Config) validate() {
	if c.PrimaryKey == "" {
		c.PrimaryKey = DefaultPrimaryKey
	}
}
