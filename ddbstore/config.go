package ddbstore

import "github.com/jacentio/tether/store"

// Config holds configuration for the Store.
type Config struct {
	// TableName is the DynamoDB table holding the records.
	// Default: "tether_records"
	TableName string

	// PrimaryKey is the partition key attribute (type S).
	// Default: "id"
	PrimaryKey string

	// TTLAttribute is the attribute DynamoDB TTL is enabled on.
	// Default: "ttl"
	TTLAttribute string
}

// DefaultConfig returns the default table layout.
func DefaultConfig() Config {
	return Config{
		TableName:    "tether_records",
		PrimaryKey:   store.DefaultPrimaryKey,
		TTLAttribute: "ttl",
	}
}

// validate fills in defaults for unset values.
func (c *Config) validate() {
	if c.TableName == "" {
		c.TableName = "tether_records"
	}
	if c.PrimaryKey == "" {
		c.PrimaryKey = store.DefaultPrimaryKey
	}
	if c.TTLAttribute == "" {
		c.TTLAttribute = "ttl"
	}
}
