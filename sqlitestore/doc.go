// Package sqlitestore provides a store.Store backed by a SQLite database.
//
// Each record is kept as one JSON document in a two-column table keyed by
// the record's primary key. Writes read, merge and upsert inside a single
// transaction; store events are emitted after the transaction commits.
//
// JSON decoding follows encoding/json, so numbers read back as float64.
//
// Usage:
//
//	s, err := sqlitestore.Open(sqlitestore.Config{Path: "records.db"})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	b, err := binding.New(ctx, s, store.Record{"id": "A", "title": "Clean room"})
package sqlitestore
