// Package store defines the key-value store contract that bindings attach to.
//
// A store holds records keyed by a primary-key field and broadcasts two
// events to its subscribers:
//
//   - [EventModified] - after every insert or merge, with the patch (or the
//     full record for [Store.Put]) and the record key
//   - [EventRemoved] - after a record is deleted, with its last value and key
//
// Events are dispatched synchronously, in subscriber registration order, as
// part of the call that caused them. Implementations release their internal
// locks before dispatching, so listeners may read the store.
//
// # Implementations
//
//   - [Memory] - in-process map, the reference implementation
//   - ddbstore.Store - DynamoDB table with TTL soft delete
//   - sqlitestore.Store - SQLite table of JSON documents
//
// Implementations embed [Events] to provide subscription management.
//
// # Configuration
//
// Use [DefaultConfig] for the default primary key ("id"):
//
//	s := store.NewMemory(store.DefaultConfig())
//
// # Errors
//
//   - [ErrNotFound] - record doesn't exist
//   - [ErrMissingKey] - record has no primary-key field
//   - [ErrInvalidKey] - primary-key value is not a string
package store
