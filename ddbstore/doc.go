// Package ddbstore provides a DynamoDB-backed implementation of store.Store.
//
// Each record is one item in a single table whose partition key is the
// configured primary-key attribute (a string). Writes to a live item use
// UpdateItem with a SET clause per patched field, so unlisted attributes are
// preserved.
//
// # Soft Delete
//
// Records can be removed immediately with [Store.Remove] or marked for
// deletion with [Store.Expire], which sets the TTL attribute to now and lets
// DynamoDB TTL reap the item later. Items whose TTL is at or before the
// current time are treated as absent by [Store.Has] and [Store.Get]. A
// later write replaces an expired item with a PutItem holding only the key
// and the written fields, so nothing from before the expiry comes back.
//
// # Events
//
// The store fires "modified" and "removed" for writes made through it. Writes
// made by other processes reach local subscribers through the stream package,
// which turns DynamoDB Streams records into the same events.
//
// # Values
//
// Values are marshalled with attributevalue. Numbers read back as float64,
// maps as map[string]any and lists as []any.
package ddbstore
