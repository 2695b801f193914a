// Package stream turns DynamoDB Streams records into store events.
//
// Bindings only hear about writes made through their own store value. When
// several processes share a table, run a [Handler] on the table's stream
// (NEW_AND_OLD_IMAGES view) and point it at the local store's notifier, so
// that writes from other processes reach local bindings too:
//
//	s := ddbstore.New(client, ddbstore.DefaultConfig())
//	h := stream.NewHandler(s, s.PrimaryKey(), "ttl", logger)
//	lambda.Start(h.HandleRecords)
//
// # Mapping
//
//   - INSERT, MODIFY - "modified" with the new image
//   - MODIFY that newly sets the TTL attribute - "removed" with the old image
//   - REMOVE - "removed" with the old image, unless the item had already
//     been soft deleted (TTL reaping)
package stream
