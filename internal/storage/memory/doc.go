// Package memory provides an in-memory key-value store.
//
// It implements storage.KVEngine on top of a sharded concurrent map and is
// the backing store for mock environments and tests. Values are copied on
// the way in and out, so callers never share memory with the store.
//
// Thread Safety:
//
// Single-key operations lock only their shard. Apply takes the store-wide
// write lock so a batch is never observed half-applied.
package memory
