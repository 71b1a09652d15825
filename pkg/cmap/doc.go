// Package cmap provides a sharded concurrent map keyed by strings.
//
// Keys are distributed over shards with murmur3, and each shard is guarded
// by its own RWMutex. The in-memory raw store uses it with the raw byte key
// converted to a string, so ordered iteration is provided separately by
// SortedKeys rather than by the shard layout.
//
//	m := cmap.New[[]byte]()
//	m.Set("game1count", []byte("42"))
//	val, ok := m.Get("game1count")
package cmap
