package cmap

import (
	"sort"
	"strings"
)

// Range iterates over all key-value pairs in no particular order.
//
// The callback returns false to stop iteration. Locks are taken shard by
// shard, so the view is not a consistent snapshot under concurrent writes.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// SortedKeys returns the keys starting with prefix in ascending byte order.
func (m *Map[V]) SortedKeys(prefix string) []string {
	var keys []string
	m.Range(func(key string, _ V) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the map with the same shard count.
// copyValue, when non-nil, is applied to every value.
func (m *Map[V]) Clone(copyValue func(V) V) *Map[V] {
	out := NewWithShards[V](len(m.shards))
	m.Range(func(key string, value V) bool {
		if copyValue != nil {
			value = copyValue(value)
		}
		out.Set(key, value)
		return true
	})
	return out
}
