package memory

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"

	"github.com/yndnr/composable-go/internal/storage"
	"github.com/yndnr/composable-go/pkg/cmap"
)

var _ storage.KVEngine = (*Store)(nil)

// Store is an in-memory storage.KVEngine.
type Store struct {
	items *cmap.Map[[]byte]

	// mu serialises Apply against single-key operations.
	mu     sync.RWMutex
	closed atomic.Bool
}

// Option configures the Store.
type Option func(*storeOptions)

type storeOptions struct {
	shards int
}

// WithShards sets the shard count of the underlying map.
func WithShards(n int) Option {
	return func(o *storeOptions) {
		o.shards = n
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	o := storeOptions{shards: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{items: cmap.NewWithShards[[]byte](o.shards)}
}

// Get retrieves a copy of the value stored under key.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := s.check(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items.Get(string(key))
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// Set stores a copy of value under key.
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	if err := s.check(key); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.items.Set(string(key), cloneValue(value))
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, key []byte) error {
	if err := s.check(key); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.items.Delete(string(key))
	return nil
}

// Apply writes all mutations while holding the store-wide lock.
func (s *Store) Apply(ctx context.Context, mutations []storage.Mutation) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	for _, m := range mutations {
		if len(m.Key) == 0 {
			return storage.ErrEmptyKey
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range mutations {
		if m.Delete {
			s.items.Delete(string(m.Key))
			continue
		}
		s.items.Set(string(m.Key), cloneValue(m.Value))
	}
	return nil
}

// Scan visits keys with the given prefix in ascending order.
//
// Keys are collected up front; a key deleted after that point is skipped.
func (s *Store) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	s.mu.RLock()
	keys := s.items.SortedKeys(string(prefix))
	s.mu.RUnlock()

	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, ok := s.items.Get(k)
		if !ok {
			continue
		}
		if !fn([]byte(k), bytes.Clone(v)) {
			break
		}
	}
	return nil
}

// GC is a no-op for the memory store.
func (s *Store) GC(ctx context.Context) (uint64, error) {
	if s.closed.Load() {
		return 0, storage.ErrClosed
	}
	return 0, nil
}

// Stats reports the key count and the summed size of keys and values.
func (s *Store) Stats(ctx context.Context) (*storage.KVStats, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}

	stats := &storage.KVStats{Engine: "memory"}
	s.items.Range(func(key string, value []byte) bool {
		stats.TotalKeys++
		stats.TotalSize += uint64(len(key) + len(value))
		return true
	})
	return stats, nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	return s.items.Count()
}

// Clone returns an independent deep copy of the store.
func (s *Store) Clone() *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &Store{items: s.items.Clone(bytes.Clone)}
}

// Close marks the store closed and drops its contents.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.items.Clear()
	return nil
}

func (s *Store) check(key []byte) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	if len(key) == 0 {
		return storage.ErrEmptyKey
	}
	return nil
}

// cloneValue copies value, keeping an empty value distinct from nil so a
// stored empty slice reads back as present.
func cloneValue(value []byte) []byte {
	if value == nil {
		return []byte{}
	}
	return bytes.Clone(value)
}
