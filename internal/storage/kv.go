package storage

import (
	"context"
	"errors"
	"time"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
	ErrEmptyKey    = errors.New("key must not be empty")
)

// RawStore is the byte-oriented store owned by the host environment.
//
// Implementations must copy values on the way in and out; callers may
// reuse the slices they pass or receive.
type RawStore interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set stores a key-value pair.
	Set(ctx context.Context, key, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key []byte) error

	// Scan iterates over keys with a given prefix in ascending key order.
	// Callback returns false to stop iteration.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error
}

// Mutation is one buffered write. Delete set means Value is ignored.
type Mutation struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Batcher is implemented by stores that can apply several mutations atomically.
type Batcher interface {
	Apply(ctx context.Context, mutations []Mutation) error
}

// KVEngine is a RawStore with an owned lifecycle.
type KVEngine interface {
	RawStore
	Batcher

	// GC triggers garbage collection. Returns bytes reclaimed (approximate).
	GC(ctx context.Context) (uint64, error)

	// Stats returns storage statistics.
	Stats(ctx context.Context) (*KVStats, error)

	// Close releases the engine.
	Close() error
}

// ApplyMutations applies mutations to store, atomically when it implements
// Batcher and in order otherwise.
func ApplyMutations(ctx context.Context, store RawStore, mutations []Mutation) error {
	if b, ok := store.(Batcher); ok {
		return b.Apply(ctx, mutations)
	}
	for _, m := range mutations {
		var err error
		if m.Delete {
			err = store.Delete(ctx, m.Key)
		} else {
			err = store.Set(ctx, m.Key, m.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// KVStats contains storage engine statistics.
type KVStats struct {
	// Engine names the backend ("badger", "memory").
	Engine string `json:"engine"`

	// TotalKeys is the number of live keys.
	TotalKeys uint64 `json:"total_keys"`

	// TotalSize is the total size in bytes.
	TotalSize uint64 `json:"total_size"`

	// LSMSize is the LSM tree size (Badger only).
	LSMSize uint64 `json:"lsm_size"`

	// ValueLogSize is the value log size (Badger only).
	ValueLogSize uint64 `json:"value_log_size"`

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64 `json:"last_gc_time"`

	// GCBytesReclaimed is the total bytes reclaimed by GC.
	GCBytesReclaimed uint64 `json:"gc_bytes_reclaimed"`
}

// KVConfig configures an embedded KV engine.
type KVConfig struct {
	// Engine specifies the KV engine type ("badger", "memory").
	// Default: "badger"
	Engine string

	// Dir is the storage directory (badger only).
	Dir string

	// Badger-specific configuration
	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic GC runs.
	// Zero or negative disables the background loop.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 256MB
	ValueLogFileSize int64

	// NumMemtables is the number of memtables.
	// Default: 2
	NumMemtables int

	// SyncWrites enables fsync after each write.
	// Default: true, a committed request must survive a crash.
	SyncWrites bool

	// InMemory keeps all data in memory (tests).
	InMemory bool
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Engine: "badger",
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        64 << 20, // 64MB
		ValueLogFileSize: 256 << 20,
		NumMemtables:     2,
		SyncWrites:       true,
	}
}
