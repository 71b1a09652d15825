// Package overlay buffers writes over a storage.RawStore so that a unit of
// work can be committed in one batch or thrown away.
package overlay

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/yndnr/composable-go/internal/storage"
)

// ErrFinished is returned by operations on an overlay that has already been
// committed or discarded.
var ErrFinished = errors.New("overlay: already committed or discarded")

type entry struct {
	value   []byte
	deleted bool
}

// Overlay is a write buffer over a backing store. Reads see buffered writes
// first; nothing reaches the backing store until Commit.
type Overlay struct {
	base storage.RawStore

	mu       sync.RWMutex
	pending  map[string]entry
	finished bool
}

var _ storage.RawStore = (*Overlay)(nil)

// New creates an empty overlay over base.
func New(base storage.RawStore) *Overlay {
	return &Overlay{
		base:    base,
		pending: make(map[string]entry),
	}
}

// Get returns the buffered value for key, falling back to the backing store.
func (o *Overlay) Get(ctx context.Context, key []byte) ([]byte, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.finished {
		return nil, ErrFinished
	}
	if e, ok := o.pending[string(key)]; ok {
		if e.deleted {
			return nil, storage.ErrKeyNotFound
		}
		return bytes.Clone(e.value), nil
	}
	return o.base.Get(ctx, key)
}

// Set buffers a write.
func (o *Overlay) Set(ctx context.Context, key, value []byte) error {
	if len(key) == 0 {
		return storage.ErrEmptyKey
	}
	if value == nil {
		value = []byte{}
	}
	return o.put(key, entry{value: bytes.Clone(value)})
}

// Delete buffers a removal.
func (o *Overlay) Delete(ctx context.Context, key []byte) error {
	if len(key) == 0 {
		return storage.ErrEmptyKey
	}
	return o.put(key, entry{deleted: true})
}

func (o *Overlay) put(key []byte, e entry) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.finished {
		return ErrFinished
	}
	o.pending[string(key)] = e
	return nil
}

// Scan merges buffered writes with the backing store, in ascending key order.
func (o *Overlay) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	o.mu.RLock()
	if o.finished {
		o.mu.RUnlock()
		return ErrFinished
	}

	merged := make(map[string][]byte)
	err := o.base.Scan(ctx, prefix, func(key, value []byte) bool {
		merged[string(key)] = value
		return true
	})
	if err != nil {
		o.mu.RUnlock()
		return err
	}
	p := string(prefix)
	for k, e := range o.pending {
		if !strings.HasPrefix(k, p) {
			continue
		}
		if e.deleted {
			delete(merged, k)
			continue
		}
		merged[k] = bytes.Clone(e.value)
	}
	o.mu.RUnlock()

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !fn([]byte(k), merged[k]) {
			break
		}
	}
	return nil
}

// Mutations returns the buffered writes sorted by key.
func (o *Overlay) Mutations() []storage.Mutation {
	o.mu.RLock()
	defer o.mu.RUnlock()

	keys := make([]string, 0, len(o.pending))
	for k := range o.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]storage.Mutation, 0, len(keys))
	for _, k := range keys {
		e := o.pending[k]
		out = append(out, storage.Mutation{
			Key:    []byte(k),
			Value:  bytes.Clone(e.value),
			Delete: e.deleted,
		})
	}
	return out
}

// Len returns the number of buffered keys.
func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.pending)
}

// Commit writes every buffered mutation to the backing store, as one batch
// when the store supports it. The overlay is finished afterwards, even if
// the write fails.
func (o *Overlay) Commit(ctx context.Context) error {
	muts := o.Mutations()

	o.mu.Lock()
	if o.finished {
		o.mu.Unlock()
		return ErrFinished
	}
	o.finished = true
	o.pending = nil
	o.mu.Unlock()

	if len(muts) == 0 {
		return nil
	}
	return storage.ApplyMutations(ctx, o.base, muts)
}

// Discard drops every buffered mutation.
func (o *Overlay) Discard() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.finished = true
	o.pending = nil
}
