package composable

import (
	"context"
	"errors"
	"time"

	"github.com/yndnr/composable-go/internal/core/domain"
	"github.com/yndnr/composable-go/internal/storage"
	"github.com/yndnr/composable-go/internal/telemetry/logger"
	"github.com/yndnr/composable-go/internal/telemetry/metric"
	"github.com/yndnr/composable-go/pkg/addr"
	"github.com/yndnr/composable-go/pkg/codec"
	"github.com/yndnr/composable-go/pkg/keyspace"
)

// Reader is the read-only capability given to query handlers.
type Reader interface {
	// Load decodes the value stored under key into v, which must be a
	// pointer. found is false when the key holds nothing.
	Load(ctx context.Context, key []byte, v any) (found bool, err error)

	// Key combines namespace and key into the raw lookup key.
	Key(namespace, key []byte) ([]byte, error)

	// API returns the address service.
	API() addr.API
}

// Store is the read-write capability given to execute handlers.
type Store interface {
	Reader

	// Save encodes v and writes it under key.
	Save(ctx context.Context, key []byte, v any) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key []byte) error
}

var (
	_ Store  = (*Facade)(nil)
	_ Reader = readOnly{}
)

// Facade implements Store over a storage.RawStore.
type Facade struct {
	raw     storage.RawStore
	api     addr.API
	codec   codec.Codec
	ns      keyspace.Namespacer
	log     logger.Logger
	metrics *metric.Registry
}

// Option configures a Facade.
type Option func(*Facade)

// WithCodec sets the value codec. Default: codec.Default (JSON).
func WithCodec(c codec.Codec) Option {
	return func(f *Facade) {
		if c != nil {
			f.codec = c
		}
	}
}

// WithNamespacer sets how namespaces combine with keys. Default: keyspace.Concat.
func WithNamespacer(ns keyspace.Namespacer) Option {
	return func(f *Facade) {
		if ns != nil {
			f.ns = ns
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Facade) {
		if l != nil {
			f.log = l
		}
	}
}

// WithMetrics records storage operations in reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(f *Facade) {
		f.metrics = reg
	}
}

// New creates a facade over raw using api for address conversion.
func New(raw storage.RawStore, api addr.API, opts ...Option) *Facade {
	f := &Facade{
		raw:   raw,
		api:   api,
		codec: codec.Default,
		ns:    keyspace.Concat,
		log:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Over returns a facade with the same configuration over another raw store.
// The dispatch router uses it to point handlers at a request overlay.
func (f *Facade) Over(raw storage.RawStore) *Facade {
	clone := *f
	clone.raw = raw
	return &clone
}

// Raw returns the underlying raw store.
func (f *Facade) Raw() storage.RawStore { return f.raw }

// API returns the address service.
func (f *Facade) API() addr.API { return f.api }

// Codec returns the value codec.
func (f *Facade) Codec() codec.Codec { return f.codec }

// Key implements Reader.
func (f *Facade) Key(namespace, key []byte) ([]byte, error) {
	raw, err := f.ns(namespace, key)
	if err != nil {
		return nil, domain.ErrInvalidKey.WithCause(err)
	}
	return raw, nil
}

// ReadOnly returns a view of f that does not implement Store.
func (f *Facade) ReadOnly() Reader {
	return readOnly{f: f}
}

// Load implements Reader.
func (f *Facade) Load(ctx context.Context, key []byte, v any) (found bool, err error) {
	start := time.Now()
	defer func() { f.metrics.ObserveStorage("load", start, err) }()

	data, err := f.raw.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, f.backendError(ctx, "load", key, err)
	}

	if err := f.codec.Unmarshal(data, v); err != nil {
		f.log.WithContext(ctx).Warn("stored value does not decode",
			"key", keyString(key),
			"codec", f.codec.Name(),
			"error", err)
		return false, domain.ErrDecode.WithCause(err)
	}
	return true, nil
}

// Save implements Store.
func (f *Facade) Save(ctx context.Context, key []byte, v any) (err error) {
	start := time.Now()
	defer func() { f.metrics.ObserveStorage("save", start, err) }()

	data, err := f.codec.Marshal(v)
	if err != nil {
		return domain.ErrEncode.WithCause(err)
	}
	if err := f.raw.Set(ctx, key, data); err != nil {
		return f.backendError(ctx, "save", key, err)
	}
	return nil
}

// Remove implements Store.
func (f *Facade) Remove(ctx context.Context, key []byte) (err error) {
	start := time.Now()
	defer func() { f.metrics.ObserveStorage("remove", start, err) }()

	if err := f.raw.Delete(ctx, key); err != nil {
		return f.backendError(ctx, "remove", key, err)
	}
	return nil
}

func (f *Facade) backendError(ctx context.Context, op string, key []byte, err error) error {
	if errors.Is(err, storage.ErrEmptyKey) {
		return domain.ErrInvalidArgument.WithDetails("empty storage key").WithCause(err)
	}
	f.log.WithContext(ctx).Error("raw store failed",
		"op", op,
		"key", keyString(key),
		"error", err)
	return domain.ErrBackend.WithDetails(op).WithCause(err)
}

// readOnly hides the write half of a Facade.
type readOnly struct {
	f *Facade
}

func (r readOnly) Load(ctx context.Context, key []byte, v any) (bool, error) {
	return r.f.Load(ctx, key, v)
}

func (r readOnly) Key(namespace, key []byte) ([]byte, error) { return r.f.Key(namespace, key) }

func (r readOnly) API() addr.API { return r.f.API() }
