package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/yndnr/composable-go/internal/contracts/scoreboard"
	"github.com/yndnr/composable-go/internal/core/composable"
	"github.com/yndnr/composable-go/internal/core/dispatch"
	"github.com/yndnr/composable-go/internal/host/config"
	"github.com/yndnr/composable-go/internal/storage"
	"github.com/yndnr/composable-go/internal/storage/memory"
	"github.com/yndnr/composable-go/internal/telemetry/logger"
	"github.com/yndnr/composable-go/internal/telemetry/metric"
	"github.com/yndnr/composable-go/pkg/addr"
	"github.com/yndnr/composable-go/pkg/codec"
	"github.com/yndnr/composable-go/pkg/crypto/adaptive"
	"github.com/yndnr/composable-go/pkg/keyspace"
)

// storageKeyInfo is the HKDF info string for the value encryption subkey.
const storageKeyInfo = "composable/storage/v1"

// Registrar adds message variants to a router.
type Registrar func(r *dispatch.Router) error

// ErrCodecUnsupported is returned by New when the configured codec cannot
// store the state of the registered contracts.
var ErrCodecUnsupported = errors.New("codec not supported by contracts")

// Host is a configured sandbox environment.
type Host struct {
	cfg     *config.HostConfig
	log     logger.Logger
	metrics *metric.Registry
	engine  storage.KVEngine
	facade  *composable.Facade
	router  *dispatch.Router

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Host.
type Option func(*options)

type options struct {
	log        logger.Logger
	metrics    *metric.Registry
	registrars []Registrar
	codecs     []string // nil accepts every codec
}

// WithLogger overrides the logger built from the log section.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithMetrics records into reg regardless of metrics.enabled.
func WithMetrics(reg *metric.Registry) Option {
	return func(o *options) {
		o.metrics = reg
	}
}

// WithContracts replaces the default contract set. The caller is
// responsible for choosing a codec its contracts can use.
func WithContracts(registrars ...Registrar) Option {
	return func(o *options) {
		o.registrars = registrars
		o.codecs = nil
	}
}

// New builds a host from cfg. A nil cfg uses config.Default().
func New(cfg *config.HostConfig, opts ...Option) (*Host, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := options{
		registrars: []Registrar{scoreboard.Register},
		codecs:     scoreboard.Codecs,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c, err := codec.ByName(cfg.Codec.Name)
	if err != nil {
		return nil, err
	}
	if o.codecs != nil && !slices.Contains(o.codecs, c.Name()) {
		return nil, fmt.Errorf("%w: %q (want one of %v)", ErrCodecUnsupported, c.Name(), o.codecs)
	}

	h := &Host{cfg: cfg, log: o.log, metrics: o.metrics}
	if h.log == nil {
		l, err := logger.New(logger.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: os.Stderr,
		})
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		h.log = l
		logger.SetDefault(l)
	}
	if h.metrics == nil && cfg.Metrics.Enabled {
		var mopts []metric.Option
		if cfg.Metrics.Runtime {
			mopts = append(mopts, metric.WithRuntimeCollectors())
		}
		h.metrics = metric.NewRegistry(mopts...)
	}

	engine, err := openEngine(cfg.Storage, h.log)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	h.engine = engine

	if err := h.init(o.registrars); err != nil {
		_ = engine.Close()
		return nil, err
	}

	h.log.Info("host ready",
		"backend", cfg.Storage.Backend,
		"codec", cfg.Codec.Name,
		"address", cfg.Address.Service,
		"namespace", cfg.Namespace.Scheme,
		"atomic", cfg.Dispatch.Atomic,
		"encrypted", cfg.Security.StorageKey != "")
	return h, nil
}

func (h *Host) init(registrars []Registrar) error {
	cfg := h.cfg

	if be, ok := h.engine.(*storage.BadgerEngine); ok && h.metrics != nil {
		if err := be.RegisterMetrics(h.metrics.Registerer()); err != nil {
			return fmt.Errorf("register storage metrics: %w", err)
		}
	}

	raw, err := sealStore(h.engine, cfg.Security)
	if err != nil {
		return fmt.Errorf("init encryption: %w", err)
	}

	c, err := codec.ByName(cfg.Codec.Name)
	if err != nil {
		return err
	}
	ns, err := keyspace.ByName(cfg.Namespace.Scheme)
	if err != nil {
		return err
	}
	api, err := newAddressAPI(cfg.Address)
	if err != nil {
		return err
	}

	h.facade = composable.New(raw, api,
		composable.WithCodec(c),
		composable.WithNamespacer(ns),
		composable.WithLogger(h.log),
		composable.WithMetrics(h.metrics))

	h.router = dispatch.NewRouter(
		dispatch.WithAtomic(cfg.Dispatch.Atomic),
		dispatch.WithCodec(c),
		dispatch.WithLogger(h.log),
		dispatch.WithMetrics(h.metrics))

	for _, register := range registrars {
		if err := register(h.router); err != nil {
			return fmt.Errorf("register contract: %w", err)
		}
	}
	return nil
}

func openEngine(cfg config.StorageSection, log logger.Logger) (storage.KVEngine, error) {
	switch cfg.Backend {
	case "", "memory":
		return memory.New(), nil
	case "badger":
		return storage.NewBadgerEngine(cfg.KVConfig(), log.Slog())
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// sealStore wraps engine in a SealedStore when a storage key is configured.
func sealStore(engine storage.KVEngine, cfg config.SecuritySection) (storage.RawStore, error) {
	if cfg.StorageKey == "" {
		return engine, nil
	}

	master, err := adaptive.ParseKey(cfg.StorageKey)
	if err != nil {
		return nil, err
	}
	defer adaptive.ZeroKey(master)

	key, err := adaptive.DeriveKey(master, storageKeyInfo)
	if err != nil {
		return nil, err
	}
	defer adaptive.ZeroKey(key)

	cipher, err := adaptive.NewWithType(key, adaptive.CipherType(cfg.Cipher))
	if err != nil {
		return nil, err
	}
	return storage.NewSealedStore(engine, cipher), nil
}

func newAddressAPI(cfg config.AddressSection) (addr.API, error) {
	switch cfg.Service {
	case "", "mock":
		return addr.NewMockAPI(cfg.CanonicalLength), nil
	case "multibase":
		return addr.NewMultibaseAPI(cfg.Base, cfg.CanonicalLength)
	default:
		return nil, fmt.Errorf("unknown address service %q", cfg.Service)
	}
}

// Execute routes an execute message.
func (h *Host) Execute(ctx context.Context, env dispatch.Env, msg []byte) (*dispatch.Response, error) {
	return h.router.Execute(ctx, h.facade, env, msg)
}

// Query routes a query message against a read-only view.
func (h *Host) Query(ctx context.Context, msg []byte) ([]byte, error) {
	return h.router.Query(ctx, h.facade.ReadOnly(), msg)
}

// Facade returns the storage facade.
func (h *Host) Facade() *composable.Facade { return h.facade }

// Router returns the dispatch router.
func (h *Host) Router() *dispatch.Router { return h.router }

// Variants lists the registered message variants.
func (h *Host) Variants() dispatch.Schema { return h.router.Variants() }

// Config returns the configuration the host was built from.
func (h *Host) Config() *config.HostConfig { return h.cfg }

// Metrics returns the metrics registry, or nil when metrics are disabled.
func (h *Host) Metrics() *metric.Registry { return h.metrics }

// Stats returns storage statistics.
func (h *Host) Stats(ctx context.Context) (*storage.KVStats, error) {
	return h.engine.Stats(ctx)
}

// GC runs storage garbage collection and returns the bytes reclaimed.
func (h *Host) GC(ctx context.Context) (uint64, error) {
	n, err := h.engine.GC(ctx)
	if err != nil {
		return 0, err
	}
	h.log.Info("storage gc", "reclaimed", n)
	return n, nil
}

// Close releases the store. It is safe to call more than once.
func (h *Host) Close() error {
	h.closeOnce.Do(func() {
		h.closeErr = h.engine.Close()
		if errors.Is(h.closeErr, storage.ErrClosed) {
			h.closeErr = nil
		}
	})
	return h.closeErr
}
