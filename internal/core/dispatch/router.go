package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yndnr/composable-go/internal/core/composable"
	"github.com/yndnr/composable-go/internal/core/domain"
	"github.com/yndnr/composable-go/internal/storage/overlay"
	"github.com/yndnr/composable-go/internal/telemetry/logger"
	"github.com/yndnr/composable-go/internal/telemetry/metric"
	"github.com/yndnr/composable-go/pkg/codec"
)

// Dispatch kinds, used in logs and metrics.
const (
	KindHandle = "handle"
	KindQuery  = "query"
)

// Outcomes recorded per dispatched message.
const (
	OutcomeOK        = "ok"
	OutcomeUnknown   = "unknown"
	OutcomeMalformed = "malformed"
	OutcomeHandler   = "handler_error"
	OutcomeCommit    = "commit_error"
	OutcomeEncode    = "encode_error"
)

// ErrDuplicateVariant is returned when a variant name is registered twice.
var ErrDuplicateVariant = errors.New("dispatch: variant already registered")

// ErrInvalidVariant is returned when a variant name is not snake_case.
var ErrInvalidVariant = errors.New("dispatch: variant name must be snake_case")

type handleDecoder func(body json.RawMessage) (HandleDispatcher, error)

type queryRunner func(ctx context.Context, reader composable.Reader) (any, error)

type queryDecoder func(body json.RawMessage) (queryRunner, error)

// Router maps variant names to message types.
type Router struct {
	mu      sync.RWMutex
	handles map[string]handleDecoder
	queries map[string]queryDecoder

	atomic  bool
	codec   codec.Codec
	log     logger.Logger
	metrics *metric.Registry
}

// Option configures a Router.
type Option func(*Router)

// WithAtomic selects whether execute writes are buffered and committed only
// on success. Default: true.
func WithAtomic(atomic bool) Option {
	return func(r *Router) { r.atomic = atomic }
}

// WithCodec sets the codec used to encode query results. Default: JSON.
func WithCodec(c codec.Codec) Option {
	return func(r *Router) {
		if c != nil {
			r.codec = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics records dispatch outcomes in reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(r *Router) { r.metrics = reg }
}

// NewRouter creates an empty router.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		handles: make(map[string]handleDecoder),
		queries: make(map[string]queryDecoder),
		atomic:  true,
		codec:   codec.Default,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Atomic reports whether execute writes are committed only on success.
func (r *Router) Atomic() bool { return r.atomic }

// RegisterHandle registers execute message type M under name. The variant
// body is decoded strictly into a fresh M for every message.
func RegisterHandle[M HandleDispatcher](r *Router, name string) error {
	return r.addHandle(name, func(body json.RawMessage) (HandleDispatcher, error) {
		var m M
		if err := decodeBody(body, &m); err != nil {
			return nil, err
		}
		return m, nil
	})
}

// RegisterHandleFunc registers fn under name for a variant without fields.
func (r *Router) RegisterHandleFunc(name string, fn HandleFunc) error {
	return r.addHandle(name, func(body json.RawMessage) (HandleDispatcher, error) {
		var empty struct{}
		if err := decodeBody(body, &empty); err != nil {
			return nil, err
		}
		return fn, nil
	})
}

// RegisterQuery registers query message type M producing R under name.
func RegisterQuery[M QueryDispatcher[R], R any](r *Router, name string) error {
	return r.addQuery(name, func(body json.RawMessage) (queryRunner, error) {
		var m M
		if err := decodeBody(body, &m); err != nil {
			return nil, err
		}
		return func(ctx context.Context, reader composable.Reader) (any, error) {
			return m.DispatchQuery(ctx, reader)
		}, nil
	})
}

func (r *Router) addHandle(name string, dec handleDecoder) error {
	if !ValidVariant(name) {
		return fmt.Errorf("%w: %q", ErrInvalidVariant, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[name]; ok {
		return fmt.Errorf("%w: handle %q", ErrDuplicateVariant, name)
	}
	r.handles[name] = dec
	return nil
}

func (r *Router) addQuery(name string, dec queryDecoder) error {
	if !ValidVariant(name) {
		return fmt.Errorf("%w: %q", ErrInvalidVariant, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.queries[name]; ok {
		return fmt.Errorf("%w: query %q", ErrDuplicateVariant, name)
	}
	r.queries[name] = dec
	return nil
}

// Schema lists the registered variant names.
type Schema struct {
	Handle []string `json:"handle"`
	Query  []string `json:"query"`
}

// Variants returns the registered variant names, sorted.
func (r *Router) Variants() Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Schema{
		Handle: make([]string, 0, len(r.handles)),
		Query:  make([]string, 0, len(r.queries)),
	}
	for name := range r.handles {
		s.Handle = append(s.Handle, name)
	}
	for name := range r.queries {
		s.Query = append(s.Query, name)
	}
	sort.Strings(s.Handle)
	sort.Strings(s.Query)
	return s
}

// Execute routes an execute message to its handler against f.
//
// Unknown variants fail with domain.ErrUnknownMessage and unparsable ones
// with domain.ErrMalformedMessage, in both cases before any handler runs.
// A handler error is wrapped in domain.ErrHandler.
func (r *Router) Execute(ctx context.Context, f *composable.Facade, env Env, msg []byte) (resp *Response, err error) {
	start := time.Now()
	env = env.withDefaults()
	ctx = logger.WithRequestID(ctx, env.RequestID.String())
	ctx = logger.WithLogger(ctx, r.log)
	log := logger.L(ctx).WithContext(ctx).With("kind", KindHandle)

	variant, body, perr := parseEnvelope(msg)
	if perr != nil {
		r.observe(KindHandle, "", OutcomeMalformed, start)
		log.Warn("malformed message", "error", perr)
		return nil, domain.ErrMalformedMessage.WithCause(perr)
	}
	log = log.With("variant", variant)

	r.mu.RLock()
	dec, ok := r.handles[variant]
	r.mu.RUnlock()
	if !ok {
		r.observe(KindHandle, variant, OutcomeUnknown, start)
		log.Warn("unknown message variant")
		return nil, domain.ErrUnknownMessage.WithDetails(variant)
	}

	m, derr := dec(body)
	if derr != nil {
		r.observe(KindHandle, variant, OutcomeMalformed, start)
		log.Warn("malformed message body", "error", derr)
		return nil, domain.ErrMalformedMessage.WithDetails(variant).WithCause(derr)
	}

	store := f
	var ov *overlay.Overlay
	if r.atomic {
		ov = overlay.New(f.Raw())
		store = f.Over(ov)
	}

	resp, herr := m.DispatchHandle(ctx, store, env)
	if herr != nil {
		if ov != nil {
			ov.Discard()
		}
		r.observe(KindHandle, variant, OutcomeHandler, start)
		log.Info("handler failed", "error", herr, "rolled_back", ov != nil)
		return nil, domain.ErrHandler.WithDetails(variant).WithCause(herr)
	}

	if ov != nil {
		writes := ov.Len()
		cerr := ov.Commit(ctx)
		r.metrics.ObserveCommit(cerr)
		if cerr != nil {
			r.observe(KindHandle, variant, OutcomeCommit, start)
			log.Error("commit failed", "error", cerr, "writes", writes)
			return nil, domain.ErrCommit.WithDetails(variant).WithCause(cerr)
		}
		log = log.With("writes", writes)
	}

	if resp == nil {
		resp = NewResponse()
	}
	r.observe(KindHandle, variant, OutcomeOK, start)
	log.Debug("message handled", "elapsed", time.Since(start))
	return resp, nil
}

// Query routes a query message to its handler and encodes the result with
// the router's codec.
func (r *Router) Query(ctx context.Context, reader composable.Reader, msg []byte) ([]byte, error) {
	start := time.Now()
	ctx = logger.WithLogger(ctx, r.log)
	log := logger.L(ctx).WithContext(ctx).With("kind", KindQuery)

	variant, body, perr := parseEnvelope(msg)
	if perr != nil {
		r.observe(KindQuery, "", OutcomeMalformed, start)
		return nil, domain.ErrMalformedMessage.WithCause(perr)
	}
	log = log.With("variant", variant)

	r.mu.RLock()
	dec, ok := r.queries[variant]
	r.mu.RUnlock()
	if !ok {
		r.observe(KindQuery, variant, OutcomeUnknown, start)
		log.Warn("unknown query variant")
		return nil, domain.ErrUnknownMessage.WithDetails(variant)
	}

	run, derr := dec(body)
	if derr != nil {
		r.observe(KindQuery, variant, OutcomeMalformed, start)
		return nil, domain.ErrMalformedMessage.WithDetails(variant).WithCause(derr)
	}

	result, qerr := run(ctx, reader)
	if qerr != nil {
		r.observe(KindQuery, variant, OutcomeHandler, start)
		log.Info("query failed", "error", qerr)
		return nil, domain.ErrHandler.WithDetails(variant).WithCause(qerr)
	}

	data, eerr := r.codec.Marshal(result)
	if eerr != nil {
		r.observe(KindQuery, variant, OutcomeEncode, start)
		return nil, domain.ErrEncode.WithDetails(variant).WithCause(eerr)
	}

	r.observe(KindQuery, variant, OutcomeOK, start)
	return data, nil
}

func (r *Router) observe(kind, variant, outcome string, start time.Time) {
	if variant == "" || outcome == OutcomeUnknown {
		// Keep label cardinality bounded by registered names.
		variant = "_"
	}
	r.metrics.ObserveDispatch(kind, variant, outcome, start)
}
