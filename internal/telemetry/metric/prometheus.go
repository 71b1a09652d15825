package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes every metric name.
const Namespace = "composable"

// Outcome labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Storage facade metrics
	StorageOps      *prometheus.CounterVec
	StorageDuration *prometheus.HistogramVec

	// Dispatch metrics
	DispatchTotal    *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	Commits          *prometheus.CounterVec
}

// Option configures NewRegistry.
type Option func(*options)

type options struct {
	runtime bool
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(o *options) { o.runtime = true }
}

// NewRegistry creates a private Prometheus registry with every metric
// registered.
func NewRegistry(opts ...Option) *Registry {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{
		reg: prometheus.NewRegistry(),
		StorageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Facade storage operations by operation and result.",
		}, []string{"op", "result"}),
		StorageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Latency of facade storage operations.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"op"}),
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "dispatch",
			Name:      "messages_total",
			Help:      "Dispatched messages by kind, variant and outcome.",
		}, []string{"kind", "variant", "outcome"}),
		DispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Latency of dispatched messages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		Commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "dispatch",
			Name:      "commits_total",
			Help:      "Request write-set commits by result.",
		}, []string{"result"}),
	}

	r.reg.MustRegister(r.StorageOps, r.StorageDuration, r.DispatchTotal, r.DispatchDuration, r.Commits)
	if o.runtime {
		r.reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// Registerer returns the registerer for extra collectors.
func (r *Registry) Registerer() prometheus.Registerer { return r.reg }

// Gatherer returns the gatherer used for exposition.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// ObserveStorage records one facade storage operation. A nil Registry is a no-op.
func (r *Registry) ObserveStorage(op string, start time.Time, err error) {
	if r == nil {
		return
	}
	r.StorageOps.WithLabelValues(op, result(err)).Inc()
	r.StorageDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveDispatch records one dispatched message. A nil Registry is a no-op.
func (r *Registry) ObserveDispatch(kind, variant, outcome string, start time.Time) {
	if r == nil {
		return
	}
	r.DispatchTotal.WithLabelValues(kind, variant, outcome).Inc()
	r.DispatchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// ObserveCommit records the result of committing a request's writes.
func (r *Registry) ObserveCommit(err error) {
	if r == nil {
		return
	}
	r.Commits.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
