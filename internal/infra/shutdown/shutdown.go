package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Signals are the signals that cancel a WithSignals context.
var Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// WithSignals returns a context cancelled on SIGINT or SIGTERM.
func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, Signals...)
}

// Handler runs cleanup hooks once.
type Handler struct {
	timeout time.Duration
	hooks   []func(context.Context) error
	mu      sync.Mutex
	once    sync.Once
	err     error
	done    chan struct{}
}

// NewHandler creates a handler whose hooks share a timeout.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		hooks:   make([]func(context.Context) error, 0),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Shutdown runs every hook and returns their joined errors. Later calls
// return the first result.
func (h *Handler) Shutdown() error {
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := make([]func(context.Context) error, len(h.hooks))
		copy(hooks, h.hooks)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			if err := hooks[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		h.err = errors.Join(errs...)
		close(h.done)
	})
	return h.err
}

// Wait blocks until ctx is done, then runs Shutdown.
func (h *Handler) Wait(ctx context.Context) error {
	<-ctx.Done()
	return h.Shutdown()
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
