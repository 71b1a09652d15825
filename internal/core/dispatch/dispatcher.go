package dispatch

import (
	"context"

	"github.com/yndnr/composable-go/internal/core/composable"
)

// HandleDispatcher is implemented by execute messages.
type HandleDispatcher interface {
	DispatchHandle(ctx context.Context, store composable.Store, env Env) (*Response, error)
}

// QueryDispatcher is implemented by query messages producing R.
type QueryDispatcher[R any] interface {
	DispatchQuery(ctx context.Context, reader composable.Reader) (R, error)
}

// HandleFunc adapts a function to HandleDispatcher.
type HandleFunc func(ctx context.Context, store composable.Store, env Env) (*Response, error)

// DispatchHandle implements HandleDispatcher.
func (f HandleFunc) DispatchHandle(ctx context.Context, store composable.Store, env Env) (*Response, error) {
	return f(ctx, store, env)
}

// QueryFunc adapts a function to QueryDispatcher.
type QueryFunc[R any] func(ctx context.Context, reader composable.Reader) (R, error)

// DispatchQuery implements QueryDispatcher.
func (f QueryFunc[R]) DispatchQuery(ctx context.Context, reader composable.Reader) (R, error) {
	return f(ctx, reader)
}
