// Package shutdown ties command lifetimes to process signals and runs
// cleanup hooks in reverse registration order.
//
// Usage:
//
//	ctx, stop := shutdown.WithSignals(context.Background())
//	defer stop()
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(func(context.Context) error { return store.Close() })
//	defer h.Shutdown()
package shutdown
