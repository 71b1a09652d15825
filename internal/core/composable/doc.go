// Package composable is the typed storage facade handed to message handlers.
//
// A Facade wraps one raw byte store and one address service. Typed values
// pass through a codec on the way in and out, optionally under a namespace
// combined with the key by a keyspace.Namespacer. Go has no generic methods,
// so the typed operations are package functions over the Reader and Store
// interfaces:
//
//	composable.SetNS(ctx, f, []byte("game1"), []byte("count"), 42)
//	n, found, err := composable.GetNS[int](ctx, f, []byte("game1"), []byte("count"))
//
// A key that was never written reads as found=false with a nil error.
// Every other failure is a domain.DomainError (ErrDecode, ErrEncode,
// ErrAddressCodec, ErrBackend) wrapping the underlying cause.
//
// A Facade is meant for one request at a time; it does no caching, so every
// call observes the latest state of the store it wraps.
package composable
