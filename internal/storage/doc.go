// Package storage defines the raw byte-keyed store consumed by the typed
// storage facade, and the engines that implement it.
//
// Backends:
//
//   - BadgerEngine: persistent LSM store (dgraph-io/badger/v3)
//   - memory.Store: in-process sharded map, for tests and sandboxes
//
// Decorators and helpers:
//
//   - SealedStore: encrypts values at rest, bound to their key
//   - overlay.Overlay: request-scoped write buffer with commit/discard
//
// Every backend reports a missing key as ErrKeyNotFound; the facade turns
// that into a "not found" result rather than an error.
package storage
