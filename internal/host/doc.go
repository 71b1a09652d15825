// Package host wires a sandbox host environment from configuration: the raw
// store, value codec, address service, namespacer, logger, metrics and the
// dispatch router with its registered contracts.
//
// A Host owns its store. Execute and Query route externally tagged JSON
// messages; Close releases the store.
package host
