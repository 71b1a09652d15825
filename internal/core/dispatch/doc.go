// Package dispatch routes inbound messages to the handlers that implement
// them.
//
// Messages travel as externally tagged JSON: an object with exactly one
// member whose name is the snake_case variant and whose value is the
// variant's fields, for example {"set_score": {"game": "g1", "score": 3}}.
// A variant without fields may also be sent as a bare string ("reset").
//
// Execute messages implement HandleDispatcher and get a composable.Store;
// query messages implement QueryDispatcher and get a composable.Reader.
// New message types are added by registering them on a Router; the router
// itself never changes.
//
// By default each execute runs against an overlay of the store and its
// writes are committed only when the handler succeeds. WithAtomic(false)
// hands the live store to handlers instead, in which case a failing
// handler leaves whatever it already wrote.
package dispatch
