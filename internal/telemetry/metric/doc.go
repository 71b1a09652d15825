// Package metric provides Prometheus metrics for the composable host.
//
// Metrics include:
//
//   - Facade storage operations by op and result, with latency
//   - Dispatched messages by kind, variant and outcome, with latency
//   - Request commits by result
//
// Backends may register their own collectors on Registry.Registerer.
package metric
