// Package command defines the composable-cli commands using urfave/cli/v2.
//
//   - root.go: application, global flags, host lifecycle
//   - exec.go: execute messages against the host
//   - query.go: run queries
//   - kv.go: raw key/value access
//   - system.go: stats, gc, variants, configuration and snapshots
//   - version.go: build information
//
// Every command builds a host from configuration, runs, and closes it.
// State only outlives a command with the badger backend.
package command
