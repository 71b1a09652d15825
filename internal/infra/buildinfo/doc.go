// Package buildinfo exposes version information for composable-cli.
//
// Values are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/composable-go/internal/infra/buildinfo.Version=v0.3.0"
//
// Fields left unset fall back to what the Go toolchain embedded in the
// binary (module version, VCS revision and time, Go version).
package buildinfo
