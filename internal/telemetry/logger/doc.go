// Package logger provides structured logging for the composable host.
//
// It wraps log/slog:
//
//   - logger.go: handler selection, levels, the package default
//   - context.go: context propagation of loggers and request ids
//   - redact.go: masking of key material and secrets
package logger
