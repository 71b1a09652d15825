package config

import (
	"strings"

	"github.com/yndnr/composable-go/internal/telemetry/logger"
)

// Sanitize returns a copy of the config with secrets masked, for logging
// and for printing by the CLI.
func Sanitize(cfg *HostConfig) *HostConfig {
	sanitized := *cfg

	if sanitized.Security.StorageKey != "" {
		sanitized.Security.StorageKey = maskSecret(sanitized.Security.StorageKey)
	}

	if sanitized.Snapshot.Passphrase != "" {
		sanitized.Snapshot.Passphrase = maskSecret(sanitized.Snapshot.Passphrase)
	}

	return &sanitized
}

// maskSecret keeps only the encoding prefix of key material.
func maskSecret(s string) string {
	if masked := logger.RedactString(s); masked != s {
		return masked
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
