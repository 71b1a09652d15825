package logger

import (
	"log/slog"
	"strings"
)

// Encoded key material as accepted by adaptive.ParseKey.
var sensitiveValuePrefixes = []string{
	"hex:",
	"base64:",
}

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"master_key",
	"storage_key",
	"cipher_key",
	"credential",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive masks attributes that carry key material or secrets.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		strVal := a.Value.String()
		if IsSensitiveValue(strVal) {
			return slog.String(a.Key, RedactString(strVal))
		}
		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}

	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// RedactString masks encoded key material before it is printed outside
// the logger, for example by the CLI.
func RedactString(value string) string {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return prefix + "***"
		}
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue checks if a value appears to be encoded key material.
func IsSensitiveValue(value string) bool {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
