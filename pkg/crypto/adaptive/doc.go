// Package adaptive provides authenticated encryption with automatic
// algorithm selection, used to seal values at rest.
//
// Supported algorithms:
//
//   - AES-256-GCM: preferred where the platform has hardware AES
//   - ChaCha20-Poly1305: fallback elsewhere
//
// Keys are usually derived from one master secret with DeriveKey, so that
// every store gets its own subkey:
//
//	key, err := adaptive.DeriveKey(master, "composable/storage")
//	c, err := adaptive.NewWithType(key, "")
//	sealed, err := c.Encrypt(plaintext, rawKey)
package adaptive
