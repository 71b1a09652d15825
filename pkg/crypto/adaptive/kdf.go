package adaptive

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// MinMasterKeyLength is the minimum accepted master secret length.
const MinMasterKeyLength = 16

// ErrKeyTooShort is returned when a master key is shorter than MinMasterKeyLength.
var ErrKeyTooShort = errors.New("adaptive: master key too short (minimum 16 bytes)")

// DeriveKey derives a 32-byte subkey from master using HKDF-SHA256, so that
// separate purposes never share key material.
func DeriveKey(master []byte, info string) ([]byte, error) {
	if len(master) < MinMasterKeyLength {
		return nil, ErrKeyTooShort
	}

	reader := hkdf.New(sha256.New, master, nil, []byte(info))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("adaptive: derive key: %w", err)
	}
	return key, nil
}

// ParseKey decodes a configured key written as "hex:<...>", "base64:<...>",
// or bare hex.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	var (
		key []byte
		err error
	)
	switch {
	case strings.HasPrefix(s, "base64:"):
		key, err = base64.StdEncoding.DecodeString(strings.TrimPrefix(s, "base64:"))
	default:
		key, err = hex.DecodeString(strings.TrimPrefix(s, "hex:"))
	}
	if err != nil {
		return nil, fmt.Errorf("adaptive: parse key: %w", err)
	}
	if len(key) < MinMasterKeyLength {
		return nil, ErrKeyTooShort
	}
	return key, nil
}

// ZeroKey overwrites key material in place.
func ZeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
