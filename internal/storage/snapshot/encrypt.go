package snapshot

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/yndnr/composable-go/pkg/crypto/adaptive"
)

// Encryption errors.
var (
	ErrPassphraseTooWeak = errors.New("snapshot: passphrase too weak (minimum 8 characters)")
	ErrPassphraseMissing = errors.New("snapshot: snapshot is encrypted but no passphrase was given")
	ErrDecryptionFailed  = errors.New("snapshot: decryption failed - wrong passphrase or corrupted data")
)

const (
	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	// SaltLength is the salt length used in key derivation.
	SaltLength = 16

	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
)

// Encryption configures passphrase protection of the data block.
type Encryption struct {
	Passphrase []byte

	// Cipher selects the algorithm for new snapshots; empty picks one for
	// the platform. Reading always uses the cipher recorded in the header.
	Cipher adaptive.CipherType
}

// Enabled reports whether e carries a passphrase.
func (e *Encryption) Enabled() bool {
	return e != nil && len(e.Passphrase) > 0
}

// Validate checks the passphrase strength.
func (e *Encryption) Validate() error {
	if e.Enabled() && len(e.Passphrase) < MinPassphraseLength {
		return ErrPassphraseTooWeak
	}
	return nil
}

// newSalt returns a fresh random salt.
func newSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("snapshot: generate salt: %w", err)
	}
	return salt, nil
}

// cipher derives the data key from the passphrase and salt.
func (e *Encryption) cipher(salt []byte, cipherType adaptive.CipherType) (adaptive.Cipher, error) {
	if len(salt) != SaltLength {
		return nil, fmt.Errorf("snapshot: invalid salt length %d", len(salt))
	}
	key := DeriveKey(e.Passphrase, salt)
	defer adaptive.ZeroKey(key)
	return adaptive.NewWithType(key, cipherType)
}

// DeriveKey derives a 32-byte key from a passphrase using Argon2id.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}
