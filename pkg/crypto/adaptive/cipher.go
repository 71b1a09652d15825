package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// ErrCiphertextTooShort is returned when a ciphertext cannot even hold a nonce.
var ErrCiphertextTooShort = errors.New("adaptive: ciphertext too short")

// Cipher provides authenticated encryption.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Encrypt encrypts plaintext bound to additionalData. The random nonce
	// is prepended to the returned ciphertext.
	Encrypt(plaintext, additionalData []byte) ([]byte, error)

	// Decrypt reverses Encrypt. It fails if the ciphertext or the
	// additional data were altered.
	Decrypt(ciphertext, additionalData []byte) ([]byte, error)

	// Overhead returns the number of bytes Encrypt adds to a plaintext.
	Overhead() int
}

// New creates a cipher for key, choosing the algorithm from the platform.
func New(key []byte) (Cipher, error) {
	if hasAESNI() {
		return NewAESGCM(key)
	}
	return NewChaCha20(key)
}

// NewWithType creates a cipher of the given type. An empty type behaves like New.
func NewWithType(key []byte, cipherType CipherType) (Cipher, error) {
	switch cipherType {
	case "":
		return New(key)
	case CipherAESGCM:
		return NewAESGCM(key)
	case CipherChaCha20:
		return NewChaCha20(key)
	default:
		return nil, fmt.Errorf("adaptive: unknown cipher type %q", cipherType)
	}
}

// NewAESGCM creates an AES-GCM cipher. Key must be 16, 24, or 32 bytes.
func NewAESGCM(key []byte) (Cipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("adaptive: invalid AES-GCM key size %d: must be 16, 24, or 32 bytes", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &aeadCipher{typ: CipherAESGCM, aead: aead}, nil
}

// NewChaCha20 creates a ChaCha20-Poly1305 cipher. Key must be exactly 32 bytes.
func NewChaCha20(key []byte) (Cipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("adaptive: invalid ChaCha20-Poly1305 key size %d: must be 32 bytes", len(key))
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return &aeadCipher{typ: CipherChaCha20, aead: aead}, nil
}

// hasAESNI reports whether Go's crypto/aes is hardware accelerated on this
// architecture.
func hasAESNI() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}

type aeadCipher struct {
	typ  CipherType
	aead cipher.AEAD
}

func (c *aeadCipher) Type() CipherType { return c.typ }

func (c *aeadCipher) Overhead() int {
	return c.aead.NonceSize() + c.aead.Overhead()
}

func (c *aeadCipher) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("adaptive: read nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (c *aeadCipher) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(ciphertext) < n+c.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	return c.aead.Open(nil, ciphertext[:n], ciphertext[n:], additionalData)
}
