package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/yndnr/composable-go/pkg/crypto/adaptive"
)

// ErrIntegrity is returned when a sealed value fails authentication.
var ErrIntegrity = errors.New("sealed value failed authentication")

// SealedStore encrypts values at rest. Keys stay in the clear so prefix
// scans keep working; each value is bound to its key as associated data,
// which makes swapping ciphertexts between keys detectable.
type SealedStore struct {
	inner  RawStore
	cipher adaptive.Cipher
}

// NewSealedStore wraps inner with cipher.
func NewSealedStore(inner RawStore, cipher adaptive.Cipher) *SealedStore {
	return &SealedStore{inner: inner, cipher: cipher}
}

// Inner returns the wrapped store.
func (s *SealedStore) Inner() RawStore { return s.inner }

// Get decrypts the value stored under key.
func (s *SealedStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.open(key, sealed)
}

// Set encrypts value and stores it under key.
func (s *SealedStore) Set(ctx context.Context, key, value []byte) error {
	sealed, err := s.cipher.Encrypt(value, key)
	if err != nil {
		return fmt.Errorf("seal %x: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

// Delete removes key.
func (s *SealedStore) Delete(ctx context.Context, key []byte) error {
	return s.inner.Delete(ctx, key)
}

// Apply encrypts every write and forwards the batch.
func (s *SealedStore) Apply(ctx context.Context, mutations []Mutation) error {
	sealed := make([]Mutation, len(mutations))
	for i, m := range mutations {
		sealed[i] = m
		if m.Delete {
			continue
		}
		ct, err := s.cipher.Encrypt(m.Value, m.Key)
		if err != nil {
			return fmt.Errorf("seal %x: %w", m.Key, err)
		}
		sealed[i].Value = ct
	}
	return ApplyMutations(ctx, s.inner, sealed)
}

// Scan decrypts each visited value. A value that fails authentication
// stops the scan with ErrIntegrity.
func (s *SealedStore) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	var openErr error
	err := s.inner.Scan(ctx, prefix, func(key, sealed []byte) bool {
		plain, err := s.open(key, sealed)
		if err != nil {
			openErr = err
			return false
		}
		return fn(key, plain)
	})
	if err != nil {
		return err
	}
	return openErr
}

func (s *SealedStore) open(key, sealed []byte) ([]byte, error) {
	plain, err := s.cipher.Decrypt(sealed, key)
	if err != nil {
		return nil, fmt.Errorf("%w: key %x: %w", ErrIntegrity, key, err)
	}
	if plain == nil {
		plain = []byte{}
	}
	return plain, nil
}
