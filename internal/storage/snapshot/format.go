package snapshot

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/yndnr/composable-go/internal/storage"
	"github.com/yndnr/composable-go/pkg/crypto/adaptive"
)

// Magic bytes identify snapshot files.
var magicBytes = []byte("CMPSSNAP")

const (
	checksumSize  = 32
	headerVersion = 1
)

// Format errors.
var (
	ErrInvalidMagic     = errors.New("snapshot: invalid magic bytes")
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")
	ErrUnsupported      = errors.New("snapshot: unsupported version")
	ErrCorrupt          = errors.New("snapshot: corrupt data block")
)

// Header describes a snapshot.
type Header struct {
	Version   int    `json:"version"`
	CreatedAt int64  `json:"created_at"`
	Entries   uint64 `json:"entries"`
	Prefix    []byte `json:"prefix,omitempty"`
	Encrypted bool   `json:"encrypted"`
	Cipher    string `json:"cipher,omitempty"`
	Salt      []byte `json:"salt,omitempty"`
}

// Write dumps every entry of store under prefix to w and returns the header
// and checksum it wrote.
func Write(ctx context.Context, w io.Writer, store storage.RawStore, prefix []byte, enc *Encryption) (*Header, []byte, error) {
	if err := enc.Validate(); err != nil {
		return nil, nil, err
	}

	var data bytes.Buffer
	var entries uint64
	var werr error
	err := store.Scan(ctx, prefix, func(k, v []byte) bool {
		if werr = ctx.Err(); werr != nil {
			return false
		}
		writeRecord(&data, k)
		writeRecord(&data, v)
		entries++
		return true
	})
	if err == nil {
		err = werr
	}
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: scan store: %w", err)
	}

	hdr := &Header{
		Version:   headerVersion,
		CreatedAt: time.Now().UnixMilli(),
		Entries:   entries,
		Prefix:    prefix,
	}

	var cipher adaptive.Cipher
	if enc.Enabled() {
		salt, err := newSalt()
		if err != nil {
			return nil, nil, err
		}
		cipher, err = enc.cipher(salt, enc.Cipher)
		if err != nil {
			return nil, nil, err
		}
		hdr.Encrypted = true
		hdr.Cipher = string(cipher.Type())
		hdr.Salt = salt
	}

	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: marshal header: %w", err)
	}

	block := data.Bytes()
	if cipher != nil {
		block, err = cipher.Encrypt(block, hdrJSON)
		if err != nil {
			return nil, nil, fmt.Errorf("snapshot: encrypt: %w", err)
		}
	}

	hash := sha256.New()
	mw := io.MultiWriter(w, hash)
	for _, part := range [][]byte{magicBytes, lengthPrefix(hdrJSON), hdrJSON, lengthPrefix(block), block} {
		if _, err := mw.Write(part); err != nil {
			return nil, nil, fmt.Errorf("snapshot: write: %w", err)
		}
	}

	// Checksum trailer is not part of the hash.
	sum := hash.Sum(nil)
	if _, err := w.Write(sum); err != nil {
		return nil, nil, fmt.Errorf("snapshot: write checksum: %w", err)
	}
	return hdr, sum, nil
}

// Read parses a snapshot and returns its entries as mutations.
func Read(r io.Reader, enc *Encryption) ([]storage.Mutation, *Header, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: read: %w", err)
	}
	if len(raw) < len(magicBytes)+8+checksumSize {
		return nil, nil, ErrChecksumMismatch
	}

	body, expected := raw[:len(raw)-checksumSize], raw[len(raw)-checksumSize:]
	sum := sha256.Sum256(body)
	if !bytes.Equal(sum[:], expected) {
		return nil, nil, ErrChecksumMismatch
	}
	if !bytes.HasPrefix(body, magicBytes) {
		return nil, nil, ErrInvalidMagic
	}
	body = body[len(magicBytes):]

	hdrJSON, body, err := readRecord(body)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: header: %w", err)
	}
	var hdr Header
	if err := json.Unmarshal(hdrJSON, &hdr); err != nil {
		return nil, nil, fmt.Errorf("snapshot: unmarshal header: %w", err)
	}
	if hdr.Version != headerVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupported, hdr.Version)
	}

	block, rest, err := readRecord(body)
	if err != nil || len(rest) != 0 {
		return nil, nil, fmt.Errorf("%w: trailing or truncated data", ErrCorrupt)
	}

	switch {
	case hdr.Encrypted:
		if !enc.Enabled() {
			return nil, nil, ErrPassphraseMissing
		}
		cipher, err := enc.cipher(hdr.Salt, adaptive.CipherType(hdr.Cipher))
		if err != nil {
			return nil, nil, err
		}
		block, err = cipher.Decrypt(block, hdrJSON)
		if err != nil {
			return nil, nil, ErrDecryptionFailed
		}
	case enc.Enabled():
		return nil, nil, fmt.Errorf("snapshot: expected encrypted snapshot")
	}

	muts := make([]storage.Mutation, 0, min(hdr.Entries, uint64(len(block)/8)))
	for len(block) > 0 {
		var k, v []byte
		if k, block, err = readRecord(block); err != nil {
			return nil, nil, err
		}
		if v, block, err = readRecord(block); err != nil {
			return nil, nil, err
		}
		muts = append(muts, storage.Mutation{Key: k, Value: v})
	}
	if uint64(len(muts)) != hdr.Entries {
		return nil, nil, fmt.Errorf("%w: %d entries, header says %d", ErrCorrupt, len(muts), hdr.Entries)
	}
	return muts, &hdr, nil
}

// Restore reads a snapshot from r and writes its entries into store.
func Restore(ctx context.Context, r io.Reader, store storage.RawStore, enc *Encryption) (*Header, error) {
	muts, hdr, err := Read(r, enc)
	if err != nil {
		return nil, err
	}
	if err := storage.ApplyMutations(ctx, store, muts); err != nil {
		return nil, fmt.Errorf("snapshot: restore: %w", err)
	}
	return hdr, nil
}

func lengthPrefix(b []byte) []byte {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	return n[:]
}

func writeRecord(buf *bytes.Buffer, b []byte) {
	buf.Write(lengthPrefix(b))
	buf.Write(b)
}

func readRecord(b []byte) (record, rest []byte, err error) {
	if len(b) < 4 {
		return nil, nil, fmt.Errorf("%w: truncated length", ErrCorrupt)
	}
	n := binary.BigEndian.Uint32(b)
	b = b[4:]
	if uint64(len(b)) < uint64(n) {
		return nil, nil, fmt.Errorf("%w: truncated record", ErrCorrupt)
	}
	return b[:n:n], b[n:], nil
}
