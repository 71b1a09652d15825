// Package addr defines the two representations of an account identity and
// the service contract that converts between them.
//
// A HumanAddr is the display/interchange form; a CanonicalAddr is the fixed
// internal form used as a storage and comparison key. Conversion is owned by
// an API implementation supplied by the host. Round trips must preserve the
// identity, though an API may normalise the human form (for example by
// re-encoding in its preferred base).
package addr

import (
	"bytes"
	"encoding/hex"
	"errors"
)

// ErrInvalidAddress indicates an address is malformed or cannot be
// represented in the target form.
var ErrInvalidAddress = errors.New("addr: invalid address")

// HumanAddr is the human-readable form of an address.
type HumanAddr string

// String implements fmt.Stringer.
func (h HumanAddr) String() string { return string(h) }

// IsEmpty reports whether the address is empty.
func (h HumanAddr) IsEmpty() bool { return h == "" }

// CanonicalAddr is the canonical binary form of an address.
type CanonicalAddr []byte

// String renders the canonical bytes as hex.
func (c CanonicalAddr) String() string { return hex.EncodeToString(c) }

// Equal reports whether two canonical addresses are identical.
func (c CanonicalAddr) Equal(o CanonicalAddr) bool { return bytes.Equal(c, o) }

// IsEmpty reports whether the address is empty.
func (c CanonicalAddr) IsEmpty() bool { return len(c) == 0 }

// API is the address-encoding service provided by the host environment.
type API interface {
	// CanonicalAddress converts a human address into its canonical form.
	CanonicalAddress(human HumanAddr) (CanonicalAddr, error)

	// HumanAddress converts a canonical address into its human form.
	HumanAddress(canonical CanonicalAddr) (HumanAddr, error)
}

// Humanizer is implemented by values holding canonical addresses that know
// how to produce their human counterpart H.
type Humanizer[H any] interface {
	Humanize(api API) (H, error)
}

// Canonizer is implemented by values holding human addresses that know how
// to produce their canonical counterpart C.
type Canonizer[C any] interface {
	Canonize(api API) (C, error)
}

// Canonize converts h using api.
func (h HumanAddr) Canonize(api API) (CanonicalAddr, error) {
	return api.CanonicalAddress(h)
}

// Humanize converts c using api.
func (c CanonicalAddr) Humanize(api API) (HumanAddr, error) {
	return api.HumanAddress(c)
}

// CanonizeAll converts a slice of human addresses, stopping at the first error.
func CanonizeAll(api API, humans []HumanAddr) ([]CanonicalAddr, error) {
	out := make([]CanonicalAddr, 0, len(humans))
	for _, h := range humans {
		c, err := api.CanonicalAddress(h)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// HumanizeAll converts a slice of canonical addresses, stopping at the first error.
func HumanizeAll(api API, canonicals []CanonicalAddr) ([]HumanAddr, error) {
	out := make([]HumanAddr, 0, len(canonicals))
	for _, c := range canonicals {
		h, err := api.HumanAddress(c)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}
