package addr

import (
	"fmt"

	"github.com/multiformats/go-multibase"
)

// DefaultBase is the multibase encoding used for human addresses when none is configured.
const DefaultBase multibase.Encoding = multibase.Base58BTC

// MultibaseAPI renders canonical addresses as self-describing multibase
// strings. Any multibase prefix is accepted on input; output always uses
// Base, so a round trip through the human form may change its spelling but
// never the canonical bytes.
type MultibaseAPI struct {
	Base            multibase.Encoding
	CanonicalLength int
}

// NewMultibaseAPI returns a MultibaseAPI for the named base (for example
// "base58btc" or "base32"). canonicalLength <= 0 accepts any non-empty length.
func NewMultibaseAPI(baseName string, canonicalLength int) (*MultibaseAPI, error) {
	base := DefaultBase
	if baseName != "" {
		var ok bool
		base, ok = encodingByName(baseName)
		if !ok {
			return nil, fmt.Errorf("addr: unknown multibase encoding %q", baseName)
		}
	}
	return &MultibaseAPI{Base: base, CanonicalLength: canonicalLength}, nil
}

func encodingByName(name string) (multibase.Encoding, bool) {
	for enc, n := range multibase.EncodingToStr {
		if n == name {
			return enc, true
		}
	}
	return 0, false
}

// CanonicalAddress implements API.
func (m *MultibaseAPI) CanonicalAddress(human HumanAddr) (CanonicalAddr, error) {
	if human == "" {
		return nil, fmt.Errorf("%w: empty human address", ErrInvalidAddress)
	}
	_, data, err := multibase.Decode(string(human))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, human, err)
	}
	if err := m.checkLength(data); err != nil {
		return nil, err
	}
	return CanonicalAddr(data), nil
}

// HumanAddress implements API.
func (m *MultibaseAPI) HumanAddress(canonical CanonicalAddr) (HumanAddr, error) {
	if err := m.checkLength(canonical); err != nil {
		return "", err
	}
	s, err := multibase.Encode(m.Base, canonical)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return HumanAddr(s), nil
}

func (m *MultibaseAPI) checkLength(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty canonical address", ErrInvalidAddress)
	}
	if m.CanonicalLength > 0 && len(data) != m.CanonicalLength {
		return fmt.Errorf("%w: canonical length %d, want %d", ErrInvalidAddress, len(data), m.CanonicalLength)
	}
	return nil
}
