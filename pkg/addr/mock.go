package addr

import (
	"bytes"
	"fmt"
)

// DefaultCanonicalLength is the canonical width used by NewMockAPI(0).
const DefaultCanonicalLength = 20

// MockAPI is a deterministic, reversible API for tests and sandboxes.
//
// The canonical form is the UTF-8 bytes of the human address right-padded
// with zeros to CanonicalLength. Human addresses that are empty, too long,
// or contain a NUL byte are rejected.
type MockAPI struct {
	CanonicalLength int
}

// NewMockAPI returns a MockAPI with the given canonical length.
// A non-positive length selects DefaultCanonicalLength.
func NewMockAPI(canonicalLength int) *MockAPI {
	if canonicalLength <= 0 {
		canonicalLength = DefaultCanonicalLength
	}
	return &MockAPI{CanonicalLength: canonicalLength}
}

// CanonicalAddress implements API.
func (m *MockAPI) CanonicalAddress(human HumanAddr) (CanonicalAddr, error) {
	switch {
	case human == "":
		return nil, fmt.Errorf("%w: empty human address", ErrInvalidAddress)
	case len(human) > m.CanonicalLength:
		return nil, fmt.Errorf("%w: human address %q longer than %d bytes", ErrInvalidAddress, human, m.CanonicalLength)
	case bytes.IndexByte([]byte(human), 0) >= 0:
		return nil, fmt.Errorf("%w: human address contains NUL", ErrInvalidAddress)
	}

	out := make(CanonicalAddr, m.CanonicalLength)
	copy(out, human)
	return out, nil
}

// HumanAddress implements API.
func (m *MockAPI) HumanAddress(canonical CanonicalAddr) (HumanAddr, error) {
	if len(canonical) != m.CanonicalLength {
		return "", fmt.Errorf("%w: canonical length %d, want %d", ErrInvalidAddress, len(canonical), m.CanonicalLength)
	}
	trimmed := bytes.TrimRight(canonical, "\x00")
	if len(trimmed) == 0 {
		return "", fmt.Errorf("%w: canonical address is all zeros", ErrInvalidAddress)
	}
	if bytes.IndexByte(trimmed, 0) >= 0 {
		return "", fmt.Errorf("%w: canonical address has interior NUL", ErrInvalidAddress)
	}
	return HumanAddr(trimmed), nil
}
