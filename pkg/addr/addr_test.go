package addr

import (
	"errors"
	"strings"
	"testing"

	"github.com/multiformats/go-multibase"
)

func TestMockAPI_RoundTrip(t *testing.T) {
	api := NewMockAPI(0)

	for _, h := range []HumanAddr{"alice", "bob", "a", HumanAddr(strings.Repeat("x", DefaultCanonicalLength))} {
		t.Run(string(h), func(t *testing.T) {
			c, err := h.Canonize(api)
			if err != nil {
				t.Fatalf("Canonize() error = %v", err)
			}
			if len(c) != DefaultCanonicalLength {
				t.Errorf("len(canonical) = %d, want %d", len(c), DefaultCanonicalLength)
			}

			back, err := c.Humanize(api)
			if err != nil {
				t.Fatalf("Humanize() error = %v", err)
			}
			if back != h {
				t.Errorf("Humanize() = %q, want %q", back, h)
			}

			again, err := back.Canonize(api)
			if err != nil {
				t.Fatalf("Canonize() error = %v", err)
			}
			if !again.Equal(c) {
				t.Errorf("canonical changed across round trip: %s vs %s", again, c)
			}
		})
	}
}

func TestMockAPI_Invalid(t *testing.T) {
	api := NewMockAPI(8)

	tests := []struct {
		name string
		call func() error
	}{
		{"empty human", func() error { _, err := api.CanonicalAddress(""); return err }},
		{"too long human", func() error { _, err := api.CanonicalAddress("123456789"); return err }},
		{"human with NUL", func() error { _, err := api.CanonicalAddress("a\x00b"); return err }},
		{"short canonical", func() error { _, err := api.HumanAddress(CanonicalAddr("abc")); return err }},
		{"zero canonical", func() error { _, err := api.HumanAddress(make(CanonicalAddr, 8)); return err }},
		{"interior NUL", func() error { _, err := api.HumanAddress(CanonicalAddr("a\x00b\x00\x00\x00\x00\x00")); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrInvalidAddress) {
				t.Errorf("error = %v, want ErrInvalidAddress", err)
			}
		})
	}
}

func TestNewMultibaseAPI(t *testing.T) {
	tests := []struct {
		name string
		want multibase.Encoding
	}{
		{"", DefaultBase},
		{"base58btc", multibase.Base58BTC},
		{"base32", multibase.Base32},
		{"base64url", multibase.Base64url},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, err := NewMultibaseAPI(tt.name, 0)
			if err != nil {
				t.Fatalf("NewMultibaseAPI() error = %v", err)
			}
			if api.Base != tt.want {
				t.Errorf("Base = %c, want %c", api.Base, tt.want)
			}
		})
	}
}

func TestMultibaseAPI_RoundTrip(t *testing.T) {
	api, err := NewMultibaseAPI("", 4)
	if err != nil {
		t.Fatalf("NewMultibaseAPI() error = %v", err)
	}

	c := CanonicalAddr{0xde, 0xad, 0xbe, 0xef}
	h, err := c.Humanize(api)
	if err != nil {
		t.Fatalf("Humanize() error = %v", err)
	}
	if !strings.HasPrefix(string(h), "z") {
		t.Errorf("Humanize() = %q, want base58btc prefix 'z'", h)
	}

	back, err := h.Canonize(api)
	if err != nil {
		t.Fatalf("Canonize() error = %v", err)
	}
	if !back.Equal(c) {
		t.Errorf("Canonize() = %s, want %s", back, c)
	}
}

func TestMultibaseAPI_NormalisesBase(t *testing.T) {
	api, err := NewMultibaseAPI("base58btc", 0)
	if err != nil {
		t.Fatalf("NewMultibaseAPI() error = %v", err)
	}

	raw := []byte("identity")
	base32, err := multibase.Encode(multibase.Base32, raw)
	if err != nil {
		t.Fatal(err)
	}

	c, err := api.CanonicalAddress(HumanAddr(base32))
	if err != nil {
		t.Fatalf("CanonicalAddress() error = %v", err)
	}
	h, err := api.HumanAddress(c)
	if err != nil {
		t.Fatalf("HumanAddress() error = %v", err)
	}
	if string(h) == base32 {
		t.Error("expected human form to be re-encoded in base58btc")
	}

	c2, err := api.CanonicalAddress(h)
	if err != nil {
		t.Fatalf("CanonicalAddress() error = %v", err)
	}
	if !c2.Equal(c) || string(c) != "identity" {
		t.Errorf("identity changed: %q vs %q", c2, c)
	}
}

func TestMultibaseAPI_Invalid(t *testing.T) {
	api, _ := NewMultibaseAPI("base32", 4)

	if _, err := api.CanonicalAddress(""); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("empty: error = %v", err)
	}
	if _, err := api.CanonicalAddress("!nope"); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("bad prefix: error = %v", err)
	}
	if _, err := api.HumanAddress(CanonicalAddr{1, 2}); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("wrong length: error = %v", err)
	}
	if _, err := NewMultibaseAPI("base1000", 0); err == nil {
		t.Error("unknown base should fail")
	}
}

func TestCanonizeAll(t *testing.T) {
	api := NewMockAPI(0)

	cs, err := CanonizeAll(api, []HumanAddr{"alice", "bob"})
	if err != nil {
		t.Fatalf("CanonizeAll() error = %v", err)
	}
	hs, err := HumanizeAll(api, cs)
	if err != nil {
		t.Fatalf("HumanizeAll() error = %v", err)
	}
	if len(hs) != 2 || hs[0] != "alice" || hs[1] != "bob" {
		t.Errorf("HumanizeAll() = %v", hs)
	}

	if _, err := CanonizeAll(api, []HumanAddr{"alice", ""}); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("CanonizeAll() error = %v, want ErrInvalidAddress", err)
	}
}
