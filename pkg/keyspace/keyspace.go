package keyspace

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxNamespaceLength is the largest namespace LengthPrefixed can encode.
const MaxNamespaceLength = 0xFFFF

// ErrNamespaceTooLong is returned when a namespace does not fit a 2-byte length prefix.
var ErrNamespaceTooLong = errors.New("keyspace: namespace longer than 65535 bytes")

// Namespacer combines a namespace and a key into one raw lookup key.
// Implementations must be pure and deterministic.
type Namespacer func(namespace, key []byte) ([]byte, error)

// Combine concatenates namespace and key.
//
// The result is always a fresh slice; neither input is retained or modified.
func Combine(namespace, key []byte) []byte {
	out := make([]byte, 0, len(namespace)+len(key))
	out = append(out, namespace...)
	return append(out, key...)
}

// Concat is the Namespacer form of Combine. It never fails.
func Concat(namespace, key []byte) ([]byte, error) {
	return Combine(namespace, key), nil
}

// LengthPrefixed writes the namespace length as a 2-byte big-endian integer
// before the namespace, so distinct (namespace, key) pairs never alias.
// A namespace longer than MaxNamespaceLength is ErrNamespaceTooLong.
func LengthPrefixed(namespace, key []byte) ([]byte, error) {
	if len(namespace) > MaxNamespaceLength {
		return nil, fmt.Errorf("%w: got %d", ErrNamespaceTooLong, len(namespace))
	}
	out := make([]byte, 0, 2+len(namespace)+len(key))
	out = binary.BigEndian.AppendUint16(out, uint16(len(namespace)))
	out = append(out, namespace...)
	return append(out, key...), nil
}

// Prefix returns the length-prefixed encoding of namespace, the same bytes
// LengthPrefixed puts in front of every key.
func Prefix(namespace []byte) ([]byte, error) {
	return LengthPrefixed(namespace, nil)
}

// Nested builds a multi-level prefix where every namespace is length-prefixed.
// The returned prefix is meant to be passed to Combine together with the key.
func Nested(namespaces ...[]byte) ([]byte, error) {
	size := 0
	for _, ns := range namespaces {
		size += 2 + len(ns)
	}
	out := make([]byte, 0, size)
	for _, ns := range namespaces {
		p, err := Prefix(ns)
		if err != nil {
			return nil, err
		}
		out = append(out, p...)
	}
	return out, nil
}

// ByName returns the namespacer registered under name ("concat" or
// "length_prefixed"). An empty name selects Concat.
func ByName(name string) (Namespacer, error) {
	switch name {
	case "", "concat":
		return Concat, nil
	case "length_prefixed":
		return LengthPrefixed, nil
	default:
		return nil, fmt.Errorf("keyspace: unknown namespacer %q", name)
	}
}
