// Package codec converts typed values to and from the byte payloads kept in
// a raw key-value store.
//
// Values are always written wrapped as "present" (Encode marshals a pointer
// to the value) so that a stored payload is distinguishable from a missing
// key even when the value type has its own null-like state. Encoding is
// total for well-formed values; decoding fails with ErrDecode when the bytes
// do not have the shape the caller asked for.
package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode indicates stored bytes do not match the requested type.
	ErrDecode = errors.New("codec: decode failed")

	// ErrEncode indicates a value could not be serialized. Only values the
	// codec cannot represent at all (channels, funcs, non-proto values for
	// the proto codec) trigger it.
	ErrEncode = errors.New("codec: encode failed")
)

// Codec encodes and decodes values for storage.
type Codec interface {
	// Marshal serializes v into bytes.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes data into v (must be a pointer).
	Unmarshal(data []byte, v any) error
	// Name returns the codec identifier used for configuration and diagnostics.
	Name() string
}

// Default is the codec used when none is configured.
var Default Codec = JSON

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	switch name {
	case "", JSON.Name():
		return JSON, nil
	case Msgpack.Name():
		return Msgpack, nil
	case Proto.Name():
		return Proto, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}

// Encode wraps v as present and serializes it with c.
func Encode[T any](c Codec, v T) ([]byte, error) {
	return c.Marshal(&v)
}

// Decode is the inverse of Encode. ok is false when data holds an explicit
// empty wrapper (for example JSON null), which callers treat the same as a
// missing key.
func Decode[T any](c Codec, data []byte) (v T, ok bool, err error) {
	var p *T
	if err := c.Unmarshal(data, &p); err != nil {
		return v, false, err
	}
	if p == nil {
		return v, false, nil
	}
	return *p, true, nil
}
