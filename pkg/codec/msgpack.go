package codec

import (
	"bytes"
	"fmt"

	msgpack "github.com/hashicorp/go-msgpack/v2/codec"
)

// Msgpack encodes values as MessagePack. Struct fields follow their
// `codec` tags and fall back to `json` tags.
//
// Decoding is strict in the same sense as JSON: unknown map keys, trailing
// bytes and values that only decode through a numeric or shape conversion
// (an int read as a float, a struct read as a struct with other fields)
// are decode errors. A decoded value must encode back to the stored bytes.
var Msgpack Codec = msgpackCodec{}

var msgpackHandle = newMsgpackHandle()

func newMsgpackHandle() *msgpack.MsgpackHandle {
	h := &msgpack.MsgpackHandle{}
	h.ErrorIfNoField = true
	// Sorted map keys keep the encoding deterministic for the round-trip check.
	h.Canonical = true
	return h
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	var out []byte
	if err := msgpack.NewEncoderBytes(&out, msgpackHandle).Encode(v); err != nil {
		return nil, fmt.Errorf("%w: msgpack: %w", ErrEncode, err)
	}
	return out, nil
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoderBytes(data, msgpackHandle)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: msgpack: %w", ErrDecode, err)
	}
	if n := dec.NumBytesRead(); n != len(data) {
		return fmt.Errorf("%w: msgpack: %d trailing bytes after value", ErrDecode, len(data)-n)
	}

	var again []byte
	if err := msgpack.NewEncoderBytes(&again, msgpackHandle).Encode(v); err != nil {
		return fmt.Errorf("%w: msgpack: %w", ErrDecode, err)
	}
	if !bytes.Equal(again, data) {
		return fmt.Errorf("%w: msgpack: stored value has a different shape than %T", ErrDecode, v)
	}
	return nil
}
