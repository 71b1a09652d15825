package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSON is a strict JSON codec: unknown object fields and trailing data are
// decode errors, so bytes written for one struct are not silently accepted
// as another.
var JSON Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: json: %w", ErrEncode, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: json: %w", ErrDecode, err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return fmt.Errorf("%w: json: trailing data after value", ErrDecode)
	}
	return nil
}
