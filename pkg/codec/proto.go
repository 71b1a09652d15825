package codec

import (
	"errors"
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"
)

// Proto encodes protobuf messages. The value passed to Marshal and Unmarshal
// may be a message or any chain of pointers leading to one; nil pointers on
// the decode path are allocated.
var Proto Codec = protoCodec{}

var errNotMessage = errors.New("value is not a proto.Message")

type protoCodec struct{}

func (protoCodec) Name() string { return "proto" }

func (protoCodec) Marshal(v any) ([]byte, error) {
	m, err := findMessage(reflect.ValueOf(v), false)
	if err != nil {
		return nil, fmt.Errorf("%w: proto: %w", ErrEncode, err)
	}
	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: proto: %w", ErrEncode, err)
	}
	return data, nil
}

func (protoCodec) Unmarshal(data []byte, v any) error {
	m, err := findMessage(reflect.ValueOf(v), true)
	if err != nil {
		return fmt.Errorf("%w: proto: %w", ErrDecode, err)
	}
	if err := proto.Unmarshal(data, m); err != nil {
		return fmt.Errorf("%w: proto: %w", ErrDecode, err)
	}
	return nil
}

// findMessage walks a pointer chain until it reaches a value implementing
// proto.Message. With alloc set, nil pointers along the way are filled in.
func findMessage(rv reflect.Value, alloc bool) (proto.Message, error) {
	for rv.IsValid() {
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			if !alloc || !rv.CanSet() {
				return nil, fmt.Errorf("nil %s", rv.Type())
			}
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		if m, ok := rv.Interface().(proto.Message); ok {
			return m, nil
		}
		if rv.Kind() != reflect.Pointer {
			break
		}
		rv = rv.Elem()
	}
	return nil, errNotMessage
}
