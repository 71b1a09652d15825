package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
)

var variantName = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)

// ValidVariant reports whether name is a snake_case variant name.
func ValidVariant(name string) bool {
	return variantName.MatchString(name)
}

// parseEnvelope splits an externally tagged message into its variant name
// and body. A bare string is a variant without fields.
func parseEnvelope(msg []byte) (variant string, body json.RawMessage, err error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return "", nil, fmt.Errorf("empty message")
	}

	switch msg[0] {
	case '"':
		if err := json.Unmarshal(msg, &variant); err != nil {
			return "", nil, err
		}
		return variant, json.RawMessage("{}"), nil

	case '{':
		variant, body, err = parseObject(msg)
		if err != nil {
			return "", nil, err
		}
		if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
			body = json.RawMessage("{}")
		}
		return variant, body, nil

	default:
		return "", nil, fmt.Errorf("message must be a JSON object or string")
	}
}

// parseObject walks the members of a one-member JSON object. Repeated keys
// are rejected rather than collapsed.
func parseObject(msg []byte) (variant string, body json.RawMessage, err error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	if _, err := dec.Token(); err != nil {
		return "", nil, err
	}

	n := 0
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", nil, err
		}
		key, _ := tok.(string)
		if n > 0 && key == variant {
			return "", nil, fmt.Errorf("duplicate variant %q", key)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return "", nil, err
		}
		if n == 0 {
			variant, body = key, raw
		}
		n++
	}
	if _, err := dec.Token(); err != nil {
		return "", nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return "", nil, fmt.Errorf("trailing data after message")
	}

	if n != 1 {
		return "", nil, fmt.Errorf("message must have exactly one variant, got %d", n)
	}
	return variant, body, nil
}

// decodeBody decodes a variant body strictly into v.
func decodeBody(body json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
