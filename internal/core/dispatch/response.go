package dispatch

import "encoding/json"

// Attribute is a key/value pair describing what a handler did.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is the result of a successful execute.
type Response struct {
	Attributes []Attribute `json:"attributes,omitempty"`
	// Data is an optional binary payload returned to the caller.
	Data []byte `json:"data,omitempty"`
	// Messages are opaque follow-up messages for the host.
	Messages []json.RawMessage `json:"messages,omitempty"`
}

// NewResponse returns an empty response.
func NewResponse() *Response {
	return &Response{}
}

// AddAttribute appends an attribute and returns r for chaining.
func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// SetData sets the binary payload and returns r for chaining.
func (r *Response) SetData(data []byte) *Response {
	r.Data = data
	return r
}

// AddMessage appends a follow-up message encoded as JSON.
func (r *Response) AddMessage(msg any) (*Response, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return r, err
	}
	r.Messages = append(r.Messages, raw)
	return r, nil
}

// Attribute returns the value of the first attribute named key.
func (r *Response) Attribute(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
