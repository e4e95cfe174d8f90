package packet

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrEmptyMessage = errors.New("empty message")

// Reader wraps one decoded client message envelope.
type Reader struct {
	typ string
	raw []byte
}

// NewReader parses the envelope's type field. The body is decoded lazily by
// the handler.
func NewReader(data []byte) (*Reader, error) {
	if len(data) == 0 {
		return nil, ErrEmptyMessage
	}
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("decode envelope: missing type")
	}
	return &Reader{typ: env.Type, raw: data}, nil
}

func (r *Reader) Type() string { return r.typ }

// Decode unmarshals the whole message into v.
func (r *Reader) Decode(v any) error {
	if err := json.Unmarshal(r.raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", r.typ, err)
	}
	return nil
}
