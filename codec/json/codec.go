package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

type MarshalJson struct{}

func (m *MarshalJson) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal rejects trailing data after the first JSON value.
func (m *MarshalJson) Unmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON value at offset %d", dec.InputOffset())
	}
	return nil
}

type EncoderJson struct {
	jsonEncoder *json.Encoder
}

func NewEncoderJson(w io.Writer, indent string) *EncoderJson {
	jsonEncoder := json.NewEncoder(w)
	if indent != "" {
		jsonEncoder.SetIndent("", indent)
	}
	jsonEncoder.SetEscapeHTML(false)
	return &EncoderJson{
		jsonEncoder: jsonEncoder,
	}
}

func (e *EncoderJson) Encode(v interface{}) error {
	return e.jsonEncoder.Encode(v)
}
