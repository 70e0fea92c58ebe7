// Package codec centralizes the text encodings used around the index: the
// message feed read by the builder and the result documents written by the
// CLI and the dev server.
package codec

import (
	"fmt"
	"io"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// StreamCodec is a Codec that can also decode a stream of concatenated
// values, such as JSON Lines.
type StreamCodec interface {
	Codec
	NewDecoder(r io.Reader) Decoder
}

// Decoder reads successive values from a stream. Decode returns io.EOF once
// the stream is exhausted.
type Decoder interface {
	Decode(v any) error
}

// ByName returns a built-in codec by its stable name.
//
// The CLI uses it to resolve --format values.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "yaml":
		return YAML{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
