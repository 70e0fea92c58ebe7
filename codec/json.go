package codec

import (
	"encoding/json"
	"io"
)

// JSON is the standard-library JSON codec.
//
// It is kept as the portable reference for GoJSON; both must accept the
// same message feeds.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// NewDecoder returns a decoder for a stream of JSON values.
func (JSON) NewDecoder(r io.Reader) Decoder { return json.NewDecoder(r) }

// Default is the codec used when none is configured.
var Default StreamCodec = GoJSON{}
