package indexer

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/gramsearch/codec"
)

// Message is one entry of the builder's input feed.
type Message struct {
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	TS          string `json:"ts"`
	Text        string `json:"text"`
}

// ReadMessages decodes a stream of messages, typically JSON Lines.
// If c is nil, codec.Default is used.
func ReadMessages(r io.Reader, c codec.StreamCodec) ([]Message, error) {
	if c == nil {
		c = codec.Default
	}

	dec := c.NewDecoder(r)
	var out []Message
	for {
		var m Message
		err := dec.Decode(&m)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", len(out)+1, err)
		}
		if m.ChannelID == "" {
			return nil, fmt.Errorf("message %d: missing channel_id", len(out)+1)
		}
		out = append(out, m)
	}
}
