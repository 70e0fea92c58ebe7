// Package shard defines the decoded form of one gram's index file and the
// binary format it is stored in.
//
// A shard file is a sequence of records, repeated until end of stream:
//
//	channelNumber  varint
//	messageCount   varint
//	  messageCount times:
//	    tsSec        uint32, big-endian
//	    tsMicrosec   varint
//	    positionCode varint, repeated; 0 terminates, otherwise position = code-1
//
// Positions are code point offsets into the message text.
package shard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// DocID identifies one archived message.
type DocID struct {
	Channel uint32
	Sec     uint32
	Micro   uint32
}

// String renders the id as "<channel>:<sec>.<micro>" with micro zero-padded to 6 digits.
func (d DocID) String() string {
	return fmt.Sprintf("%d:%s", d.Channel, d.Timestamp())
}

// Timestamp returns the message timestamp as "<sec>.<micro>".
func (d DocID) Timestamp() string {
	return fmt.Sprintf("%d.%06d", d.Sec, d.Micro)
}

// ParseDocID parses the String form of a DocID.
func ParseDocID(s string) (DocID, error) {
	ch, ts, ok := strings.Cut(s, ":")
	if !ok {
		return DocID{}, fmt.Errorf("invalid document id %q: missing channel separator", s)
	}
	n, err := strconv.ParseUint(ch, 10, 32)
	if err != nil {
		return DocID{}, fmt.Errorf("invalid document id %q: %w", s, err)
	}
	sec, micro, err := ParseTimestamp(ts)
	if err != nil {
		return DocID{}, fmt.Errorf("invalid document id %q: %w", s, err)
	}
	return DocID{Channel: uint32(n), Sec: sec, Micro: micro}, nil
}

// ParseTimestamp splits a "<sec>.<micro>" message timestamp.
func ParseTimestamp(ts string) (sec, micro uint32, err error) {
	secStr, microStr, ok := strings.Cut(ts, ".")
	if !ok {
		return 0, 0, fmt.Errorf("invalid timestamp %q", ts)
	}
	s, err := strconv.ParseUint(secStr, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	m, err := strconv.ParseUint(microStr, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	return uint32(s), uint32(m), nil
}

// Shard maps documents to the positions where one gram occurs.
//
// A nil Shard means "not loaded"; an empty non-nil Shard is a loaded gram
// with no occurrences. Shards handed out by a cache are shared and must be
// treated as read-only.
type Shard map[DocID]*roaring.Bitmap

// Empty returns a loaded shard with no documents.
func Empty() Shard { return Shard{} }

// Positions returns the position set of d, or nil if d is absent.
func (s Shard) Positions(d DocID) *roaring.Bitmap { return s[d] }

// add records position pos for d.
func (s Shard) add(d DocID, pos uint32) {
	bm, ok := s[d]
	if !ok {
		bm = roaring.New()
		s[d] = bm
	}
	bm.Add(pos)
}
