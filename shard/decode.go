package shard

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/gramsearch/binstream"
)

// Decode parses a shard file.
//
// A document listed in several records accumulates the union of its positions.
// A document whose position list is only the terminator is kept with an empty
// position set. Errors from the underlying reader (truncation, overflow) are
// returned wrapped and match binstream.ErrTruncatedStream or
// binstream.ErrVarIntOverflow.
func Decode(data []byte) (Shard, error) {
	r := binstream.NewReader(data)
	s := Empty()

	for !r.AtEnd() {
		channel, err := r.ReadUvarint32()
		if err != nil {
			return nil, fmt.Errorf("channel number: %w", err)
		}
		count, err := r.ReadUvarint32()
		if err != nil {
			return nil, fmt.Errorf("message count (channel %d): %w", channel, err)
		}
		for i := uint32(0); i < count; i++ {
			d := DocID{Channel: channel}
			if d.Sec, err = r.ReadUint32(); err != nil {
				return nil, fmt.Errorf("timestamp (channel %d, message %d): %w", channel, i, err)
			}
			if d.Micro, err = r.ReadUvarint32(); err != nil {
				return nil, fmt.Errorf("timestamp micros (%s): %w", d, err)
			}
			if err := decodePositions(r, s, d); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func decodePositions(r *binstream.Reader, s Shard, d DocID) error {
	if _, ok := s[d]; !ok {
		s[d] = roaring.New()
	}
	for {
		code, err := r.ReadUvarint32()
		if err != nil {
			return fmt.Errorf("positions (%s): %w", d, err)
		}
		if code == 0 {
			return nil
		}
		s.add(d, code-1)
	}
}

// Record is one message's occurrence list used by Encode.
type Record struct {
	Sec       uint32
	Micro     uint32
	Positions []uint32
}

// Encode appends one channel record to dst in shard file format.
// Positions are stored as position+1 followed by the 0 terminator.
func Encode(dst []byte, channel uint32, records []Record) ([]byte, error) {
	dst = binstream.AppendUvarint(dst, uint64(channel))
	dst = binstream.AppendUvarint(dst, uint64(len(records)))
	for _, rec := range records {
		if len(rec.Positions) == 0 {
			return nil, fmt.Errorf("empty positions: channel %d, ts %d.%06d", channel, rec.Sec, rec.Micro)
		}
		dst = binstream.AppendUint32(dst, rec.Sec)
		dst = binstream.AppendUvarint(dst, uint64(rec.Micro))
		for _, p := range rec.Positions {
			if p == math.MaxUint32 {
				return nil, fmt.Errorf("position %d out of range: channel %d, ts %d.%06d", p, channel, rec.Sec, rec.Micro)
			}
			dst = binstream.AppendUvarint(dst, uint64(p)+1)
		}
		dst = append(dst, 0)
	}
	return dst, nil
}
