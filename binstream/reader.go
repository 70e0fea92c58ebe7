package binstream

import "encoding/binary"

// Reader is a sequential decoder over a byte slice.
// A Reader is not safe for concurrent use.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int { return len(r.buf) }

// Offset returns the cursor position.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// AtEnd reports whether the cursor has reached the end of the buffer.
func (r *Reader) AtEnd() bool { return r.off >= len(r.buf) }

// ReadUint32 consumes 4 bytes and returns them as a big-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, &TruncatedStreamError{Offset: r.off, Need: 4, Remaining: r.Remaining()}
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

// ReadUvarint decodes a varint that must fit in 64 bits.
func (r *Reader) ReadUvarint() (uint64, error) {
	return r.readUvarint(64)
}

// ReadUvarint32 decodes a varint that must fit in 32 bits.
func (r *Reader) ReadUvarint32() (uint32, error) {
	v, err := r.readUvarint(32)
	return uint32(v), err
}

// readUvarint accumulates 7-bit groups until a byte with the high bit clear.
// On error the cursor is left at the start of the value.
func (r *Reader) readUvarint(bits int) (uint64, error) {
	start := r.off
	limit := uint64(1) << (bits - 7) // acc must stay below this before each shift

	var acc uint64
	for i := start; i < len(r.buf); i++ {
		if acc >= limit {
			return 0, &VarIntOverflowError{Offset: start, Bits: bits}
		}
		b := r.buf[i]
		acc = acc<<7 | uint64(b&0x7f)
		if b&0x80 == 0 {
			r.off = i + 1
			return acc, nil
		}
	}
	return 0, &TruncatedStreamError{Offset: start, Need: len(r.buf) - start + 1, Remaining: len(r.buf) - start}
}
