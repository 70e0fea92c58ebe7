package binstream

import "encoding/binary"

// MaxUvarintLen is the longest encoding of a 64-bit varint.
const MaxUvarintLen = 10

// AppendUvarint appends the varint encoding of v to dst.
// Zero encodes as a single 0x00 byte.
func AppendUvarint(dst []byte, v uint64) []byte {
	var tmp [MaxUvarintLen]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7f)
	for v >>= 7; v != 0; v >>= 7 {
		i--
		tmp[i] = byte(v&0x7f) | 0x80
	}
	return append(dst, tmp[i:]...)
}

// AppendUint32 appends v as 4 big-endian bytes.
func AppendUint32(dst []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, v)
}

// Writer accumulates an encoded stream in memory.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) WriteUvarint(v uint64) { w.buf = AppendUvarint(w.buf, v) }

func (w *Writer) WriteUint32(v uint32) { w.buf = AppendUint32(w.buf, v) }

func (w *Writer) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

// Bytes returns the encoded stream. The slice aliases the Writer's buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

// Reset discards the written bytes but keeps the buffer.
func (w *Writer) Reset() { w.buf = w.buf[:0] }
