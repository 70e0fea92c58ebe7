// Package binstream decodes and encodes the primitive values of the shard
// file format.
//
// Two encodings are supported:
//
//   - fixed 32-bit unsigned integers, big-endian
//   - variable-length unsigned integers, 7 payload bits per byte, most
//     significant group first, high bit set on every byte except the last
//
// The varint layout is big-endian in group order, which is the opposite of
// encoding/binary's Uvarint, so the package carries its own codec.
//
// Varint decoding is bounded: ReadUvarint accepts values that fit in 64 bits
// and ReadUvarint32 values that fit in 32 bits. Anything wider fails with a
// *VarIntOverflowError instead of wrapping silently.
package binstream
