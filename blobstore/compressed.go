package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how published blobs are compressed.
type Compression uint8

const (
	// CompressionNone stores blobs as-is.
	CompressionNone Compression = iota
	// CompressionGzip stores blobs as gzip streams with a ".gz" suffix.
	CompressionGzip
	// CompressionZstd stores blobs as zstd frames with a ".zst" suffix.
	CompressionZstd
	// CompressionLZ4 stores blobs as lz4 frames with a ".lz4" suffix.
	CompressionLZ4
)

// ErrUnknownCompression is returned by ParseCompression for unsupported names.
var ErrUnknownCompression = errors.New("unknown compression")

// ParseCompression maps a configuration name to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return CompressionNone, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
	}
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// Suffix returns the file name suffix for the compression.
func (c Compression) Suffix() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// ZSTD decoder pool; decoders are expensive to create.
var zstdDecoderPool sync.Pool

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Decompress decodes data compressed with c.
func (c Compression) Decompress(data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = zr.Close() }()
		return io.ReadAll(zr)
	case CompressionZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer putZstdDecoder(dec)
		return dec.DecodeAll(data, nil)
	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, c)
	}
}

// Compress encodes data with c.
func (c Compression) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		w = gzip.NewWriter(&buf)
	case CompressionZstd:
		enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, err
		}
		w = enc
	case CompressionLZ4:
		w = lz4.NewWriter(&buf)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, c)
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CompressedStore reads and writes blobs published with a compression suffix.
// Callers keep using the logical names; the suffix is added internally.
type CompressedStore struct {
	inner       BlobStore
	compression Compression
}

// Compressed wraps inner. With CompressionNone the wrapper is a pass-through.
func Compressed(inner BlobStore, c Compression) *CompressedStore {
	return &CompressedStore{inner: inner, compression: c}
}

// Open fetches and decompresses the blob and returns it from memory.
func (s *CompressedStore) Open(ctx context.Context, name string) (Blob, error) {
	data, err := s.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return NewMemoryBlob(data), nil
}

// Fetch returns the decompressed contents of name.
func (s *CompressedStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	raw, err := ReadAll(ctx, s.inner, name+s.compression.Suffix())
	if err != nil {
		return nil, err
	}
	data, err := s.compression.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress %s (%s): %w", name, s.compression, err)
	}
	return data, nil
}

// Put compresses data and writes it to the inner store, which must implement Putter.
func (s *CompressedStore) Put(ctx context.Context, name string, data []byte) error {
	p, ok := s.inner.(Putter)
	if !ok {
		return fmt.Errorf("blobstore: %T does not accept writes", s.inner)
	}
	enc, err := s.compression.Compress(data)
	if err != nil {
		return fmt.Errorf("compress %s (%s): %w", name, s.compression, err)
	}
	return p.Put(ctx, name+s.compression.Suffix(), enc)
}
