package gramsearch

import (
	"errors"

	"github.com/hupe1980/gramsearch/binstream"
	"github.com/hupe1980/gramsearch/blobstore"
	"github.com/hupe1980/gramsearch/channel"
	"github.com/hupe1980/gramsearch/shardcache"
)

var (
	// ErrClosed is returned by operations on a closed Engine.
	ErrClosed = errors.New("gramsearch: engine closed")

	// ErrNotFound matches a missing index resource.
	ErrNotFound = blobstore.ErrNotFound

	// ErrTruncatedStream matches a shard that ended in the middle of a value.
	ErrTruncatedStream = binstream.ErrTruncatedStream

	// ErrVarIntOverflow matches a varint wider than its field.
	ErrVarIntOverflow = binstream.ErrVarIntOverflow

	// ErrShardFetch matches a shard that could not be fetched.
	ErrShardFetch = shardcache.ErrShardFetch

	// ErrDirectoryLoad matches a channel directory that could not be fetched.
	ErrDirectoryLoad = channel.ErrDirectoryLoad

	// ErrUnknownChannel matches a channel number missing from the directory.
	ErrUnknownChannel = channel.ErrUnknownChannel
)

// IsCorrupt reports whether err was caused by a malformed shard.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrTruncatedStream) || errors.Is(err, ErrVarIntOverflow)
}
