// Package shardcache fetches, decodes and memoizes index shards, one per gram.
//
// A Cache owns one slot per gram key. A slot is either absent, pending (a
// fetch is in flight and concurrent callers wait on it) or resolved. Resolved
// slots are never refetched or mutated. A missing shard resolves to an empty
// shard and is cached like any other; transport and decode failures are not
// cached so a later search can retry them.
package shardcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/gramsearch/blobstore"
	"github.com/hupe1980/gramsearch/shard"
	"golang.org/x/sync/singleflight"
)

// ErrShardFetch is matched by every *ShardFetchError.
var ErrShardFetch = errors.New("shard fetch failed")

// ShardFetchError wraps a transport failure other than not-found.
type ShardFetchError struct {
	Gram string
	Path string
	Err  error
}

func (e *ShardFetchError) Error() string {
	return fmt.Sprintf("fetch shard %q (%s): %v", e.Gram, e.Path, e.Err)
}

func (e *ShardFetchError) Unwrap() error { return e.Err }

func (e *ShardFetchError) Is(target error) bool { return target == ErrShardFetch }

// Metrics receives cache events.
type Metrics interface {
	// RecordCacheLookup is called once per Get with whether the shard was resolved already.
	RecordCacheLookup(hit bool)
	// RecordShardFetch is called after every fetch with the raw size read.
	RecordShardFetch(gram string, size int, duration time.Duration, err error)
}

type noopMetrics struct{}

func (noopMetrics) RecordCacheLookup(bool)                             {}
func (noopMetrics) RecordShardFetch(string, int, time.Duration, error) {}

// Options configures a Cache.
type Options struct {
	// Prefix is the directory holding the shards. Default: shard.DefaultPrefix.
	Prefix string

	// FetchTimeout bounds a single fetch. A fetch is shared by every caller
	// waiting on the same gram, so it does not inherit any caller's
	// cancellation. 0 means no timeout.
	FetchTimeout time.Duration

	Logger  *slog.Logger
	Metrics Metrics
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits    int64
	Misses  int64
	Fetches int64
	Shards  int
}

// Cache memoizes decoded shards per gram key. It is safe for concurrent use.
type Cache struct {
	store   blobstore.BlobStore
	opts    Options
	logger  *slog.Logger
	metrics Metrics

	mu     sync.RWMutex
	shards map[string]shard.Shard
	group  singleflight.Group

	hits    atomic.Int64
	misses  atomic.Int64
	fetches atomic.Int64
}

// New creates an empty Cache reading from store.
func New(store blobstore.BlobStore, optFns ...func(*Options)) *Cache {
	opts := Options{Prefix: shard.DefaultPrefix}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Cache{
		store:   store,
		opts:    opts,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		shards:  make(map[string]shard.Shard),
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.metrics == nil {
		c.metrics = noopMetrics{}
	}
	return c
}

// Path returns the resource path of gram's shard.
func (c *Cache) Path(gram string) string {
	return shard.Path(c.opts.Prefix, gram)
}

// Get returns the shard for gram, fetching it at most once.
//
// Concurrent callers for the same uncached gram share one fetch. A caller
// whose ctx ends stops waiting; the shared fetch continues for the others.
func (c *Cache) Get(ctx context.Context, gram string) (shard.Shard, error) {
	if s, ok := c.Cached(gram); ok {
		c.hits.Add(1)
		c.metrics.RecordCacheLookup(true)
		return s, nil
	}
	c.misses.Add(1)
	c.metrics.RecordCacheLookup(false)

	ch := c.group.DoChan(gram, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), gram)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(shard.Shard), nil
	}
}

// Cached returns the shard for gram if it is resolved, without I/O.
func (c *Cache) Cached(gram string) (shard.Shard, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.shards[gram]
	return s, ok
}

// load runs inside the single flight for gram.
func (c *Cache) load(ctx context.Context, gram string) (shard.Shard, error) {
	// A flight that finished between the caller's lookup and DoChan has
	// already stored the shard.
	if s, ok := c.Cached(gram); ok {
		return s, nil
	}

	if c.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.FetchTimeout)
		defer cancel()
	}

	path := c.Path(gram)
	start := time.Now()
	c.fetches.Add(1)
	data, err := blobstore.ReadAll(ctx, c.store, path)
	elapsed := time.Since(start)

	var s shard.Shard
	switch {
	case errors.Is(err, blobstore.ErrNotFound):
		c.metrics.RecordShardFetch(gram, 0, elapsed, nil)
		c.logger.DebugContext(ctx, "shard not found", "gram", gram, "path", path)
		s = shard.Empty()
	case err != nil:
		c.metrics.RecordShardFetch(gram, 0, elapsed, err)
		c.logger.WarnContext(ctx, "shard fetch failed", "gram", gram, "path", path, "error", err)
		return nil, &ShardFetchError{Gram: gram, Path: path, Err: err}
	default:
		c.metrics.RecordShardFetch(gram, len(data), elapsed, nil)
		s, err = shard.Decode(data)
		if err != nil {
			c.logger.WarnContext(ctx, "shard decode failed", "gram", gram, "path", path, "error", err)
			return nil, fmt.Errorf("decode shard %q (%s): %w", gram, path, err)
		}
		c.logger.DebugContext(ctx, "shard loaded", "gram", gram, "path", path, "bytes", len(data), "docs", len(s))
	}

	c.mu.Lock()
	c.shards[gram] = s
	c.mu.Unlock()
	return s, nil
}

// Len returns the number of resolved shards.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.shards)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Fetches: c.fetches.Load(),
		Shards:  c.Len(),
	}
}

// Reset drops every resolved shard and zeroes the counters. It is meant for
// tests; a fetch in flight during Reset still stores its result.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.shards = make(map[string]shard.Shard)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
	c.fetches.Store(0)
}
