package gramsearch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hupe1980/gramsearch/blobstore"
	"github.com/hupe1980/gramsearch/channel"
	"github.com/hupe1980/gramsearch/search"
	"github.com/hupe1980/gramsearch/shard"
	"github.com/hupe1980/gramsearch/shardcache"
)

// Engine searches one published index. It is safe for concurrent use.
//
// The channel directory is loaded once by Open and never changes; shards are
// fetched on demand and kept for the lifetime of the Engine.
type Engine struct {
	opts   options
	logger *Logger

	dir    *channel.Directory
	cache  *shardcache.Cache
	exec   *search.Executor
	closed atomic.Bool
}

// Open loads the channel directory from store and returns an Engine ready to
// search. It fails with an error matching ErrDirectoryLoad if the directory
// cannot be fetched.
func Open(ctx context.Context, store blobstore.BlobStore, optFns ...Option) (*Engine, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	e := &Engine{opts: opts, logger: opts.logger}

	dirPath := opts.directoryPath()
	dir, err := channel.Load(ctx, store, func(o *channel.LoadOptions) {
		o.Path = dirPath
		o.Logger = e.logger.WithComponent("channel").Logger
	})
	e.logger.LogDirectoryLoad(ctx, dirPath, dirLen(dir), err)
	if err != nil {
		return nil, err
	}
	e.dir = dir

	e.cache = shardcache.New(store, func(o *shardcache.Options) {
		o.Prefix = opts.prefix
		o.FetchTimeout = opts.fetchTimeout
		o.Logger = e.logger.WithComponent("shardcache").Logger
		o.Metrics = opts.metricsCollector
	})
	e.exec = search.New(e.cache, func(o *search.Options) {
		o.GramSize = opts.gramSize
		o.Parser = opts.parser
		o.Concurrency = opts.fetchConcurrency
		o.Logger = e.logger.WithComponent("search").Logger
	})
	return e, nil
}

func dirLen(d *channel.Directory) int {
	if d == nil {
		return 0
	}
	return d.Len()
}

// Search returns the documents that contain query.
//
// The result carries the generation taken by this call; see IsCurrent.
// An empty query matches nothing and fetches nothing.
func (e *Engine) Search(ctx context.Context, query string) (*search.Result, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	res, err := e.exec.Search(ctx, query)
	elapsed := time.Since(start)

	var chunks, results int
	if res != nil {
		chunks, results = len(res.Chunks), res.Len()
	}
	e.opts.metricsCollector.RecordSearch(chunks, results, elapsed, err)
	e.logger.LogSearch(ctx, query, chunks, results, err)
	return res, err
}

// IsCurrent reports whether no Search started after the one that produced res.
func (e *Engine) IsCurrent(res *search.Result) bool {
	return e.exec.IsCurrent(res)
}

// Directory returns the channel directory loaded by Open.
func (e *Engine) Directory() *channel.Directory { return e.dir }

// Lookup resolves a channel number.
func (e *Engine) Lookup(number uint32) (channel.Entry, error) {
	return e.dir.Lookup(number)
}

// GramSize returns the query chunk length.
func (e *Engine) GramSize() int { return e.exec.GramSize() }

// Stats returns the shard cache counters.
func (e *Engine) Stats() shardcache.Stats { return e.cache.Stats() }

// Hit is one matching document resolved against the channel directory.
type Hit struct {
	Doc       shard.DocID
	Channel   channel.Entry
	Positions []uint32
}

// Link returns the archive-relative link to the message.
func (h Hit) Link(loc *time.Location) string {
	return Link(h.Channel, h.Doc, loc)
}

// Label returns the human-readable caption of the message.
func (h Hit) Label(loc *time.Location) string {
	return Label(h.Channel, h.Doc, loc)
}

// Hits resolves the documents of res in channel, then timestamp order.
// limit <= 0 returns all of them. Documents whose channel is missing from
// the directory are skipped and logged.
func (e *Engine) Hits(res *search.Result, limit int) []Hit {
	if res == nil {
		return nil
	}

	ids := res.IDs()
	hits := make([]Hit, 0, len(ids))
	for _, id := range ids {
		if limit > 0 && len(hits) >= limit {
			break
		}
		entry, err := e.dir.Lookup(id.Channel)
		if err != nil {
			e.logger.Warn("skipping hit", "doc", id.String(), "error", err)
			continue
		}
		hits = append(hits, Hit{
			Doc:       id,
			Channel:   entry,
			Positions: res.Docs[id].ToArray(),
		})
	}
	return hits
}

// Reset drops every cached shard. Searches after Reset fetch again.
func (e *Engine) Reset() { e.cache.Reset() }

// Close releases the cached shards. Search returns ErrClosed afterwards.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return ErrClosed
	}
	e.cache.Reset()
	return nil
}
