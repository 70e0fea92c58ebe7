// Package search turns a query string into the set of documents that contain
// it, using independently indexed grams.
//
// The query is cut into chunks c[0..k) of N code points (the last may be
// shorter). Chunk i starts at code point i*N, so a document contains the
// query iff there is a position p of c[0] such that c[i] occurs at p+i*N for
// every i. The executor folds the shards left to right, keeping for each
// surviving document the positions of the most recent chunk:
//
//	P' = (P + N) ∩ S_i[d]
//
// and drops a document as soon as P' is empty.
package search

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/gramsearch/shard"
	"github.com/hupe1980/gramsearch/tokenizer"
	"golang.org/x/sync/errgroup"
)

// ShardSource resolves a gram to its shard. *shardcache.Cache implements it.
type ShardSource interface {
	Get(ctx context.Context, gram string) (shard.Shard, error)
}

// Result is the outcome of one Search call.
type Result struct {
	// Generation is the sequence number of the Search call that produced
	// the result.
	Generation uint64

	// Query is the parsed query that was tokenized.
	Query string

	// Chunks are the gram keys the query was cut into.
	Chunks []string

	// Docs maps each matching document to the start positions of the last
	// chunk inside it. The bitmaps are owned by the result.
	Docs map[shard.DocID]*roaring.Bitmap
}

// Len returns the number of matching documents.
func (r *Result) Len() int { return len(r.Docs) }

// IDs returns the matching document ids in channel, then timestamp order.
func (r *Result) IDs() []shard.DocID {
	ids := make([]shard.DocID, 0, len(r.Docs))
	for d := range r.Docs {
		ids = append(ids, d)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if a.Channel != b.Channel {
			return a.Channel < b.Channel
		}
		if a.Sec != b.Sec {
			return a.Sec < b.Sec
		}
		return a.Micro < b.Micro
	})
	return ids
}

// Options configures an Executor.
type Options struct {
	// GramSize is the chunk length. Default: tokenizer.DefaultGramSize.
	GramSize int

	// Parser normalizes raw queries. Default: tokenizer.Identity.
	Parser tokenizer.Parser

	// Concurrency bounds parallel shard lookups per search. 0 means one
	// goroutine per chunk.
	Concurrency int

	Logger *slog.Logger
}

// Executor runs searches against a ShardSource. It is safe for concurrent use.
type Executor struct {
	source ShardSource
	opts   Options
	logger *slog.Logger
	gen    atomic.Uint64
}

// New creates an Executor.
func New(source ShardSource, optFns ...func(*Options)) *Executor {
	opts := Options{
		GramSize: tokenizer.DefaultGramSize,
		Parser:   tokenizer.Identity,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.GramSize <= 0 {
		opts.GramSize = tokenizer.DefaultGramSize
	}
	if opts.Parser == nil {
		opts.Parser = tokenizer.Identity
	}

	e := &Executor{source: source, opts: opts, logger: opts.Logger}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e
}

// GramSize returns the configured chunk length.
func (e *Executor) GramSize() int { return e.opts.GramSize }

// Search returns the documents containing query.
//
// Every call takes a new generation before doing any work. An empty query
// yields an empty result without touching the shard source. Any shard error
// aborts the search; there are no partial results.
func (e *Executor) Search(ctx context.Context, query string) (*Result, error) {
	res := &Result{
		Generation: e.gen.Add(1),
		Docs:       map[shard.DocID]*roaring.Bitmap{},
	}

	word, err := e.opts.Parser.Parse(query)
	if err != nil {
		return nil, err
	}
	res.Query = word
	res.Chunks = tokenizer.Tokenize(word, e.opts.GramSize)
	if len(res.Chunks) == 0 {
		return res, nil
	}

	shards, err := e.resolve(ctx, res.Chunks)
	if err != nil {
		return nil, err
	}

	res.Docs = Intersect(shards, e.opts.GramSize)
	e.logger.DebugContext(ctx, "search executed",
		"generation", res.Generation,
		"chunks", len(res.Chunks),
		"results", len(res.Docs),
	)
	return res, nil
}

// resolve fetches every chunk's shard concurrently and waits for all of them.
func (e *Executor) resolve(ctx context.Context, chunks []string) ([]shard.Shard, error) {
	shards := make([]shard.Shard, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	if e.opts.Concurrency > 0 {
		g.SetLimit(e.opts.Concurrency)
	}
	for i, chunk := range chunks {
		g.Go(func() error {
			s, err := e.source.Get(gctx, chunk)
			if err != nil {
				return err
			}
			shards[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return shards, nil
}

// Current returns the generation of the most recent Search call.
func (e *Executor) Current() uint64 { return e.gen.Load() }

// IsCurrent reports whether no Search started after the one that produced r.
// Consumers that render asynchronously drop results for which it is false.
func (e *Executor) IsCurrent(r *Result) bool {
	return r != nil && r.Generation == e.gen.Load()
}

// Intersect folds shards left to right with a shift of gramSize per step.
// Input shards are not modified.
func Intersect(shards []shard.Shard, gramSize int) map[shard.DocID]*roaring.Bitmap {
	out := make(map[shard.DocID]*roaring.Bitmap)
	if len(shards) == 0 {
		return out
	}

	for d, positions := range shards[0] {
		out[d] = positions.Clone()
	}

	for _, s := range shards[1:] {
		next := make(map[shard.DocID]*roaring.Bitmap, min(len(out), len(s)))
		for d, prev := range out {
			cur, ok := s[d]
			if !ok {
				continue
			}
			shifted := roaring.AddOffset(prev, uint32(gramSize))
			shifted.And(cur)
			if !shifted.IsEmpty() {
				next[d] = shifted
			}
		}
		out = next
		if len(out) == 0 {
			break
		}
	}
	return out
}
