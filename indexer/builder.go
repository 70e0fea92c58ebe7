// Package indexer builds a gram index from a message feed.
//
// For every message it records, for each code point offset i and each gram
// length n in 1..GramSize, that the gram text[i:i+n] starts at i. The output
// is a channel directory and one shard per gram in the layout read by
// package shardcache.
package indexer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"runtime"
	"sort"
	"sync/atomic"

	"github.com/hupe1980/gramsearch/blobstore"
	"github.com/hupe1980/gramsearch/channel"
	"github.com/hupe1980/gramsearch/shard"
	"github.com/hupe1980/gramsearch/tokenizer"
	"github.com/sourcegraph/conc/pool"
)

// ErrUnknownChannel is returned by AddMessage for a channel number that was
// not assigned by AddChannel.
var ErrUnknownChannel = errors.New("indexer: unknown channel number")

// Options configures a Builder.
type Options struct {
	// GramSize is the longest gram indexed. Default: tokenizer.DefaultGramSize.
	GramSize int

	// Prefix is the directory the index is written under. Default: shard.DefaultPrefix.
	Prefix string

	// Concurrency bounds the number of shards encoded and written in
	// parallel. Default: runtime.GOMAXPROCS(0).
	Concurrency int

	Logger *slog.Logger
}

type msgKey struct {
	sec, micro uint32
}

// postings are the positions of one gram, per channel and message.
type postings map[uint32]map[msgKey][]uint32

// Builder accumulates messages in memory. It is not safe for concurrent use.
type Builder struct {
	opts   Options
	logger *slog.Logger

	channels []channel.Entry
	byID     map[string]uint32
	grams    map[string]postings
	messages int
}

// Stats summarizes a written index.
type Stats struct {
	Channels int
	Messages int
	Shards   int
	Bytes    int64
}

// New creates an empty Builder.
func New(optFns ...func(*Options)) *Builder {
	opts := Options{
		GramSize:    tokenizer.DefaultGramSize,
		Prefix:      shard.DefaultPrefix,
		Concurrency: runtime.GOMAXPROCS(0),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.GramSize <= 0 {
		opts.GramSize = tokenizer.DefaultGramSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	b := &Builder{
		opts:   opts,
		logger: opts.Logger,
		byID:   make(map[string]uint32),
		grams:  make(map[string]postings),
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	return b
}

// AddChannel registers a channel and returns its number. Numbers start at 1
// and follow insertion order; adding a known channel id returns its existing
// number.
func (b *Builder) AddChannel(id, name string) uint32 {
	if n, ok := b.byID[id]; ok {
		return n
	}
	n := uint32(len(b.channels) + 1)
	b.channels = append(b.channels, channel.Entry{Number: n, ID: id, Name: name})
	b.byID[id] = n
	return n
}

// AddMessage indexes text as the message ts ("<sec>.<micro>") of channel
// number ch. A message added twice accumulates positions.
func (b *Builder) AddMessage(ch uint32, ts, text string) error {
	if ch == 0 || int(ch) > len(b.channels) {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, ch)
	}
	sec, micro, err := shard.ParseTimestamp(ts)
	if err != nil {
		return fmt.Errorf("channel %s: %w", b.channels[ch-1].ID, err)
	}
	key := msgKey{sec: sec, micro: micro}

	runes := []rune(text)
	for i := range runes {
		for n := 1; n <= b.opts.GramSize && i+n <= len(runes); n++ {
			b.add(string(runes[i:i+n]), ch, key, uint32(i))
		}
	}
	b.messages++
	return nil
}

// Add registers m's channel if needed and indexes the message.
func (b *Builder) Add(m Message) error {
	return b.AddMessage(b.AddChannel(m.ChannelID, m.ChannelName), m.TS, m.Text)
}

func (b *Builder) add(gram string, ch uint32, key msgKey, pos uint32) {
	p, ok := b.grams[gram]
	if !ok {
		p = make(postings)
		b.grams[gram] = p
	}
	msgs, ok := p[ch]
	if !ok {
		msgs = make(map[msgKey][]uint32)
		p[ch] = msgs
	}
	msgs[key] = append(msgs[key], pos)
}

// Grams returns the indexed grams in sorted order.
func (b *Builder) Grams() []string {
	out := make([]string, 0, len(b.grams))
	for g := range b.grams {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Write stores the channel directory and every shard in dst.
//
// Channels and messages are written in ascending order, so the same input
// always produces the same bytes. The first failing write cancels the rest.
func (b *Builder) Write(ctx context.Context, dst blobstore.Putter) (Stats, error) {
	stats := Stats{Channels: len(b.channels), Messages: b.messages}

	var dir bytes.Buffer
	if err := channel.Encode(&dir, b.channels); err != nil {
		return stats, err
	}
	if err := dst.Put(ctx, path.Join(b.opts.Prefix, "channel"), dir.Bytes()); err != nil {
		return stats, fmt.Errorf("write channel directory: %w", err)
	}

	var written atomic.Int64
	p := pool.New().
		WithMaxGoroutines(b.opts.Concurrency).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
	for _, gram := range b.Grams() {
		p.Go(func(ctx context.Context) error {
			data, err := encodeShard(b.grams[gram])
			if err != nil {
				return fmt.Errorf("gram %q: %w", gram, err)
			}
			name := shard.Path(b.opts.Prefix, gram)
			if err := dst.Put(ctx, name, data); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
			written.Add(int64(len(data)))
			return nil
		})
	}
	err := p.Wait()

	stats.Shards = len(b.grams)
	stats.Bytes = written.Load() + int64(dir.Len())
	if err != nil {
		return stats, err
	}
	b.logger.InfoContext(ctx, "index written",
		"channels", stats.Channels,
		"messages", stats.Messages,
		"shards", stats.Shards,
		"bytes", stats.Bytes,
	)
	return stats, nil
}

// encodeShard serializes the postings of one gram.
func encodeShard(p postings) ([]byte, error) {
	chans := make([]uint32, 0, len(p))
	for ch := range p {
		chans = append(chans, ch)
	}
	sort.Slice(chans, func(i, j int) bool { return chans[i] < chans[j] })

	var out []byte
	for _, ch := range chans {
		msgs := p[ch]
		records := make([]shard.Record, 0, len(msgs))
		for k, positions := range msgs {
			records = append(records, shard.Record{Sec: k.sec, Micro: k.micro, Positions: positions})
		}
		sort.Slice(records, func(i, j int) bool {
			if records[i].Sec != records[j].Sec {
				return records[i].Sec < records[j].Sec
			}
			return records[i].Micro < records[j].Micro
		})

		var err error
		if out, err = shard.Encode(out, ch, records); err != nil {
			return nil, err
		}
	}
	return out, nil
}
