package gramsearch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/gramsearch/blobstore"
	"github.com/hupe1980/gramsearch/channel"
	"github.com/hupe1980/gramsearch/indexer"
	"github.com/hupe1980/gramsearch/shard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndex(t *testing.T, msgs ...indexer.Message) *blobstore.MemoryStore {
	t.Helper()
	b := indexer.New()
	for _, m := range msgs {
		require.NoError(t, b.Add(m))
	}
	store := blobstore.NewMemoryStore()
	_, err := b.Write(context.Background(), store)
	require.NoError(t, err)
	return store
}

func sampleIndex(t *testing.T) *blobstore.MemoryStore {
	return buildIndex(t,
		indexer.Message{ChannelID: "C1", ChannelName: "general", TS: "1600000000.000100", Text: "abcd"},
		indexer.Message{ChannelID: "C1", ChannelName: "general", TS: "1600000100.000000", Text: "ab cd"},
		indexer.Message{ChannelID: "C2", ChannelName: "random", TS: "1600000200.000200", Text: "xxabcdxx"},
	)
}

func TestOpen_MissingDirectory(t *testing.T) {
	_, err := Open(context.Background(), blobstore.NewMemoryStore())
	require.ErrorIs(t, err, ErrDirectoryLoad)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_Search(t *testing.T) {
	ctx := context.Background()
	eng, err := Open(ctx, sampleIndex(t))
	require.NoError(t, err)
	assert.Equal(t, 2, eng.Directory().Len())

	res, err := eng.Search(ctx, "abcd")
	require.NoError(t, err)
	assert.Equal(t, []shard.DocID{
		{Channel: 1, Sec: 1600000000, Micro: 100},
		{Channel: 2, Sec: 1600000200, Micro: 200},
	}, res.IDs())

	hits := eng.Hits(res, 0)
	require.Len(t, hits, 2)
	assert.Equal(t, "random", hits[1].Channel.Name)
	assert.Equal(t, []uint32{4}, hits[1].Positions)
	assert.Len(t, eng.Hits(res, 1), 1)

	res, err = eng.Search(ctx, "b c")
	require.NoError(t, err)
	assert.Equal(t, []shard.DocID{{Channel: 1, Sec: 1600000100}}, res.IDs())

	res, err = eng.Search(ctx, "dcba")
	require.NoError(t, err)
	assert.Zero(t, res.Len())
}

func TestEngine_EmptyQueryFetchesNothing(t *testing.T) {
	ctx := context.Background()
	store := sampleIndex(t)
	eng, err := Open(ctx, store)
	require.NoError(t, err)

	res, err := eng.Search(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, res.Len())
	assert.Zero(t, eng.Stats().Fetches)
}

func TestEngine_MissingGram(t *testing.T) {
	ctx := context.Background()
	eng, err := Open(ctx, sampleIndex(t))
	require.NoError(t, err)

	res, err := eng.Search(ctx, "zz")
	require.NoError(t, err)
	assert.Zero(t, res.Len())

	_, err = eng.Search(ctx, "zz")
	require.NoError(t, err)
	assert.Equal(t, int64(1), eng.Stats().Fetches)
}

func TestEngine_ConcurrentSearchesShareFetches(t *testing.T) {
	ctx := context.Background()
	store := sampleIndex(t)
	eng, err := Open(ctx, store)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.Search(ctx, "abcd")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.Opens("index/00/61/00/62.index"))
	assert.Equal(t, 1, store.Opens("index/00/63/00/64.index"))
}

func TestEngine_Generations(t *testing.T) {
	ctx := context.Background()
	eng, err := Open(ctx, sampleIndex(t))
	require.NoError(t, err)

	older, err := eng.Search(ctx, "ab")
	require.NoError(t, err)
	newer, err := eng.Search(ctx, "cd")
	require.NoError(t, err)

	assert.False(t, eng.IsCurrent(older))
	assert.True(t, eng.IsCurrent(newer))
}

func TestEngine_CorruptShard(t *testing.T) {
	ctx := context.Background()
	store := sampleIndex(t)
	require.NoError(t, store.Put(ctx, shard.Path(shard.DefaultPrefix, "ab"), []byte{0x01, 0x01, 0x00, 0x00}))

	eng, err := Open(ctx, store)
	require.NoError(t, err)

	_, err = eng.Search(ctx, "abcd")
	require.ErrorIs(t, err, ErrTruncatedStream)
	assert.True(t, IsCorrupt(err))
}

func TestEngine_Options(t *testing.T) {
	ctx := context.Background()
	b := indexer.New(func(o *indexer.Options) {
		o.Prefix = "search/idx"
		o.GramSize = 3
	})
	require.NoError(t, b.Add(indexer.Message{ChannelID: "C1", ChannelName: "general", TS: "1.000001", Text: "abcdef"}))
	store := blobstore.NewMemoryStore()
	_, err := b.Write(ctx, store)
	require.NoError(t, err)

	metrics := &BasicMetricsCollector{}
	eng, err := Open(ctx, store,
		WithIndexPrefix("search/idx"),
		WithGramSize(3),
		WithFetchConcurrency(1),
		WithMetricsCollector(metrics),
		WithLogger(nil),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, eng.GramSize())

	res, err := eng.Search(ctx, "bcdef")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Len())
	assert.Equal(t, []string{"bcd", "ef"}, res.Chunks)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.SearchCount)
	assert.Equal(t, int64(1), stats.SearchResults)
	assert.Equal(t, int64(2), stats.FetchCount)
	assert.Equal(t, int64(2), stats.CacheMisses)
	assert.Positive(t, stats.FetchBytes)
}

func TestEngine_Close(t *testing.T) {
	ctx := context.Background()
	eng, err := Open(ctx, sampleIndex(t))
	require.NoError(t, err)

	require.NoError(t, eng.Close())
	_, err = eng.Search(ctx, "ab")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, eng.Close(), ErrClosed)
}

func TestEngine_HitsSkipsUnknownChannels(t *testing.T) {
	ctx := context.Background()
	store := sampleIndex(t)
	var dir []byte
	dir = append(dir, "1\tC1\tgeneral\n"...)
	require.NoError(t, store.Put(ctx, "index/channel", dir))

	eng, err := Open(ctx, store)
	require.NoError(t, err)

	res, err := eng.Search(ctx, "abcd")
	require.NoError(t, err)
	require.Equal(t, 2, res.Len())

	hits := eng.Hits(res, 0)
	require.Len(t, hits, 1)
	assert.Equal(t, "C1", hits[0].Channel.ID)

	_, err = eng.Lookup(2)
	require.ErrorIs(t, err, ErrUnknownChannel)
}

func TestLink(t *testing.T) {
	ch := channel.Entry{Number: 1, ID: "C024BE91L", Name: "general"}
	doc := shard.DocID{Channel: 1, Sec: 1600000000, Micro: 100}

	assert.Equal(t, "C024BE91L/2020/09/#ts-1600000000.000100", Link(ch, doc, time.UTC))
	assert.Equal(t, "#general: 2020-09-13 12:26:40", Label(ch, doc, time.UTC))

	tokyo := time.FixedZone("JST", 9*60*60)
	newYear := shard.DocID{Channel: 1, Sec: 1609426800} // 2020-12-31 15:00 UTC
	assert.Equal(t, "C024BE91L/2021/01/#ts-1609426800.000000", Link(ch, newYear, tokyo))
	assert.Equal(t, "C024BE91L/2020/12/#ts-1609426800.000000", Hit{Doc: newYear, Channel: ch}.Link(time.UTC))
}
