package indexer

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/gramsearch/blobstore"
	"github.com/hupe1980/gramsearch/channel"
	"github.com/hupe1980/gramsearch/shard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readShard(t *testing.T, store blobstore.BlobStore, gram string) shard.Shard {
	t.Helper()
	data, err := blobstore.ReadAll(context.Background(), store, shard.Path(shard.DefaultPrefix, gram))
	require.NoError(t, err)
	s, err := shard.Decode(data)
	require.NoError(t, err)
	return s
}

func TestBuilder_AddChannel(t *testing.T) {
	b := New()
	assert.Equal(t, uint32(1), b.AddChannel("C1", "general"))
	assert.Equal(t, uint32(2), b.AddChannel("C2", "random"))
	assert.Equal(t, uint32(1), b.AddChannel("C1", "renamed"))
}

func TestBuilder_Write(t *testing.T) {
	ctx := context.Background()
	b := New()
	ch := b.AddChannel("C1", "general")
	require.NoError(t, b.AddMessage(ch, "1600000000.000100", "abcab"))

	store := blobstore.NewMemoryStore()
	stats, err := b.Write(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Channels)
	assert.Equal(t, 1, stats.Messages)
	// a b c ab bc ca
	assert.Equal(t, 6, stats.Shards)
	assert.Equal(t, []string{"a", "ab", "b", "bc", "c", "ca"}, b.Grams())

	dir, err := channel.Load(ctx, store)
	require.NoError(t, err)
	entry, err := dir.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, channel.Entry{Number: 1, ID: "C1", Name: "general"}, entry)

	doc := shard.DocID{Channel: 1, Sec: 1600000000, Micro: 100}
	assert.Equal(t, []uint32{0, 3}, readShard(t, store, "ab").Positions(doc).ToArray())
	assert.Equal(t, []uint32{1, 4}, readShard(t, store, "b").Positions(doc).ToArray())
	assert.Equal(t, []uint32{2}, readShard(t, store, "ca").Positions(doc).ToArray())
}

func TestBuilder_CodePointPositions(t *testing.T) {
	b := New()
	ch := b.AddChannel("C1", "general")
	require.NoError(t, b.AddMessage(ch, "1.000001", "あいう"))

	store := blobstore.NewMemoryStore()
	_, err := b.Write(context.Background(), store)
	require.NoError(t, err)

	doc := shard.DocID{Channel: 1, Sec: 1, Micro: 1}
	assert.Equal(t, []uint32{1}, readShard(t, store, "いう").Positions(doc).ToArray())
	assert.Equal(t, []string{"index/30/42/30/44.index"}, store.Names("index/30/42/30/44"))
}

func TestBuilder_Deterministic(t *testing.T) {
	build := func() *blobstore.MemoryStore {
		b := New(func(o *Options) { o.Concurrency = 4 })
		for _, m := range []Message{
			{ChannelID: "C2", ChannelName: "random", TS: "20.000002", Text: "hello world"},
			{ChannelID: "C1", ChannelName: "general", TS: "10.000001", Text: "hello"},
			{ChannelID: "C1", ChannelName: "general", TS: "5.000000", Text: "yellow"},
		} {
			require.NoError(t, b.Add(m))
		}
		store := blobstore.NewMemoryStore()
		_, err := b.Write(context.Background(), store)
		require.NoError(t, err)
		return store
	}

	a, c := build(), build()
	names := a.Names("")
	require.Equal(t, names, c.Names(""))
	for _, name := range names {
		da, err := blobstore.ReadAll(context.Background(), a, name)
		require.NoError(t, err)
		dc, err := blobstore.ReadAll(context.Background(), c, name)
		require.NoError(t, err)
		assert.Equal(t, da, dc, name)
	}
}

func TestBuilder_MultipleChannelsInOneShard(t *testing.T) {
	b := New()
	require.NoError(t, b.Add(Message{ChannelID: "C1", TS: "1.000000", Text: "xy"}))
	require.NoError(t, b.Add(Message{ChannelID: "C2", TS: "2.000000", Text: "axy"}))

	store := blobstore.NewMemoryStore()
	_, err := b.Write(context.Background(), store)
	require.NoError(t, err)

	s := readShard(t, store, "xy")
	assert.Equal(t, []uint32{0}, s.Positions(shard.DocID{Channel: 1, Sec: 1}).ToArray())
	assert.Equal(t, []uint32{1}, s.Positions(shard.DocID{Channel: 2, Sec: 2}).ToArray())
}

func TestBuilder_Errors(t *testing.T) {
	b := New()
	require.ErrorIs(t, b.AddMessage(1, "1.0", "x"), ErrUnknownChannel)

	ch := b.AddChannel("C1", "general")
	require.Error(t, b.AddMessage(ch, "not-a-ts", "x"))
	require.Error(t, b.AddMessage(ch, "1", "x"))
}

func TestBuilder_EmptyTextIndexesNothing(t *testing.T) {
	b := New()
	require.NoError(t, b.Add(Message{ChannelID: "C1", TS: "1.0", Text: ""}))
	assert.Empty(t, b.Grams())
}

type failingPutter struct {
	puts atomic.Int64
	fail string
}

func (f *failingPutter) Put(_ context.Context, name string, _ []byte) error {
	f.puts.Add(1)
	if strings.HasPrefix(name, f.fail) {
		return errors.New("disk full")
	}
	return nil
}

func TestBuilder_WriteError(t *testing.T) {
	b := New()
	require.NoError(t, b.Add(Message{ChannelID: "C1", TS: "1.0", Text: "abc"}))

	_, err := b.Write(context.Background(), &failingPutter{fail: "index/channel"})
	require.ErrorContains(t, err, "disk full")

	_, err = b.Write(context.Background(), &failingPutter{fail: "index/00/62"})
	require.ErrorContains(t, err, "disk full")
}

func TestReadMessages(t *testing.T) {
	feed := `{"channel_id":"C1","channel_name":"general","ts":"1.000001","text":"hi"}
{"channel_id":"C2","channel_name":"random","ts":"2.000002","text":"yo"}
`
	msgs, err := ReadMessages(strings.NewReader(feed), nil)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, Message{ChannelID: "C2", ChannelName: "random", TS: "2.000002", Text: "yo"}, msgs[1])

	_, err = ReadMessages(strings.NewReader(`{"ts":"1.0"}`), nil)
	require.ErrorContains(t, err, "missing channel_id")

	_, err = ReadMessages(strings.NewReader(`{"channel_id":`), nil)
	require.Error(t, err)
}
