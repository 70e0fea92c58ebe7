package shardcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/gramsearch/binstream"
	"github.com/hupe1980/gramsearch/blobstore"
	"github.com/hupe1980/gramsearch/shard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedStore blocks every Open until release is closed.
type gatedStore struct {
	inner   *blobstore.MemoryStore
	release chan struct{}
	opens   atomic.Int64
	started chan struct{}
	once    sync.Once
}

func newGatedStore(inner *blobstore.MemoryStore) *gatedStore {
	return &gatedStore{inner: inner, release: make(chan struct{}), started: make(chan struct{})}
}

func (g *gatedStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	g.opens.Add(1)
	g.once.Do(func() { close(g.started) })
	<-g.release
	return g.inner.Open(ctx, name)
}

type errStore struct {
	err   error
	opens atomic.Int64
}

func (e *errStore) Open(context.Context, string) (blobstore.Blob, error) {
	e.opens.Add(1)
	return nil, e.err
}

type recordingMetrics struct {
	mu      sync.Mutex
	hits    int
	misses  int
	fetches []string
}

func (r *recordingMetrics) RecordCacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *recordingMetrics) RecordShardFetch(gram string, _ int, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches = append(r.fetches, gram)
}

func putShard(t *testing.T, store *blobstore.MemoryStore, gram string, channel uint32, recs ...shard.Record) {
	t.Helper()
	data, err := shard.Encode(nil, channel, recs)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), shard.Path(shard.DefaultPrefix, gram), data))
}

func TestGet_FetchesAndCaches(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	putShard(t, store, "ab", 1, shard.Record{Sec: 100, Micro: 5, Positions: []uint32{0, 4}})

	metrics := &recordingMetrics{}
	c := New(store, func(o *Options) { o.Metrics = metrics })

	s, err := c.Get(ctx, "ab")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 4}, s[shard.DocID{Channel: 1, Sec: 100, Micro: 5}].ToArray())

	again, err := c.Get(ctx, "ab")
	require.NoError(t, err)
	assert.Equal(t, s, again)

	assert.Equal(t, 1, store.Opens("index/00/61/00/62.index"))
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Fetches: 1, Shards: 1}, c.Stats())
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, []string{"ab"}, metrics.fetches)
}

func TestGet_ConcurrentCallersShareOneFetch(t *testing.T) {
	inner := blobstore.NewMemoryStore()
	putShard(t, inner, "ab", 1, shard.Record{Sec: 1, Positions: []uint32{0}})
	store := newGatedStore(inner)
	c := New(store)

	const callers = 16
	var wg sync.WaitGroup
	results := make([]shard.Shard, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.Get(context.Background(), "ab")
		}()
	}

	<-store.started
	time.Sleep(20 * time.Millisecond) // let the other callers join the flight
	close(store.release)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Len(t, results[i], 1)
	}
	assert.Equal(t, int64(1), store.opens.Load())
	assert.Equal(t, 1, inner.Opens("index/00/61/00/62.index"))
}

func TestGet_MissingShardIsEmptyAndCached(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	c := New(store)

	s, err := c.Get(ctx, "zz")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Empty(t, s)

	cached, ok := c.Cached("zz")
	require.True(t, ok)
	assert.NotNil(t, cached)

	_, err = c.Get(ctx, "zz")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Opens("index/00/7a/00/7a.index"))
}

func TestGet_TransportErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("503 service unavailable")
	store := &errStore{err: boom}
	c := New(store)

	_, err := c.Get(ctx, "ab")
	require.ErrorIs(t, err, ErrShardFetch)
	require.ErrorIs(t, err, boom)

	var fe *ShardFetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "ab", fe.Gram)
	assert.Equal(t, "index/00/61/00/62.index", fe.Path)

	_, ok := c.Cached("ab")
	assert.False(t, ok)

	_, err = c.Get(ctx, "ab")
	require.Error(t, err)
	assert.Equal(t, int64(2), store.opens.Load())
}

func TestGet_DecodeErrorPropagates(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "index/00/61.index", []byte{0x01, 0x01, 0x00}))
	c := New(store)

	_, err := c.Get(ctx, "a")
	require.ErrorIs(t, err, binstream.ErrTruncatedStream)
	assert.NotErrorIs(t, err, ErrShardFetch)
	assert.Equal(t, 0, c.Len())
}

func TestGet_WaiterCancellation(t *testing.T) {
	inner := blobstore.NewMemoryStore()
	store := newGatedStore(inner)
	c := New(store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "ab")
		done <- err
	}()

	<-store.started
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// The shared fetch still completes and resolves the slot.
	close(store.release)
	require.Eventually(t, func() bool {
		_, ok := c.Cached("ab")
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestCustomPrefixAndReset(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	c := New(store, func(o *Options) { o.Prefix = "search/idx" })
	assert.Equal(t, "search/idx/00/61.index", c.Path("a"))

	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Opens("search/idx/00/61.index"))
	assert.Equal(t, 1, c.Len())

	c.Reset()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, Stats{}, c.Stats())

	_, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, store.Opens("search/idx/00/61.index"))
}
