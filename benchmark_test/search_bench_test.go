package benchmark_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/hupe1980/gramsearch"
	"github.com/hupe1980/gramsearch/blobstore"
	"github.com/hupe1980/gramsearch/indexer"
	"github.com/hupe1980/gramsearch/search"
	"github.com/hupe1980/gramsearch/shard"
	"github.com/hupe1980/gramsearch/testutil"
	"github.com/hupe1980/gramsearch/tokenizer"
)

const (
	sizeSmall  = 1_000
	sizeMedium = 10_000
)

func buildStore(b *testing.B, n int) (*blobstore.MemoryStore, []indexer.Message) {
	b.Helper()
	msgs := testutil.NewRNG(42).Messages(n, 8, testutil.MixedAlphabet, 80)

	ib := indexer.New()
	for _, m := range msgs {
		if err := ib.Add(m); err != nil {
			b.Fatal(err)
		}
	}
	store := blobstore.NewMemoryStore()
	if _, err := ib.Write(context.Background(), store); err != nil {
		b.Fatal(err)
	}
	return store, msgs
}

// BenchmarkSearchWarm measures searches whose shards are all cached.
func BenchmarkSearchWarm(b *testing.B) {
	for _, n := range []int{sizeSmall, sizeMedium} {
		b.Run("n="+strconv.Itoa(n), func(b *testing.B) {
			store, msgs := buildStore(b, n)
			ctx := context.Background()
			eng, err := gramsearch.Open(ctx, store)
			if err != nil {
				b.Fatal(err)
			}

			rng := testutil.NewRNG(1)
			queries := make([]string, 100)
			for i := range queries {
				queries[i] = rng.Query(msgs, testutil.MixedAlphabet, 6)
				if _, err := eng.Search(ctx, queries[i]); err != nil {
					b.Fatal(err)
				}
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := eng.Search(ctx, queries[i%len(queries)]); err != nil {
					b.Fatal(err)
				}
			}
			b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "qps")
		})
	}
}

// BenchmarkSearchCold measures searches that fetch and decode every shard.
func BenchmarkSearchCold(b *testing.B) {
	store, msgs := buildStore(b, sizeSmall)
	ctx := context.Background()
	eng, err := gramsearch.Open(ctx, store)
	if err != nil {
		b.Fatal(err)
	}
	query := testutil.NewRNG(3).Query(msgs, testutil.MixedAlphabet, 6)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		eng.Reset()
		if _, err := eng.Search(ctx, query); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkIntersect isolates the positional fold over decoded shards.
func BenchmarkIntersect(b *testing.B) {
	store, _ := buildStore(b, sizeMedium)
	ctx := context.Background()

	for _, query := range []string{"ab", "abあい", "abあい漢字"} {
		b.Run("chunks="+strconv.Itoa(len(tokenizer.Tokenize(query, tokenizer.DefaultGramSize))), func(b *testing.B) {
			var shards []shard.Shard
			for _, gram := range tokenizer.Tokenize(query, tokenizer.DefaultGramSize) {
				data, err := blobstore.ReadAll(ctx, store, shard.Path(shard.DefaultPrefix, gram))
				if err != nil {
					b.Fatal(err)
				}
				s, err := shard.Decode(data)
				if err != nil {
					b.Fatal(err)
				}
				shards = append(shards, s)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = search.Intersect(shards, tokenizer.DefaultGramSize)
			}
		})
	}
}

// BenchmarkBuild measures index construction and serialization.
func BenchmarkBuild(b *testing.B) {
	msgs := testutil.NewRNG(42).Messages(sizeSmall, 8, testutil.MixedAlphabet, 80)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ib := indexer.New()
		for _, m := range msgs {
			if err := ib.Add(m); err != nil {
				b.Fatal(err)
			}
		}
		if _, err := ib.Write(ctx, blobstore.NewMemoryStore()); err != nil {
			b.Fatal(err)
		}
	}
}
