package gramsearch

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// prometheus subpackage provides one backed by client_golang.
type MetricsCollector interface {
	// RecordSearch is called after each search operation.
	// chunks is the number of grams the query was cut into, results the
	// number of matching documents, err is nil if successful.
	RecordSearch(chunks, results int, duration time.Duration, err error)

	// RecordShardFetch is called after each shard fetch.
	// size is the number of bytes read; a missing shard reports 0 and a nil err.
	RecordShardFetch(gram string, size int, duration time.Duration, err error)

	// RecordCacheLookup is called once per gram lookup.
	RecordCacheLookup(hit bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSearch(int, int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordShardFetch(string, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordCacheLookup(bool)                             {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
	SearchResults    atomic.Int64
	FetchCount       atomic.Int64
	FetchErrors      atomic.Int64
	FetchBytes       atomic.Int64
	FetchTotalNanos  atomic.Int64
	CacheHits        atomic.Int64
	CacheMisses      atomic.Int64
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(chunks, results int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
		return
	}
	b.SearchResults.Add(int64(results))
}

// RecordShardFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordShardFetch(gram string, size int, duration time.Duration, err error) {
	b.FetchCount.Add(1)
	b.FetchTotalNanos.Add(duration.Nanoseconds())
	b.FetchBytes.Add(int64(size))
	if err != nil {
		b.FetchErrors.Add(1)
	}
}

// RecordCacheLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheLookup(hit bool) {
	if hit {
		b.CacheHits.Add(1)
	} else {
		b.CacheMisses.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchAvgNanos: avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		SearchResults:  b.SearchResults.Load(),
		FetchCount:     b.FetchCount.Load(),
		FetchErrors:    b.FetchErrors.Load(),
		FetchBytes:     b.FetchBytes.Load(),
		FetchAvgNanos:  avg(b.FetchTotalNanos.Load(), b.FetchCount.Load()),
		CacheHits:      b.CacheHits.Load(),
		CacheMisses:    b.CacheMisses.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SearchCount    int64
	SearchErrors   int64
	SearchAvgNanos int64
	SearchResults  int64
	FetchCount     int64
	FetchErrors    int64
	FetchBytes     int64
	FetchAvgNanos  int64
	CacheHits      int64
	CacheMisses    int64
}
